package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/repository"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshTokenFrom prefers the body and falls back to the refresh cookie.
func refreshTokenFrom(c *gin.Context) string {
	var req refreshRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		return token
	}
	token, _ := c.Cookie(middleware.RefreshCookie)
	return token
}

func Register(svc *auth.Service, authn *middleware.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			respondWithError(c, http.StatusBadRequest, route, "name is required")
			return
		}

		ctx := c.Request.Context()
		user, err := svc.Register(ctx, req.Name, req.Email, req.Password, req.Phone)
		if errors.Is(err, auth.ErrEmailTaken) {
			respondWithError(c, http.StatusConflict, route, "email already registered")
			return
		}
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		tokens, err := svc.IssuePair(ctx, *user)
		if err != nil {
			respondInternalError(c, route, err)
			return
		}
		authn.SetCookies(c, tokens)

		zap.L().Info("user registered", zap.String("route", route), zap.String("userId", user.ID.Hex()))
		respondSuccess(c, http.StatusCreated, gin.H{"user": user, "tokens": tokens})
	}
}

func Login(svc *auth.Service, authn *middleware.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		user, err := svc.Authenticate(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid email or password")
			return
		}
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		tokens, err := svc.IssuePair(ctx, *user)
		if err != nil {
			respondInternalError(c, route, err)
			return
		}
		authn.SetCookies(c, tokens)

		respondSuccess(c, http.StatusOK, gin.H{"user": user, "tokens": tokens})
	}
}

func Refresh(svc *auth.Service, authn *middleware.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/refresh"
		defer handlePanic(c, route)

		token := refreshTokenFrom(c)
		if token == "" {
			respondWithError(c, http.StatusUnauthorized, route, "refresh token required")
			return
		}

		tokens, user, err := svc.Rotate(c.Request.Context(), token)
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenExpired) {
			authn.ClearCookies(c)
			respondWithError(c, http.StatusUnauthorized, route, "invalid or expired refresh token")
			return
		}
		if err != nil {
			respondInternalError(c, route, err)
			return
		}
		authn.SetCookies(c, tokens)

		respondSuccess(c, http.StatusOK, gin.H{"user": user, "tokens": tokens})
	}
}

// Logout revokes the presented refresh token; it succeeds even when there
// is nothing to revoke.
func Logout(svc *auth.Service, authn *middleware.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/logout"
		defer handlePanic(c, route)

		revoked, err := svc.Revoke(c.Request.Context(), refreshTokenFrom(c))
		if err != nil {
			respondInternalError(c, route, err)
			return
		}
		authn.ClearCookies(c)

		respondSuccess(c, http.StatusOK, gin.H{"revoked": revoked})
	}
}

func Me(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/me"
		defer handlePanic(c, route)

		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		user, err := store.Users().Get(c.Request.Context(), claims.UserID)
		if err != nil {
			respondRepositoryError(c, route, err, "user not found")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"user": user})
	}
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/models"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	claimsKey = "claims"
)

// Authenticator reads credentials from the Authorization header or the
// auth cookies and silently refreshes an expired access token when a valid
// refresh cookie is present.
type Authenticator struct {
	tokens        *auth.Service
	secureCookies bool
}

func NewAuthenticator(tokens *auth.Service, secureCookies bool) *Authenticator {
	return &Authenticator{tokens: tokens, secureCookies: secureCookies}
}

func (a *Authenticator) SetCookies(c *gin.Context, tokens *auth.Tokens) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, tokens.AccessToken, int(a.tokens.AccessTTL().Seconds()), "/", "", a.secureCookies, true)
	c.SetCookie(RefreshCookie, tokens.RefreshToken, int(a.tokens.RefreshTTL().Seconds()), "/", "", a.secureCookies, true)
}

func (a *Authenticator) ClearCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", "", a.secureCookies, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", a.secureCookies, true)
}

func bearerToken(header string) (string, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return "", nil
	}
	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}

// resolve returns nil claims and nil error for an anonymous request.
func (a *Authenticator) resolve(c *gin.Context) (*auth.Claims, error) {
	raw, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		raw, _ = c.Cookie(AccessCookie)
	}

	if raw != "" {
		claims, err := a.tokens.ParseAccessToken(raw)
		if err == nil {
			return claims, nil
		}
		if !errors.Is(err, auth.ErrTokenExpired) {
			return nil, err
		}
	}

	refresh, _ := c.Cookie(RefreshCookie)
	if refresh == "" {
		if raw != "" {
			return nil, auth.ErrTokenExpired
		}
		return nil, nil
	}

	tokens, user, err := a.tokens.Rotate(c.Request.Context(), refresh)
	if err != nil {
		a.ClearCookies(c)
		if raw != "" {
			return nil, auth.ErrTokenExpired
		}
		return nil, nil
	}
	a.SetCookies(c, tokens)
	zap.L().Debug("access token refreshed", zap.String("userId", user.ID.Hex()))
	return &auth.Claims{UserID: user.ID, Role: user.Role, Email: user.Email}, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
}

// OptionalAuth lets anonymous requests through but rejects invalid credentials.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.resolve(c)
		if err != nil {
			zap.L().Warn("token validation failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			abortUnauthorized(c, "unauthorized")
			return
		}
		if claims != nil {
			c.Set(claimsKey, claims)
		}
		c.Next()
	}
}

func (a *Authenticator) RequireAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.resolve(c)
		if err != nil {
			zap.L().Warn("token validation failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			abortUnauthorized(c, "unauthorized")
			return
		}
		if claims == nil {
			abortUnauthorized(c, "missing token")
			return
		}

		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if claims.Role == r {
					match = true
					break
				}
			}
			if !match {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "forbidden"})
				return
			}
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return a.RequireAuth(models.RoleAdmin)
}

func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok && claims != nil
}

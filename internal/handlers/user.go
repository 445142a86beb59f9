package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/middleware"
	"storefront/internal/repository"
)

type updateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

func GetUsers(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/users"
		defer handlePanic(c, route)

		users, err := store.Users().List(c.Request.Context())
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"users": users, "count": len(users)})
	}
}

// UpdateUserRole changes a role. Admins cannot demote themselves.
func UpdateUserRole(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/users/:id/role"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		var req updateRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		if claims, ok := middleware.ClaimsFrom(c); ok && claims.UserID == id && req.Role != claims.Role {
			respondWithError(c, http.StatusBadRequest, route, "you cannot change your own role")
			return
		}

		user, err := store.Users().UpdateRole(c.Request.Context(), id, req.Role)
		if err != nil {
			respondRepositoryError(c, route, err, "user not found")
			return
		}

		zap.L().Info("user role updated", zap.String("route", route), zap.String("userId", id.Hex()), zap.String("role", req.Role))
		respondSuccess(c, http.StatusOK, gin.H{"user": user})
	}
}

func DeleteUser(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/users/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		if claims, ok := middleware.ClaimsFrom(c); ok && claims.UserID == id {
			respondWithError(c, http.StatusBadRequest, route, "you cannot delete your own account")
			return
		}

		if err := store.Users().Delete(c.Request.Context(), id); err != nil {
			respondRepositoryError(c, route, err, "user not found")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"message": "user deleted"})
	}
}

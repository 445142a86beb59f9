package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/repository"
)

// DeleteOrder removes an order record. Stock is not restored.
func DeleteOrder(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/orders/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		if err := store.Orders().Delete(c.Request.Context(), id); err != nil {
			respondRepositoryError(c, route, err, "order not found")
			return
		}

		zap.L().Info("order deleted", zap.String("route", route), zap.String("orderId", id.Hex()))
		respondSuccess(c, http.StatusOK, gin.H{"message": "order deleted"})
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/repository"
)

func Health(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ensureDBConnection(c.Request.Context(), store); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/orders"
	"storefront/internal/repository"
)

type quoteRequest struct {
	Items []orderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// QuoteCart re-prices a client cart from stored catalogue data. Stock
// shortfalls come back as warnings; nothing is reserved.
func QuoteCart(store repository.Store, svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/quote"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), store); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req quoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		quote, err := svc.Quote(c.Request.Context(), toLineInputs(req.Items))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"quote": quote})
	}
}

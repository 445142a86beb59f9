package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/repository"
)

/*
GET /products
- filters: category (with subcategories), search, featured, minPrice, maxPrice, sort
- pagination only when page or limit is given
*/
func GetProducts(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), store); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		filter, paginated, err := productFilterFromQuery(c.Request.Context(), c, store, true)
		if err != nil {
			respondRequestError(c, route, err)
			return
		}

		products, total, err := store.Products().List(c.Request.Context(), filter)
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		zap.L().Debug("listing products", zap.String("route", route), zap.Int("count", len(products)), zap.Int64("total", total))

		payload := gin.H{
			"products": presentProducts(products, requestLanguage(c)),
			"total":    total,
		}
		if paginated {
			payload["pagination"] = paginationBlock(filter.Page, filter.Limit, total)
		}
		respondSuccess(c, http.StatusOK, payload)
	}
}

func GetProduct(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		product, err := store.Products().Get(c.Request.Context(), id)
		if err != nil {
			respondRepositoryError(c, route, err, "product not found")
			return
		}
		if !product.IsActive {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"product": presentProduct(*product, requestLanguage(c))})
	}
}

// GetRelatedProducts lists other active products from the same category.
func GetRelatedProducts(store repository.Store, limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id/related"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		product, err := store.Products().Get(c.Request.Context(), id)
		if err != nil {
			respondRepositoryError(c, route, err, "product not found")
			return
		}

		lang := requestLanguage(c)
		if product.Category == nil {
			respondSuccess(c, http.StatusOK, gin.H{"products": presentProducts(nil, lang)})
			return
		}

		related, _, err := store.Products().List(c.Request.Context(), repository.ProductFilter{
			Categories: []primitive.ObjectID{*product.Category},
			ActiveOnly: true,
			Exclude:    &product.ID,
			Limit:      limit,
		})
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"products": presentProducts(related, lang)})
	}
}

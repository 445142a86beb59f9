package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// GetCategories returns active root categories with their active subcategories.
func GetCategories(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /categories"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), store); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		categories, err := store.Categories().List(c.Request.Context(), true)
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		tree := models.BuildCategoryTree(categories)
		zap.L().Debug("returning categories", zap.String("route", route), zap.Int("roots", len(tree)))
		respondSuccess(c, http.StatusOK, gin.H{"categories": tree})
	}
}

func GetCategory(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /categories/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		category, err := store.Categories().Get(c.Request.Context(), id)
		if err != nil {
			respondRepositoryError(c, route, err, "category not found")
			return
		}
		if !category.IsActive {
			respondWithError(c, http.StatusNotFound, route, "category not found")
			return
		}

		children, err := store.Categories().Children(c.Request.Context(), id)
		if err != nil {
			respondInternalError(c, route, err)
			return
		}
		active := make([]models.Category, 0, len(children))
		for _, child := range children {
			if child.IsActive {
				active = append(active, child)
			}
		}

		respondSuccess(c, http.StatusOK, gin.H{
			"category": models.CategoryNode{Category: *category, Subcategories: active},
		})
	}
}

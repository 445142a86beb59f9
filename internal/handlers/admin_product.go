package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/repository"
)

/* =======================
   REQUEST MODELS
======================= */

type createProductRequest struct {
	Name              models.LocalizedText      `json:"name"`
	Description       models.LocalizedText      `json:"description"`
	Price             *float64                  `json:"price" binding:"omitempty,gt=0"`
	PromoPrice        *float64                  `json:"promoPrice"`
	Category          *primitive.ObjectID       `json:"category"`
	Images            []string                  `json:"images"`
	Stock             *int                      `json:"stock" binding:"omitempty,gte=0"`
	HasVariants       bool                      `json:"hasVariants"`
	VariantAttributes []models.VariantAttribute `json:"variantAttributes"`
	Variants          []models.Variant          `json:"variants"`
	Featured          bool                      `json:"featured"`
	IsActive          *bool                     `json:"isActive"`
}

// updateProductRequest is a partial update; nil fields keep their stored value.
// An empty category string unsets the category.
type updateProductRequest struct {
	Name              *models.LocalizedText      `json:"name"`
	Description       *models.LocalizedText      `json:"description"`
	Price             *float64                   `json:"price" binding:"omitempty,gt=0"`
	PromoEnabled      *bool                      `json:"promoEnabled"`
	PromoPrice        *float64                   `json:"promoPrice"`
	Category          *string                    `json:"category"`
	Images            *[]string                  `json:"images"`
	Stock             *int                       `json:"stock" binding:"omitempty,gte=0"`
	HasVariants       *bool                      `json:"hasVariants"`
	VariantAttributes *[]models.VariantAttribute `json:"variantAttributes"`
	Variants          *[]models.Variant          `json:"variants"`
	Featured          *bool                      `json:"featured"`
	IsActive          *bool                      `json:"isActive"`
}

type updateStockRequest struct {
	Stock     *int                `json:"stock" binding:"required,gte=0"`
	VariantID *primitive.ObjectID `json:"variantId"`
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, image := range images {
		if trimmed := strings.TrimSpace(image); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

/* =======================
   LIST (ADMIN)
======================= */

// AdminGetProducts lists products including inactive ones.
func AdminGetProducts(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/products"
		defer handlePanic(c, route)

		filter, paginated, err := productFilterFromQuery(c.Request.Context(), c, store, false)
		if err != nil {
			respondRequestError(c, route, err)
			return
		}

		products, total, err := store.Products().List(c.Request.Context(), filter)
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

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

/* =======================
   CREATE
======================= */

func CreateProduct(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/products"
		defer handlePanic(c, route)

		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		product := models.Product{
			Name:              req.Name.Trimmed(),
			Description:       req.Description.Trimmed(),
			PromoPrice:        normalizePromo(req.PromoPrice),
			Category:          req.Category,
			Images:            cleanImages(req.Images),
			HasVariants:       req.HasVariants,
			VariantAttributes: req.VariantAttributes,
			Variants:          req.Variants,
			Featured:          req.Featured,
			IsActive:          true,
		}
		if req.Price != nil {
			product.Price = *req.Price
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}

		if err := validateProduct(product); err != nil {
			respondRequestError(c, route, err)
			return
		}
		if err := ensureCategoryExists(c.Request.Context(), store, product.Category); err != nil {
			respondRequestError(c, route, err)
			return
		}

		finalizeProduct(&product, time.Now().UTC())
		if err := store.Products().Create(c.Request.Context(), &product); err != nil {
			respondRepositoryError(c, route, err, "product not found")
			return
		}

		zap.L().Info("product created", zap.String("route", route), zap.String("productId", product.ID.Hex()))
		respondSuccess(c, http.StatusCreated, gin.H{"product": presentProduct(product, requestLanguage(c))})
	}
}

/* =======================
   UPDATE
======================= */

func UpdateProduct(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/products/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		product, err := store.Products().Get(ctx, id)
		if err != nil {
			respondRepositoryError(c, route, err, "product not found")
			return
		}

		// validateProduct checks the merged price once HasVariants is settled.
		promo := mergePromoUpdate(product.Price, product.PromoPrice, promoUpdateInput{
			Price:        req.Price,
			PromoEnabled: req.PromoEnabled,
			PromoPrice:   req.PromoPrice,
		})
		product.Price, product.PromoPrice = promo.Price, promo.PromoPrice

		if req.Name != nil {
			product.Name = req.Name.Trimmed()
		}
		if req.Description != nil {
			product.Description = req.Description.Trimmed()
		}
		if req.Category != nil {
			category, err := parseOptionalID(*req.Category)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid category id")
				return
			}
			product.Category = category
		}
		if req.Images != nil {
			product.Images = cleanImages(*req.Images)
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
		}
		if req.HasVariants != nil {
			product.HasVariants = *req.HasVariants
		}
		if req.VariantAttributes != nil {
			product.VariantAttributes = *req.VariantAttributes
		}
		if req.Variants != nil {
			product.Variants = *req.Variants
		}
		if req.Featured != nil {
			product.Featured = *req.Featured
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}

		if err := validateProduct(*product); err != nil {
			respondRequestError(c, route, err)
			return
		}
		if err := ensureCategoryExists(ctx, store, product.Category); err != nil {
			respondRequestError(c, route, err)
			return
		}

		finalizeProduct(product, time.Now().UTC())
		if err := store.Products().Replace(ctx, product); err != nil {
			respondRepositoryError(c, route, err, "product not found")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"product": presentProduct(*product, requestLanguage(c))})
	}
}

/* =======================
   STOCK
======================= */

func UpdateProductStock(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/products/:id/stock"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		var req updateStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		product, err := store.Products().Get(ctx, id)
		if err != nil {
			respondRepositoryError(c, route, err, "product not found")
			return
		}
		if product.HasVariants && req.VariantID == nil {
			respondWithError(c, http.StatusBadRequest, route, "variantId is required for products with variants")
			return
		}
		if req.VariantID != nil {
			if _, found := product.VariantByID(*req.VariantID); !product.HasVariants || !found {
				respondWithError(c, http.StatusNotFound, route, "variant not found")
				return
			}
		}

		if err := store.Products().SetStock(ctx, id, req.VariantID, *req.Stock); err != nil {
			respondRepositoryError(c, route, err, "product not found")
			return
		}

		updated, err := store.Products().Get(ctx, id)
		if err != nil {
			respondRepositoryError(c, route, err, "product not found")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"product": presentProduct(*updated, requestLanguage(c))})
	}
}

/* =======================
   DELETE
======================= */

func DeleteProduct(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/products/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		if err := store.Products().Delete(c.Request.Context(), id); err != nil {
			respondRepositoryError(c, route, err, "product not found")
			return
		}

		zap.L().Info("product deleted", zap.String("route", route), zap.String("productId", id.Hex()))
		respondSuccess(c, http.StatusOK, gin.H{"message": "product deleted"})
	}
}

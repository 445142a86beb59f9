package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repository"
)

type packItemRequest struct {
	Product  primitive.ObjectID `json:"product" binding:"required"`
	Quantity int                `json:"quantity" binding:"required,gt=0"`
}

type createPackRequest struct {
	Name               models.LocalizedText `json:"name"`
	Description        models.LocalizedText `json:"description"`
	Image              string               `json:"image"`
	Products           []packItemRequest    `json:"products" binding:"required,min=1,dive"`
	DiscountPrice      *float64             `json:"discountPrice"`
	DiscountPercentage *int                 `json:"discountPercentage"`
	Active             *bool                `json:"active"`
	StartDate          *time.Time           `json:"startDate"`
	EndDate            *time.Time           `json:"endDate"`
	Featured           bool                 `json:"featured"`
}

// updatePackRequest is a partial update. clearStartDate and clearEndDate
// remove a bound of the validity window; a date sent alongside wins.
type updatePackRequest struct {
	Name               *models.LocalizedText `json:"name"`
	Description        *models.LocalizedText `json:"description"`
	Image              *string               `json:"image"`
	Products           *[]packItemRequest    `json:"products" binding:"omitempty,min=1,dive"`
	DiscountPrice      *float64              `json:"discountPrice"`
	DiscountPercentage *int                  `json:"discountPercentage"`
	Active             *bool                 `json:"active"`
	StartDate          *time.Time            `json:"startDate"`
	EndDate            *time.Time            `json:"endDate"`
	ClearStartDate     bool                  `json:"clearStartDate"`
	ClearEndDate       bool                  `json:"clearEndDate"`
	Featured           *bool                 `json:"featured"`
}

// buildPackItems snapshots name, image and current unit price of each product.
func buildPackItems(ctx context.Context, store repository.Store, entries []packItemRequest) ([]models.PackItem, error) {
	seen := make(map[primitive.ObjectID]bool, len(entries))
	items := make([]models.PackItem, 0, len(entries))
	for _, entry := range entries {
		if seen[entry.Product] {
			return nil, badRequestError{"duplicate product in pack: " + entry.Product.Hex()}
		}
		seen[entry.Product] = true

		product, err := store.Products().Get(ctx, entry.Product)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, badRequestError{"product not found: " + entry.Product.Hex()}
		}
		if err != nil {
			return nil, err
		}
		if product.HasVariants {
			return nil, badRequestError{"products with variants cannot be part of a pack"}
		}

		items = append(items, models.PackItem{
			Product:   product.ID,
			Name:      product.Name,
			UnitPrice: pricing.UnitPrice(*product, nil),
			Image:     product.FirstImage(),
			Quantity:  entry.Quantity,
		})
	}
	return items, nil
}

func applyPackPricing(pack *models.Pack, discountPrice *float64, percentage *int) error {
	pack.OriginalPrice = pricing.PackOriginalPrice(pack.Products)
	price, percent, err := pricing.PackDiscount(pack.OriginalPrice, discountPrice, percentage)
	if err != nil {
		return badRequestError{err.Error()}
	}
	pack.DiscountPrice, pack.DiscountPercentage = price, percent
	return nil
}

func validatePackWindow(pack models.Pack) error {
	if pack.StartDate != nil && pack.EndDate != nil && pack.EndDate.Before(*pack.StartDate) {
		return badRequestError{"endDate must not be before startDate"}
	}
	return nil
}

func AdminGetPacks(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/packs"
		defer handlePanic(c, route)

		packs, err := store.Packs().List(c.Request.Context(), repository.PackFilter{})
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"packs": presentPacks(packs, requestLanguage(c))})
	}
}

func CreatePack(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/packs"
		defer handlePanic(c, route)

		var req createPackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		pack := models.Pack{
			Name:        req.Name.Trimmed(),
			Description: req.Description.Trimmed(),
			Image:       strings.TrimSpace(req.Image),
			Active:      true,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Featured:    req.Featured,
		}
		if pack.Name.IsZero() {
			respondWithError(c, http.StatusBadRequest, route, "name is required")
			return
		}
		if req.Active != nil {
			pack.Active = *req.Active
		}
		if err := validatePackWindow(pack); err != nil {
			respondRequestError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		items, err := buildPackItems(ctx, store, req.Products)
		if err != nil {
			respondRequestError(c, route, err)
			return
		}
		pack.Products = items
		if err := applyPackPricing(&pack, req.DiscountPrice, req.DiscountPercentage); err != nil {
			respondRequestError(c, route, err)
			return
		}

		now := time.Now().UTC()
		pack.CreatedAt, pack.UpdatedAt = now, now
		if err := store.Packs().Create(ctx, &pack); err != nil {
			respondRepositoryError(c, route, err, "pack not found")
			return
		}

		zap.L().Info("pack created", zap.String("route", route), zap.String("packId", pack.ID.Hex()))
		respondSuccess(c, http.StatusCreated, gin.H{"pack": presentPack(pack, requestLanguage(c))})
	}
}

// UpdatePack re-derives prices whenever the contents or the discount change.
// Without a new discount the stored percentage is kept.
func UpdatePack(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/packs/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		var req updatePackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		pack, err := store.Packs().Get(ctx, id)
		if err != nil {
			respondRepositoryError(c, route, err, "pack not found")
			return
		}

		if req.Name != nil {
			name := req.Name.Trimmed()
			if name.IsZero() {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			pack.Name = name
		}
		if req.Description != nil {
			pack.Description = req.Description.Trimmed()
		}
		if req.Image != nil {
			pack.Image = strings.TrimSpace(*req.Image)
		}
		if req.Active != nil {
			pack.Active = *req.Active
		}
		if req.Featured != nil {
			pack.Featured = *req.Featured
		}
		if req.ClearStartDate {
			pack.StartDate = nil
		}
		if req.ClearEndDate {
			pack.EndDate = nil
		}
		if req.StartDate != nil {
			pack.StartDate = req.StartDate
		}
		if req.EndDate != nil {
			pack.EndDate = req.EndDate
		}
		if err := validatePackWindow(*pack); err != nil {
			respondRequestError(c, route, err)
			return
		}

		repriced := false
		if req.Products != nil {
			items, err := buildPackItems(ctx, store, *req.Products)
			if err != nil {
				respondRequestError(c, route, err)
				return
			}
			pack.Products = items
			repriced = true
		}
		if repriced || req.DiscountPrice != nil || req.DiscountPercentage != nil {
			discountPrice, percentage := req.DiscountPrice, req.DiscountPercentage
			if discountPrice == nil && percentage == nil {
				kept := pack.DiscountPercentage
				percentage = &kept
			}
			if err := applyPackPricing(pack, discountPrice, percentage); err != nil {
				respondRequestError(c, route, err)
				return
			}
		}

		pack.UpdatedAt = time.Now().UTC()
		if err := store.Packs().Replace(ctx, pack); err != nil {
			respondRepositoryError(c, route, err, "pack not found")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"pack": presentPack(*pack, requestLanguage(c))})
	}
}

func DeletePack(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/packs/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		if err := store.Packs().Delete(c.Request.Context(), id); err != nil {
			respondRepositoryError(c, route, err, "pack not found")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"message": "pack deleted"})
	}
}

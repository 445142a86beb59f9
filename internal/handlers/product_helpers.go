package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/locale"
	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repository"
)

// badRequestError carries a client-facing message for a 400.
type badRequestError struct {
	message string
}

func (e badRequestError) Error() string {
	return e.message
}

type productResponse struct {
	models.Product
	Pricing     pricing.Price `json:"pricing"`
	DisplayName string        `json:"displayName"`
}

type packResponse struct {
	models.Pack
	Pricing     pricing.Price `json:"pricing"`
	DisplayName string        `json:"displayName"`
}

func requestLanguage(c *gin.Context) string {
	lang := locale.Negotiate(c.Query("lang"), c.GetHeader("Accept-Language"))
	c.Header("Content-Language", lang)
	return lang
}

func presentProduct(p models.Product, lang string) productResponse {
	return productResponse{
		Product:     p.WithDerived(),
		Pricing:     pricing.ForProduct(p),
		DisplayName: p.Name.Resolve(lang),
	}
}

func presentProducts(products []models.Product, lang string) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, presentProduct(p, lang))
	}
	return out
}

func presentPack(p models.Pack, lang string) packResponse {
	return packResponse{
		Pack:        p,
		Pricing:     pricing.ForPack(p),
		DisplayName: p.Name.Resolve(lang),
	}
}

func presentPacks(packs []models.Pack, lang string) []packResponse {
	out := make([]packResponse, 0, len(packs))
	for _, p := range packs {
		out = append(out, presentPack(p, lang))
	}
	return out
}

// finalizeProduct fills ids and the denormalized listing price before a write.
func finalizeProduct(p *models.Product, now time.Time) {
	for i := range p.Variants {
		if p.Variants[i].ID.IsZero() {
			p.Variants[i].ID = primitive.NewObjectID()
		}
		p.Variants[i].PromoPrice = normalizePromo(p.Variants[i].PromoPrice)
	}
	if !p.HasVariants {
		p.Variants = nil
		p.VariantAttributes = nil
	}
	p.PromoPrice = normalizePromo(p.PromoPrice)
	p.DisplayPrice = pricing.ForProduct(*p).DisplayPrice
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func validateProduct(p models.Product) error {
	if p.Name.IsZero() {
		return badRequestError{"name is required"}
	}
	if p.Stock < 0 {
		return badRequestError{"stock must be zero or greater"}
	}
	if !p.HasVariants {
		if err := validatePromoFields(p.Price, p.PromoPrice); err != nil {
			return badRequestError{err.Error()}
		}
		return nil
	}

	// Variant products may leave the base price unset when every variant
	// carries its own.
	if p.Price < 0 {
		return badRequestError{"price must be zero or greater"}
	}
	if p.Price > 0 || normalizePromo(p.PromoPrice) != nil {
		if err := validatePromoFields(p.Price, p.PromoPrice); err != nil {
			return badRequestError{err.Error()}
		}
	}
	return validateVariants(p.Price, p.VariantAttributes, p.Variants)
}

// validateVariants checks the variant matrix. A variant without a price of
// its own inherits basePrice, so one of the two must be positive.
func validateVariants(basePrice float64, attributes []models.VariantAttribute, variants []models.Variant) error {
	if len(variants) == 0 {
		return badRequestError{"a product with variants needs at least one variant"}
	}

	declared := make(map[string]map[string]bool, len(attributes))
	for _, attr := range attributes {
		name := strings.TrimSpace(attr.Name)
		if name == "" || len(attr.Values) == 0 {
			return badRequestError{"variant attributes need a name and values"}
		}
		values := make(map[string]bool, len(attr.Values))
		for _, v := range attr.Values {
			values[v] = true
		}
		declared[name] = values
	}

	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if len(v.Attributes) == 0 {
			return badRequestError{"each variant needs attributes"}
		}
		if len(declared) > 0 {
			if len(v.Attributes) != len(declared) {
				return badRequestError{"each variant must set every declared attribute"}
			}
			for name, value := range v.Attributes {
				values, ok := declared[name]
				if !ok || !values[value] {
					return badRequestError{fmt.Sprintf("variant value %s=%s is not declared", name, value)}
				}
			}
		}
		key := v.Key()
		if seen[key] {
			return badRequestError{fmt.Sprintf("duplicate variant %s", key)}
		}
		seen[key] = true

		if v.Stock < 0 || v.Price < 0 {
			return badRequestError{"variant price and stock must be zero or greater"}
		}
		if v.Price == 0 && basePrice <= 0 {
			return badRequestError{fmt.Sprintf("variant %s needs a price when the product has none", key)}
		}
		if promo := normalizePromo(v.PromoPrice); promo != nil {
			if v.Price <= 0 {
				return badRequestError{"a variant promoPrice requires a variant price"}
			}
			if err := validatePromoFields(v.Price, promo); err != nil {
				return badRequestError{"variant " + err.Error()}
			}
		}
	}
	return nil
}

func ensureCategoryExists(ctx context.Context, store repository.Store, id *primitive.ObjectID) error {
	if id == nil {
		return nil
	}
	if _, err := store.Categories().Get(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return badRequestError{"category not found"}
		}
		return err
	}
	return nil
}

func parseOptionalFloat(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return nil, badRequestError{name + " must be a non-negative number"}
	}
	return &value, nil
}

// productFilterFromQuery reads the shared listing query parameters. A
// category filter also matches its subcategories.
func productFilterFromQuery(ctx context.Context, c *gin.Context, store repository.Store, activeOnly bool) (repository.ProductFilter, bool, error) {
	filter := repository.ProductFilter{
		ActiveOnly: activeOnly,
		Search:     strings.TrimSpace(c.Query("search")),
		Sort:       strings.TrimSpace(c.Query("sort")),
	}

	switch filter.Sort {
	case "", repository.SortNewest, repository.SortPriceAsc, repository.SortPriceDesc:
	default:
		return filter, false, badRequestError{"sort must be one of newest, price_asc, price_desc"}
	}

	categoryID, err := parseOptionalID(c.Query("category"))
	if err != nil {
		return filter, false, badRequestError{"invalid category id"}
	}
	if categoryID != nil {
		children, err := store.Categories().Children(ctx, *categoryID)
		if err != nil {
			return filter, false, err
		}
		filter.Categories = append(filter.Categories, *categoryID)
		for _, child := range children {
			filter.Categories = append(filter.Categories, child.ID)
		}
	}

	if filter.Featured, err = parseOptionalBool(c.Query("featured")); err != nil {
		return filter, false, badRequestError{"featured must be true or false"}
	}
	if filter.MinPrice, err = parseOptionalFloat(c, "minPrice"); err != nil {
		return filter, false, err
	}
	if filter.MaxPrice, err = parseOptionalFloat(c, "maxPrice"); err != nil {
		return filter, false, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return filter, false, badRequestError{"minPrice must not exceed maxPrice"}
	}

	page, limit, paginated, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
	if err != nil {
		return filter, false, badRequestError{err.Error()}
	}
	filter.Page, filter.Limit = page, limit
	return filter, paginated, nil
}

// respondRequestError answers badRequestError with 400 and anything else with 500.
func respondRequestError(c *gin.Context, route string, err error) {
	var badRequest badRequestError
	if errors.As(err, &badRequest) {
		respondWithError(c, http.StatusBadRequest, route, badRequest.message)
		return
	}
	respondInternalError(c, route, err)
}

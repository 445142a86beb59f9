package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/repository"
)

/* =========================
   REQUEST DTOs
========================= */

type orderLineRequest struct {
	Product   *primitive.ObjectID `json:"product"`
	Pack      *primitive.ObjectID `json:"pack"`
	VariantID *primitive.ObjectID `json:"variantId"`
	Variant   map[string]string   `json:"variant"`
	Quantity  int                 `json:"quantity" binding:"required,gt=0"`
}

type createOrderRequest struct {
	Items     []orderLineRequest `json:"items" binding:"required,min=1,dive"`
	GuestInfo *models.GuestInfo  `json:"guestInfo"`
	Notes     string             `json:"notes" binding:"max=1000"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func toLineInputs(lines []orderLineRequest) []orders.LineInput {
	out := make([]orders.LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, orders.LineInput{
			Product:   line.Product,
			Pack:      line.Pack,
			VariantID: line.VariantID,
			Variant:   line.Variant,
			Quantity:  line.Quantity,
		})
	}
	return out
}

// respondOrderError maps checkout and status errors onto the envelope.
func respondOrderError(c *gin.Context, route string, err error) {
	var (
		validationErr orders.ValidationError
		stockErr      orders.OutOfStockError
		productErr    orders.ProductNotFoundError
		packErr       orders.PackNotFoundError
		transitionErr orders.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validationErr):
		respondWithError(c, http.StatusBadRequest, route, validationErr.Message)
	case errors.As(err, &stockErr):
		details := gin.H{
			"productId": stockErr.ProductID.Hex(),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		}
		if stockErr.VariantID != nil {
			details["variantId"] = stockErr.VariantID.Hex()
		}
		respondWithDetails(c, http.StatusBadRequest, route, "insufficient stock", details)
	case errors.As(err, &productErr):
		respondWithDetails(c, http.StatusNotFound, route, "product not found", gin.H{"productId": productErr.ProductID.Hex()})
	case errors.As(err, &packErr):
		respondWithDetails(c, http.StatusNotFound, route, "pack not found", gin.H{"packId": packErr.PackID.Hex()})
	case errors.As(err, &transitionErr):
		respondWithError(c, http.StatusBadRequest, route, transitionErr.Error())
	case errors.Is(err, repository.ErrConflict):
		respondWithError(c, http.StatusConflict, route, "order status changed concurrently, retry")
	default:
		respondRepositoryError(c, route, err, "order not found")
	}
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(store repository.Store, svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), store); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		input := orders.PlaceOrderInput{
			GuestInfo: req.GuestInfo,
			Items:     toLineInputs(req.Items),
			Notes:     req.Notes,
		}
		if claims, ok := middleware.ClaimsFrom(c); ok {
			input.User = &claims.UserID
		}

		order, err := svc.Place(c.Request.Context(), input)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusCreated, gin.H{"order": order})
	}
}

/* =========================
   GET ORDERS
========================= */

func parseDateParam(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// GetOrders returns the caller's orders; admins see every order and may filter.
func GetOrders(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var filter repository.OrderFilter
		if !claims.IsAdmin() {
			filter.User = &claims.UserID
		} else {
			filter.Status = strings.TrimSpace(c.Query("status"))
			if filter.Status != "" && !models.IsOrderStatus(filter.Status) {
				respondWithError(c, http.StatusBadRequest, route, "invalid status filter")
				return
			}
			user, err := parseOptionalID(c.Query("user"))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid user id")
				return
			}
			filter.User = user
			if filter.StartDate, err = parseDateParam(c.Query("startDate"), false); err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid startDate")
				return
			}
			if filter.EndDate, err = parseDateParam(c.Query("endDate"), true); err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid endDate")
				return
			}
		}

		list, err := store.Orders().List(c.Request.Context(), filter)
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"orders": list, "count": len(list)})
	}
}

func GetOrder(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}
		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		order, err := store.Orders().Get(c.Request.Context(), id)
		if err != nil {
			respondRepositoryError(c, route, err, "order not found")
			return
		}
		if !claims.IsAdmin() && (order.User == nil || *order.User != claims.UserID) {
			respondWithError(c, http.StatusForbidden, route, "forbidden")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"order": order})
	}
}

/* =========================
   STATUS
========================= */

func UpdateOrderStatus(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/status"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		order, err := svc.UpdateStatus(c.Request.Context(), id, strings.TrimSpace(req.Status))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"order": order})
	}
}

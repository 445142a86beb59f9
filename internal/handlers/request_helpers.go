package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/repository"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		stack := string(debug.Stack())
		zap.L().Error("panic recovered", zap.String("route", route), zap.Any("panic", r), zap.String("stack", stack))
		body := gin.H{"success": false, "message": "internal server error"}
		if !config.AppEnv.IsProduction() {
			body["stack"] = stack
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	}
}

func ensureDBConnection(ctx context.Context, store repository.Store) error {
	return store.Ping(ctx)
}

func respondSuccess(c *gin.Context, status int, payload gin.H) {
	payload["success"] = true
	c.JSON(status, payload)
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	zap.L().Warn("returning error", zap.String("route", route), zap.Int("status", status), zap.String("message", message))
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func respondWithDetails(c *gin.Context, status int, route string, message string, details gin.H) {
	zap.L().Warn("returning error", zap.String("route", route), zap.Int("status", status), zap.String("message", message))
	body := gin.H{"success": false, "message": message}
	for k, v := range details {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

func respondInternalError(c *gin.Context, route string, err error) {
	zap.L().Error("request failed", zap.String("route", route), zap.Error(err))
	body := gin.H{"success": false, "message": "internal server error"}
	if !config.AppEnv.IsProduction() {
		body["error"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

// respondRepositoryError maps repository sentinels onto status codes.
func respondRepositoryError(c *gin.Context, route string, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, notFoundMessage)
	case errors.Is(err, repository.ErrConflict):
		respondWithError(c, http.StatusConflict, route, "resource was modified concurrently")
	case errors.Is(err, repository.ErrDuplicate):
		respondWithError(c, http.StatusConflict, route, "resource already exists")
	default:
		respondInternalError(c, route, err)
	}
}

func respondValidationError(c *gin.Context, route string, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "email":
				details = append(details, fmt.Sprintf("%s must be a valid email", field))
			case "min", "gte", "gt":
				details = append(details, fmt.Sprintf("%s must be at least %s", field, minimumFor(fieldError)))
			case "oneof":
				details = append(details, fmt.Sprintf("%s must be one of %s", field, fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		respondWithDetails(c, http.StatusBadRequest, route, "validation failed", gin.H{"errors": details})
		return
	}

	respondWithDetails(c, http.StatusBadRequest, route, "invalid request body", gin.H{"errors": []string{err.Error()}})
}

func minimumFor(fieldError validator.FieldError) string {
	if fieldError.Tag() == "gt" {
		return "more than " + fieldError.Param()
	}
	return fieldError.Param()
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func parseIDParam(c *gin.Context, route, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(name)))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseOptionalID(value string) (*primitive.ObjectID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalBool(value string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return nil, nil
	case "true", "1":
		v := true
		return &v, nil
	case "false", "0":
		v := false
		return &v, nil
	default:
		return nil, errors.New("invalid boolean")
	}
}

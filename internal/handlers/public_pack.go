package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/repository"
)

// GetPacks lists active packs inside their validity window.
func GetPacks(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /packs"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), store); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		featured, err := parseOptionalBool(c.Query("featured"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "featured must be true or false")
			return
		}

		now := time.Now()
		packs, err := store.Packs().List(c.Request.Context(), repository.PackFilter{
			AvailableAt: &now,
			Featured:    featured,
		})
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"packs": presentPacks(packs, requestLanguage(c))})
	}
}

func GetPack(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /packs/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		pack, err := store.Packs().Get(c.Request.Context(), id)
		if err != nil {
			respondRepositoryError(c, route, err, "pack not found")
			return
		}
		if !pack.IsAvailable(time.Now()) {
			respondWithError(c, http.StatusNotFound, route, "pack not found")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"pack": presentPack(*pack, requestLanguage(c))})
	}
}

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
	"storefront/internal/repository"
)

type categoryCreateRequest struct {
	Name     models.LocalizedText `json:"name"`
	Parent   *primitive.ObjectID  `json:"parent"`
	IsActive *bool                `json:"isActive"`
}

// categoryUpdateRequest: an empty parent string turns the category into a root.
type categoryUpdateRequest struct {
	Name     *models.LocalizedText `json:"name"`
	Parent   *string               `json:"parent"`
	IsActive *bool                 `json:"isActive"`
}

// validateParent checks that parent exists and is itself a root, keeping
// the tree two levels deep.
func validateParent(ctx context.Context, store repository.Store, parent primitive.ObjectID) error {
	category, err := store.Categories().Get(ctx, parent)
	if errors.Is(err, repository.ErrNotFound) {
		return badRequestError{"parent category not found"}
	}
	if err != nil {
		return err
	}
	if !category.IsRoot() {
		return badRequestError{"parent must be a top-level category"}
	}
	return nil
}

// ensureUniqueName rejects a sibling with the same name (case-insensitive).
func ensureUniqueName(ctx context.Context, store repository.Store, candidate models.Category) error {
	all, err := store.Categories().List(ctx, false)
	if err != nil {
		return err
	}
	name := strings.ToLower(candidate.Name.Resolve(models.LangFR))
	for _, existing := range all {
		if existing.ID == candidate.ID || existing.IsRoot() != candidate.IsRoot() {
			continue
		}
		if !existing.IsRoot() && *existing.Parent != *candidate.Parent {
			continue
		}
		if strings.ToLower(existing.Name.Resolve(models.LangFR)) == name {
			return repository.ErrDuplicate
		}
	}
	return nil
}

/*
GET /admin/categories
- every category, active or not, as a flat list
*/
func AdminGetCategories(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/categories"
		defer handlePanic(c, route)

		categories, err := store.Categories().List(c.Request.Context(), false)
		if err != nil {
			respondInternalError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"categories": categories})
	}
}

/*
POST /admin/categories
- parent, when given, must be a root category
- sibling names are unique
*/
func CreateCategory(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/categories"
		defer handlePanic(c, route)

		var req categoryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		category := models.Category{
			Name:      req.Name.Trimmed(),
			Parent:    req.Parent,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		}
		if category.Name.IsZero() {
			respondWithError(c, http.StatusBadRequest, route, "name is required")
			return
		}
		if req.IsActive != nil {
			category.IsActive = *req.IsActive
		}
		if category.Parent != nil && category.Parent.IsZero() {
			category.Parent = nil
		}

		ctx := c.Request.Context()
		if category.Parent != nil {
			if err := validateParent(ctx, store, *category.Parent); err != nil {
				respondRequestError(c, route, err)
				return
			}
		}
		if err := ensureUniqueName(ctx, store, category); err != nil {
			respondRepositoryError(c, route, err, "category not found")
			return
		}

		if err := store.Categories().Create(ctx, &category); err != nil {
			respondRepositoryError(c, route, err, "category not found")
			return
		}

		respondSuccess(c, http.StatusCreated, gin.H{"category": category})
	}
}

/*
PUT /admin/categories/:id
*/
func UpdateCategory(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/categories/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		var req categoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		if req.Name == nil && req.Parent == nil && req.IsActive == nil {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx := c.Request.Context()
		category, err := store.Categories().Get(ctx, id)
		if err != nil {
			respondRepositoryError(c, route, err, "category not found")
			return
		}

		if req.Name != nil {
			name := req.Name.Trimmed()
			if name.IsZero() {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			category.Name = name
		}
		if req.IsActive != nil {
			category.IsActive = *req.IsActive
		}
		if req.Parent != nil {
			parent, err := parseOptionalID(*req.Parent)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid parent id")
				return
			}
			if parent != nil {
				if *parent == id {
					respondWithError(c, http.StatusBadRequest, route, "a category cannot be its own parent")
					return
				}
				children, err := store.Categories().Children(ctx, id)
				if err != nil {
					respondInternalError(c, route, err)
					return
				}
				if len(children) > 0 {
					respondWithError(c, http.StatusBadRequest, route, "a category with subcategories cannot get a parent")
					return
				}
				if err := validateParent(ctx, store, *parent); err != nil {
					respondRequestError(c, route, err)
					return
				}
			}
			category.Parent = parent
		}

		if err := ensureUniqueName(ctx, store, *category); err != nil {
			respondRepositoryError(c, route, err, "category not found")
			return
		}
		if err := store.Categories().Replace(ctx, category); err != nil {
			respondRepositoryError(c, route, err, "category not found")
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"category": category})
	}
}

/*
DELETE /admin/categories/:id
- a root takes its subcategories with it and its products lose their category
- a subcategory hands its products to its parent
*/
func DeleteCategory(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/categories/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route, "id")
		if !ok {
			return
		}

		var deleted, reassigned int64
		err := store.WithTransaction(c.Request.Context(), func(ctx context.Context) error {
			category, err := store.Categories().Get(ctx, id)
			if err != nil {
				return err
			}

			ids := []primitive.ObjectID{id}
			var target *primitive.ObjectID
			if category.IsRoot() {
				children, err := store.Categories().Children(ctx, id)
				if err != nil {
					return err
				}
				for _, child := range children {
					ids = append(ids, child.ID)
				}
			} else {
				target = category.Parent
			}

			if reassigned, err = store.Products().ReassignCategory(ctx, ids, target); err != nil {
				return err
			}
			deleted, err = store.Categories().DeleteMany(ctx, ids)
			return err
		})
		if err != nil {
			respondRepositoryError(c, route, err, "category not found")
			return
		}

		zap.L().Info("category deleted",
			zap.String("route", route),
			zap.String("categoryId", id.Hex()),
			zap.Int64("deletedCategories", deleted),
			zap.Int64("reassignedProducts", reassigned),
		)
		respondSuccess(c, http.StatusOK, gin.H{
			"message":            "category deleted",
			"deletedCategories":  deleted,
			"reassignedProducts": reassigned,
		})
	}
}

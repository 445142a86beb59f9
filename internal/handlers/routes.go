package handlers

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/orders"
	"storefront/internal/repository"
)

type Dependencies struct {
	Store                repository.Store
	Auth                 *auth.Service
	Authenticator        *middleware.Authenticator
	Orders               *orders.Service
	RelatedProductsLimit int64
}

func RegisterRoutes(r gin.IRouter, deps Dependencies) {
	store := deps.Store
	authn := deps.Authenticator

	r.GET("/health", Health(store))

	r.GET("/products", GetProducts(store))
	r.GET("/products/:id", GetProduct(store))
	r.GET("/products/:id/related", GetRelatedProducts(store, deps.RelatedProductsLimit))
	r.GET("/categories", GetCategories(store))
	r.GET("/categories/:id", GetCategory(store))
	r.GET("/packs", GetPacks(store))
	r.GET("/packs/:id", GetPack(store))
	r.POST("/cart/quote", QuoteCart(store, deps.Orders))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", Register(deps.Auth, authn))
		authGroup.POST("/login", Login(deps.Auth, authn))
		authGroup.POST("/refresh", Refresh(deps.Auth, authn))
		authGroup.POST("/logout", Logout(deps.Auth, authn))
		authGroup.GET("/me", authn.RequireAuth(), Me(store))
	}

	r.POST("/orders", authn.OptionalAuth(), CreateOrder(store, deps.Orders))
	r.GET("/orders", authn.RequireAuth(), GetOrders(store))
	r.GET("/orders/:id", authn.RequireAuth(), GetOrder(store))
	r.PUT("/orders/:id/status", authn.RequireAdmin(), UpdateOrderStatus(deps.Orders))

	admin := r.Group("/admin")
	admin.Use(authn.RequireAdmin())
	{
		admin.GET("/products", AdminGetProducts(store))
		admin.POST("/products", CreateProduct(store))
		admin.PUT("/products/:id", UpdateProduct(store))
		admin.PATCH("/products/:id/stock", UpdateProductStock(store))
		admin.DELETE("/products/:id", DeleteProduct(store))

		admin.GET("/categories", AdminGetCategories(store))
		admin.POST("/categories", CreateCategory(store))
		admin.PUT("/categories/:id", UpdateCategory(store))
		admin.DELETE("/categories/:id", DeleteCategory(store))

		admin.GET("/packs", AdminGetPacks(store))
		admin.POST("/packs", CreatePack(store))
		admin.PUT("/packs/:id", UpdatePack(store))
		admin.DELETE("/packs/:id", DeletePack(store))

		admin.PUT("/orders/:id/status", UpdateOrderStatus(deps.Orders))
		admin.DELETE("/orders/:id", DeleteOrder(store))

		admin.GET("/users", GetUsers(store))
		admin.PUT("/users/:id/role", UpdateUserRole(store))
		admin.DELETE("/users/:id", DeleteUser(store))
	}
}

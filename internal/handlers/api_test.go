package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/pricing"
	"storefront/internal/repository/memstore"
)

type testAPI struct {
	router     *gin.Engine
	store      *memstore.Store
	auth       *auth.Service
	adminToken string
	userToken  string
	adminID    primitive.ObjectID
	userID     primitive.ObjectID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	store := memstore.New()
	authSvc := auth.NewService(store, "test-secret", time.Minute, time.Hour)

	admin, err := authSvc.Register(ctx, "Admin", "admin@example.com", "password1", "")
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if admin, err = store.Users().UpdateRole(ctx, admin.ID, models.RoleAdmin); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	user, err := authSvc.Register(ctx, "User", "user@example.com", "password1", "")
	if err != nil {
		t.Fatalf("register user: %v", err)
	}

	adminToken, err := authSvc.IssueAccessToken(*admin)
	if err != nil {
		t.Fatalf("admin token: %v", err)
	}
	userToken, err := authSvc.IssueAccessToken(*user)
	if err != nil {
		t.Fatalf("user token: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, Dependencies{
		Store:                store,
		Auth:                 authSvc,
		Authenticator:        middleware.NewAuthenticator(authSvc, false),
		Orders:               orders.NewService(store, pricing.ShippingRule{FreeThreshold: 500, FlatFee: 30}, nil),
		RelatedProductsLimit: 4,
	})

	return &testAPI{
		router:     r,
		store:      store,
		auth:       authSvc,
		adminToken: adminToken,
		userToken:  userToken,
		adminID:    admin.ID,
		userID:     user.ID,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func (a *testAPI) seedProduct(t *testing.T, name string, price float64, stock int, active bool) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     models.Text(name),
		Price:    price,
		Stock:    stock,
		IsActive: active,
	}
	finalizeProduct(p, time.Now())
	if err := a.store.Products().Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (a *testAPI) stockOf(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := a.store.Products().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return p.Stock
}

var testGuest = gin.H{"name": "Guest", "email": "guest@example.com", "phone": "0600000000", "address": "1 rue de la Paix"}

func TestCreateGuestOrderDecrementsStock(t *testing.T) {
	api := newTestAPI(t)
	p := api.seedProduct(t, "Chair", 10, 5, true)

	w := api.do(t, http.MethodPost, "/orders", gin.H{
		"items":     []gin.H{{"product": p.ID.Hex(), "quantity": 3}},
		"guestInfo": testGuest,
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	order := decodeBody(t, w)["order"].(map[string]any)
	if order["status"] != models.OrderStatusPending {
		t.Fatalf("expected pending order, got %v", order["status"])
	}
	if order["subtotal"] != 30.0 || order["shippingCost"] != 30.0 || order["total"] != 60.0 {
		t.Fatalf("unexpected totals: %v", order)
	}

	w = api.do(t, http.MethodGet, "/products/"+p.ID.Hex(), nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stock := decodeBody(t, w)["product"].(map[string]any)["stock"]; stock != 2.0 {
		t.Fatalf("expected stock 2 after checkout, got %v", stock)
	}
}

func TestCreateOrderOutOfStockRollsBackEarlierLines(t *testing.T) {
	api := newTestAPI(t)
	p1 := api.seedProduct(t, "Lamp", 10, 5, true)
	p2 := api.seedProduct(t, "Desk", 50, 1, true)

	w := api.do(t, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{
			{"product": p1.ID.Hex(), "quantity": 2},
			{"product": p2.ID.Hex(), "quantity": 3},
		},
		"guestInfo": testGuest,
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["success"] != false || body["productId"] != p2.ID.Hex() {
		t.Fatalf("unexpected error body: %v", body)
	}
	if body["available"] != 1.0 || body["requested"] != 3.0 {
		t.Fatalf("unexpected stock details: %v", body)
	}
	if got := api.stockOf(t, p1.ID); got != 5 {
		t.Fatalf("expected first line to be rolled back, stock %d", got)
	}
	if got := api.stockOf(t, p2.ID); got != 1 {
		t.Fatalf("expected untouched stock, got %d", got)
	}
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	api := newTestAPI(t)
	p := api.seedProduct(t, "Rug", 10, 5, true)

	w := api.do(t, http.MethodPost, "/orders", gin.H{"items": []gin.H{}, "guestInfo": testGuest}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty items, got %d", w.Code)
	}
	if _, ok := decodeBody(t, w)["errors"]; !ok {
		t.Fatalf("expected validation errors list: %s", w.Body.String())
	}

	w = api.do(t, http.MethodPost, "/orders", gin.H{"items": []gin.H{{"product": p.ID.Hex(), "quantity": 1}}}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without guest info, got %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/orders", gin.H{
		"items":     []gin.H{{"product": p.ID.Hex(), "quantity": 1}},
		"guestInfo": gin.H{"name": "G", "email": "not-an-email", "phone": "1", "address": "a"},
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid guest email, got %d", w.Code)
	}

	missing := primitive.NewObjectID()
	w = api.do(t, http.MethodPost, "/orders", gin.H{
		"items":     []gin.H{{"product": missing.Hex(), "quantity": 1}},
		"guestInfo": testGuest,
	}, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", w.Code)
	}
	if decodeBody(t, w)["productId"] != missing.Hex() {
		t.Fatalf("expected missing product id in body: %s", w.Body.String())
	}

	w = api.do(t, http.MethodPost, "/orders", gin.H{"items": []gin.H{{"product": "zzz", "quantity": 1}}}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}

	if got := api.stockOf(t, p.ID); got != 5 {
		t.Fatalf("expected stock untouched, got %d", got)
	}
}

func TestOrderVisibility(t *testing.T) {
	api := newTestAPI(t)
	p := api.seedProduct(t, "Vase", 20, 10, true)
	line := []gin.H{{"product": p.ID.Hex(), "quantity": 1}}

	w := api.do(t, http.MethodPost, "/orders", gin.H{"items": line}, api.userToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for user order, got %d: %s", w.Code, w.Body.String())
	}
	userOrder := decodeBody(t, w)["order"].(map[string]any)
	if userOrder["user"] != api.userID.Hex() {
		t.Fatalf("expected order bound to user, got %v", userOrder["user"])
	}

	w = api.do(t, http.MethodPost, "/orders", gin.H{"items": line, "guestInfo": testGuest}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for guest order, got %d", w.Code)
	}
	guestOrder := decodeBody(t, w)["order"].(map[string]any)

	w = api.do(t, http.MethodGet, "/orders", nil, api.userToken)
	if w.Code != http.StatusOK || decodeBody(t, w)["count"] != 1.0 {
		t.Fatalf("expected user to see one order: %s", w.Body.String())
	}
	w = api.do(t, http.MethodGet, "/orders", nil, api.adminToken)
	if w.Code != http.StatusOK || decodeBody(t, w)["count"] != 2.0 {
		t.Fatalf("expected admin to see both orders: %s", w.Body.String())
	}
	w = api.do(t, http.MethodGet, "/orders?status=Shipped", nil, api.adminToken)
	if decodeBody(t, w)["count"] != 0.0 {
		t.Fatalf("expected status filter to exclude pending orders: %s", w.Body.String())
	}
	w = api.do(t, http.MethodGet, "/orders?status=Lost", nil, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}

	w = api.do(t, http.MethodGet, "/orders/"+guestOrder["id"].(string), nil, api.userToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign order, got %d", w.Code)
	}
	w = api.do(t, http.MethodGet, "/orders/"+userOrder["id"].(string), nil, api.userToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected owner to read order, got %d", w.Code)
	}
	w = api.do(t, http.MethodGet, "/orders", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	api := newTestAPI(t)
	p := api.seedProduct(t, "Mug", 5, 10, true)

	w := api.do(t, http.MethodPost, "/orders", gin.H{
		"items":     []gin.H{{"product": p.ID.Hex(), "quantity": 2}},
		"guestInfo": testGuest,
	}, "")
	id := decodeBody(t, w)["order"].(map[string]any)["id"].(string)

	w = api.do(t, http.MethodPut, "/admin/orders/"+id+"/status", gin.H{"status": "Confirmed"}, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = api.do(t, http.MethodPut, "/orders/"+id+"/status", gin.H{"status": "Pending"}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for backwards transition, got %d", w.Code)
	}
	w = api.do(t, http.MethodPut, "/orders/"+id+"/status", gin.H{"status": "Cancelled"}, api.userToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}
	w = api.do(t, http.MethodPut, "/orders/"+id+"/status", gin.H{"status": "Cancelled"}, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected cancel to succeed, got %d", w.Code)
	}
	if got := api.stockOf(t, p.ID); got != 8 {
		t.Fatalf("cancellation must not restock, got %d", got)
	}

	w = api.do(t, http.MethodDelete, "/admin/orders/"+id, nil, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected delete to succeed, got %d", w.Code)
	}
	w = api.do(t, http.MethodDelete, "/admin/orders/"+id, nil, api.adminToken)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestProductListing(t *testing.T) {
	api := newTestAPI(t)
	cheap := api.seedProduct(t, "Cheap", 10, 1, true)
	api.seedProduct(t, "Pricey", 90, 1, true)
	hidden := api.seedProduct(t, "Hidden", 50, 1, false)

	w := api.do(t, http.MethodGet, "/products?sort=price_desc", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	products := body["products"].([]any)
	if len(products) != 2 || body["total"] != 2.0 {
		t.Fatalf("expected two active products: %v", body)
	}
	if products[0].(map[string]any)["displayName"] != "Pricey" {
		t.Fatalf("expected price_desc ordering: %v", products)
	}
	if _, ok := body["pagination"]; ok {
		t.Fatal("did not expect a pagination block without page or limit")
	}

	w = api.do(t, http.MethodGet, "/products?maxPrice=20&page=1&limit=10", nil, "")
	body = decodeBody(t, w)
	if body["total"] != 1.0 || body["pagination"] == nil {
		t.Fatalf("expected one paginated product: %v", body)
	}

	for _, path := range []string{"/products?sort=bogus", "/products?minPrice=-1", "/products?minPrice=9&maxPrice=3"} {
		if w := api.do(t, http.MethodGet, path, nil, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", path, w.Code)
		}
	}

	if w := api.do(t, http.MethodGet, "/products/"+hidden.ID.Hex(), nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected inactive product to be hidden, got %d", w.Code)
	}
	if w := api.do(t, http.MethodGet, "/products/nope", nil, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}
	w = api.do(t, http.MethodGet, "/products/"+cheap.ID.Hex()+"?lang=ar", nil, "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Language") != "ar" {
		t.Fatalf("expected product in ar, got %d %q", w.Code, w.Header().Get("Content-Language"))
	}

	w = api.do(t, http.MethodGet, "/admin/products", nil, api.adminToken)
	if decodeBody(t, w)["total"] != 3.0 {
		t.Fatalf("expected admin listing to include inactive products: %s", w.Body.String())
	}
}

func TestAdminProductLifecycle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/admin/products", gin.H{"name": "Table", "price": 0}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero price, got %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/admin/products", gin.H{"name": "Table", "price": 100, "promoPrice": 120}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for promo above price, got %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/admin/products", gin.H{"name": "Table", "price": 100, "category": primitive.NewObjectID().Hex()}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/admin/products", gin.H{
		"name":       gin.H{"fr": "Table", "ar": "طاولة"},
		"price":      100,
		"promoPrice": 80,
		"stock":      4,
	}, api.adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	product := decodeBody(t, w)["product"].(map[string]any)
	id := product["id"].(string)
	if product["displayPrice"] != 80.0 || product["isActive"] != true {
		t.Fatalf("unexpected product: %v", product)
	}

	w = api.do(t, http.MethodPut, "/admin/products/"+id, gin.H{"promoEnabled": false}, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["product"].(map[string]any)["displayPrice"] != 100.0 {
		t.Fatalf("expected promo cleared: %s", w.Body.String())
	}

	w = api.do(t, http.MethodPatch, "/admin/products/"+id+"/stock", gin.H{"stock": 0}, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["product"].(map[string]any)["inStock"] != false {
		t.Fatalf("expected product out of stock: %s", w.Body.String())
	}
	w = api.do(t, http.MethodPatch, "/admin/products/"+id+"/stock", gin.H{"stock": -1}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative stock, got %d", w.Code)
	}

	if w := api.do(t, http.MethodDelete, "/admin/products/"+id, nil, api.adminToken); w.Code != http.StatusOK {
		t.Fatalf("expected delete to succeed, got %d", w.Code)
	}
	if w := api.do(t, http.MethodDelete, "/admin/products/"+id, nil, api.adminToken); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	if w := api.do(t, http.MethodGet, "/admin/products", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := api.do(t, http.MethodGet, "/admin/products", nil, api.userToken); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestCategoryCascadeDelete(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	create := func(body gin.H) string {
		w := api.do(t, http.MethodPost, "/admin/categories", body, api.adminToken)
		if w.Code != http.StatusCreated {
			t.Fatalf("create category: %d %s", w.Code, w.Body.String())
		}
		return decodeBody(t, w)["category"].(map[string]any)["id"].(string)
	}

	root := create(gin.H{"name": "Home"})
	sub := create(gin.H{"name": "Kitchen", "parent": root})

	w := api.do(t, http.MethodPost, "/admin/categories", gin.H{"name": "Deep", "parent": sub}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for third level, got %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/admin/categories", gin.H{"name": "kitchen", "parent": root}, api.adminToken)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate sibling name, got %d", w.Code)
	}

	w = api.do(t, http.MethodGet, "/categories", nil, "")
	tree := decodeBody(t, w)["categories"].([]any)
	if len(tree) != 1 || len(tree[0].(map[string]any)["subcategories"].([]any)) != 1 {
		t.Fatalf("unexpected tree: %s", w.Body.String())
	}

	subID, _ := primitive.ObjectIDFromHex(sub)
	rootID, _ := primitive.ObjectIDFromHex(root)
	p := &models.Product{Name: models.Text("Pan"), Price: 10, IsActive: true, Category: &subID}
	finalizeProduct(p, time.Now())
	if err := api.store.Products().Create(ctx, p); err != nil {
		t.Fatalf("create product: %v", err)
	}

	w = api.do(t, http.MethodGet, "/products?category="+root, nil, "")
	if decodeBody(t, w)["total"] != 1.0 {
		t.Fatalf("expected root filter to include subcategory products: %s", w.Body.String())
	}

	w = api.do(t, http.MethodDelete, "/admin/categories/"+sub, nil, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	stored, _ := api.store.Products().Get(ctx, p.ID)
	if stored.Category == nil || *stored.Category != rootID {
		t.Fatalf("expected product moved to parent, got %v", stored.Category)
	}

	create(gin.H{"name": "Garden", "parent": root})
	w = api.do(t, http.MethodDelete, "/admin/categories/"+root, nil, api.adminToken)
	body := decodeBody(t, w)
	if body["deletedCategories"] != 2.0 || body["reassignedProducts"] != 1.0 {
		t.Fatalf("unexpected cascade result: %v", body)
	}
	stored, _ = api.store.Products().Get(ctx, p.ID)
	if stored.Category != nil {
		t.Fatalf("expected product category unset, got %v", stored.Category)
	}

	if w := api.do(t, http.MethodDelete, "/admin/categories/"+root, nil, api.adminToken); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted category, got %d", w.Code)
	}
}

func TestPackPricingAndCheckout(t *testing.T) {
	api := newTestAPI(t)
	a := api.seedProduct(t, "Cup", 10, 10, true)
	b := api.seedProduct(t, "Saucer", 30, 10, true)

	w := api.do(t, http.MethodPost, "/admin/packs", gin.H{
		"name":               "Tea set",
		"products":           []gin.H{{"product": a.ID.Hex(), "quantity": 2}, {"product": b.ID.Hex(), "quantity": 1}},
		"discountPercentage": 10,
	}, api.adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	pack := decodeBody(t, w)["pack"].(map[string]any)
	if pack["originalPrice"] != 50.0 || pack["discountPrice"] != 45.0 {
		t.Fatalf("unexpected pack pricing: %v", pack)
	}

	w = api.do(t, http.MethodPost, "/admin/packs", gin.H{
		"name":          "Broken",
		"products":      []gin.H{{"product": a.ID.Hex(), "quantity": 1}},
		"discountPrice": 99,
	}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for discount above original, got %d", w.Code)
	}

	packID := pack["id"].(string)
	if w := api.do(t, http.MethodGet, "/packs/"+packID, nil, ""); w.Code != http.StatusOK {
		t.Fatalf("expected public pack, got %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/orders", gin.H{
		"items":     []gin.H{{"pack": packID, "quantity": 2}},
		"guestInfo": testGuest,
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["order"].(map[string]any)["subtotal"] != 90.0 {
		t.Fatalf("expected pack priced at discount: %s", w.Body.String())
	}
	if api.stockOf(t, a.ID) != 6 || api.stockOf(t, b.ID) != 8 {
		t.Fatalf("expected pack contents decremented")
	}

	w = api.do(t, http.MethodPut, "/admin/packs/"+packID, gin.H{"active": false}, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected update to succeed, got %d", w.Code)
	}
	if w := api.do(t, http.MethodGet, "/packs/"+packID, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected inactive pack to be hidden, got %d", w.Code)
	}
}

func TestUpdatePackClearsValidityWindow(t *testing.T) {
	api := newTestAPI(t)
	cup := api.seedProduct(t, "Cup", 10, 10, true)

	w := api.do(t, http.MethodPost, "/admin/packs", gin.H{
		"name":               "Expired set",
		"products":           []gin.H{{"product": cup.ID.Hex(), "quantity": 2}},
		"discountPercentage": 10,
		"startDate":          time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339),
		"endDate":            time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339),
	}, api.adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	packID := decodeBody(t, w)["pack"].(map[string]any)["id"].(string)

	if w := api.do(t, http.MethodGet, "/packs/"+packID, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected expired pack to be hidden, got %d", w.Code)
	}

	w = api.do(t, http.MethodPut, "/admin/packs/"+packID, gin.H{"clearEndDate": true}, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	pack := decodeBody(t, w)["pack"].(map[string]any)
	if _, ok := pack["endDate"]; ok {
		t.Fatalf("expected endDate to be cleared: %v", pack)
	}
	if _, ok := pack["startDate"]; !ok {
		t.Fatalf("expected startDate to be kept: %v", pack)
	}
	if w := api.do(t, http.MethodGet, "/packs/"+packID, nil, ""); w.Code != http.StatusOK {
		t.Fatalf("expected pack to be visible again, got %d", w.Code)
	}

	w = api.do(t, http.MethodPut, "/admin/packs/"+packID, gin.H{"clearStartDate": true}, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := decodeBody(t, w)["pack"].(map[string]any)["startDate"]; ok {
		t.Fatalf("expected startDate to be cleared: %s", w.Body.String())
	}
}

func TestVariantProductWithoutBasePrice(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/admin/products", gin.H{
		"name":              "Shirt",
		"hasVariants":       true,
		"variantAttributes": []gin.H{{"name": "Size", "values": []string{"M", "L"}}},
		"variants": []gin.H{
			{"attributes": gin.H{"Size": "M"}, "price": 25, "stock": 3},
			{"attributes": gin.H{"Size": "L"}, "price": 28, "stock": 1},
		},
	}, api.adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	product := decodeBody(t, w)["product"].(map[string]any)
	if product["displayPrice"] != 25.0 {
		t.Fatalf("expected from-price of 25, got %v", product["displayPrice"])
	}
	id := product["id"].(string)

	w = api.do(t, http.MethodPost, "/admin/products", gin.H{
		"name":              "Socks",
		"hasVariants":       true,
		"variantAttributes": []gin.H{{"name": "Size", "values": []string{"M"}}},
		"variants":          []gin.H{{"attributes": gin.H{"Size": "M"}, "stock": 3}},
	}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when neither product nor variant is priced, got %d", w.Code)
	}

	w = api.do(t, http.MethodPut, "/admin/products/"+id, gin.H{"featured": true}, api.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected update of an unpriced variant product to succeed, got %d: %s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodPost, "/orders", gin.H{
		"items":     []gin.H{{"product": id, "variant": gin.H{"Size": "M"}, "quantity": 2}},
		"guestInfo": testGuest,
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if subtotal := decodeBody(t, w)["order"].(map[string]any)["subtotal"]; subtotal != 50.0 {
		t.Fatalf("expected subtotal 50, got %v", subtotal)
	}

	oid, _ := primitive.ObjectIDFromHex(id)
	stored, err := api.store.Products().Get(context.Background(), oid)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	v, ok := stored.FindVariant(map[string]string{"Size": "M"})
	if !ok || v.Stock != 1 {
		t.Fatalf("expected variant stock 1 after checkout, got %+v", v)
	}
}

func TestQuoteCartReportsWarnings(t *testing.T) {
	api := newTestAPI(t)
	p := api.seedProduct(t, "Sofa", 300, 1, true)

	w := api.do(t, http.MethodPost, "/cart/quote", gin.H{"items": []gin.H{{"product": p.ID.Hex(), "quantity": 2}}}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	quote := decodeBody(t, w)["quote"].(map[string]any)
	if quote["subtotal"] != 600.0 || quote["shippingCost"] != 0.0 || quote["totalItems"] != 2.0 {
		t.Fatalf("unexpected quote: %v", quote)
	}
	if len(quote["warnings"].([]any)) != 1 {
		t.Fatalf("expected one stock warning: %v", quote)
	}
	if got := api.stockOf(t, p.ID); got != 1 {
		t.Fatalf("quote must not reserve stock, got %d", got)
	}
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/auth/register", gin.H{"name": "Nadia", "email": "Nadia@Example.com", "password": "secret123"}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	cookies := map[string]bool{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c.HttpOnly
	}
	if !cookies[middleware.AccessCookie] || !cookies[middleware.RefreshCookie] {
		t.Fatalf("expected httpOnly auth cookies, got %v", cookies)
	}
	user := decodeBody(t, w)["user"].(map[string]any)
	if user["email"] != "nadia@example.com" || user["passwordHash"] != nil {
		t.Fatalf("unexpected user payload: %v", user)
	}

	w = api.do(t, http.MethodPost, "/auth/register", gin.H{"name": "N", "email": "nadia@example.com", "password": "secret123"}, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/auth/register", gin.H{"name": "N", "email": "x@example.com", "password": "short"}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/auth/login", gin.H{"email": "nadia@example.com", "password": "wrong-pass"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/auth/login", gin.H{"email": "NADIA@example.com", "password": "secret123"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	tokens := decodeBody(t, w)["tokens"].(map[string]any)
	access, refresh := tokens["accessToken"].(string), tokens["refreshToken"].(string)

	w = api.do(t, http.MethodGet, "/auth/me", nil, access)
	if w.Code != http.StatusOK || decodeBody(t, w)["user"].(map[string]any)["name"] != "Nadia" {
		t.Fatalf("unexpected /auth/me: %d %s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": refresh}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected rotation, got %d: %s", w.Code, w.Body.String())
	}
	rotated := decodeBody(t, w)["tokens"].(map[string]any)["refreshToken"].(string)
	if w := api.do(t, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": refresh}, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected reused token to be rejected, got %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/auth/logout", gin.H{"refreshToken": rotated}, "")
	if w.Code != http.StatusOK || decodeBody(t, w)["revoked"] != true {
		t.Fatalf("expected logout to revoke: %s", w.Body.String())
	}
	if w := api.do(t, http.MethodPost, "/auth/logout", nil, ""); w.Code != http.StatusOK {
		t.Fatalf("expected idempotent logout, got %d", w.Code)
	}
	if w := api.do(t, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": rotated}, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", w.Code)
	}
}

func TestAdminUserManagement(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/admin/users", nil, api.adminToken)
	if w.Code != http.StatusOK || decodeBody(t, w)["count"] != 2.0 {
		t.Fatalf("expected two users: %s", w.Body.String())
	}

	w = api.do(t, http.MethodPut, "/admin/users/"+api.adminID.Hex()+"/role", gin.H{"role": "user"}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected self demotion to fail, got %d", w.Code)
	}
	w = api.do(t, http.MethodPut, "/admin/users/"+api.userID.Hex()+"/role", gin.H{"role": "owner"}, api.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", w.Code)
	}
	w = api.do(t, http.MethodPut, "/admin/users/"+api.userID.Hex()+"/role", gin.H{"role": "admin"}, api.adminToken)
	if w.Code != http.StatusOK || decodeBody(t, w)["user"].(map[string]any)["role"] != "admin" {
		t.Fatalf("expected promotion: %d %s", w.Code, w.Body.String())
	}

	if w := api.do(t, http.MethodDelete, "/admin/users/"+api.adminID.Hex(), nil, api.adminToken); w.Code != http.StatusBadRequest {
		t.Fatalf("expected self delete to fail, got %d", w.Code)
	}
	if w := api.do(t, http.MethodDelete, "/admin/users/"+api.userID.Hex(), nil, api.adminToken); w.Code != http.StatusOK {
		t.Fatalf("expected delete to succeed, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK || decodeBody(t, w)["status"] != "ok" {
		t.Fatalf("unexpected health: %d %s", w.Code, w.Body.String())
	}
}

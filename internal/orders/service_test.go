package orders

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/repository/memstore"
)

var testShipping = pricing.ShippingRule{FreeThreshold: 500, FlatFee: 30}

func newTestService() (*Service, *memstore.Store) {
	store := memstore.New()
	return NewService(store, testShipping, nil), store
}

func createProduct(t *testing.T, store *memstore.Store, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:      models.Text("Product"),
		Price:     price,
		Stock:     stock,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := store.Products().Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func productLine(id primitive.ObjectID, qty int) LineInput {
	return LineInput{Product: &id, Quantity: qty}
}

func stockOf(t *testing.T, store *memstore.Store, id primitive.ObjectID) int {
	t.Helper()
	p, err := store.Products().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return p.Stock
}

func guest() *models.GuestInfo {
	return &models.GuestInfo{Name: "Guest", Email: "g@example.com", Phone: "0600", Address: "1 rue"}
}

func TestPlaceDecrementsStockAndPrices(t *testing.T) {
	svc, store := newTestService()
	p1 := createProduct(t, store, 10, 5)

	order, err := svc.Place(context.Background(), PlaceOrderInput{
		GuestInfo: guest(),
		Items:     []LineInput{productLine(p1.ID, 3)},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.Subtotal != 30 || order.ShippingCost != 30 || order.Total != 60 {
		t.Fatalf("unexpected totals: %+v", order)
	}
	if order.Status != models.OrderStatusPending || order.GuestInfo == nil {
		t.Fatalf("expected pending guest order, got %+v", order)
	}
	if got := stockOf(t, store, p1.ID); got != 2 {
		t.Fatalf("expected stock 2, got %d", got)
	}
}

func TestPlaceRejectsOversellWithoutPartialDecrement(t *testing.T) {
	svc, store := newTestService()
	p1 := createProduct(t, store, 10, 5)
	p2 := createProduct(t, store, 20, 1)

	_, err := svc.Place(context.Background(), PlaceOrderInput{
		GuestInfo: guest(),
		Items:     []LineInput{productLine(p1.ID, 2), productLine(p2.ID, 2)},
	})
	var stockErr OutOfStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected out of stock error, got %v", err)
	}
	if stockErr.ProductID != p2.ID || stockErr.Available != 1 || stockErr.Requested != 2 {
		t.Fatalf("unexpected error detail: %+v", stockErr)
	}
	if got := stockOf(t, store, p1.ID); got != 5 {
		t.Fatalf("expected earlier line to be rolled back, stock %d", got)
	}
	if got := stockOf(t, store, p2.ID); got != 1 {
		t.Fatalf("expected stock unchanged, got %d", got)
	}
	orders, _ := store.Orders().List(context.Background(), repository.OrderFilter{})
	if len(orders) != 0 {
		t.Fatalf("expected no order persisted, got %d", len(orders))
	}
}

func TestPlaceConcurrentCheckoutsNeverOversell(t *testing.T) {
	const (
		stock  = 5
		buyers = 30
	)
	svc, store := newTestService()
	p := createProduct(t, store, 10, stock)

	var (
		wg         sync.WaitGroup
		succeeded  atomic.Int32
		rejected   atomic.Int32
		start      = make(chan struct{})
		unexpected = make(chan error, buyers)
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Place(context.Background(), PlaceOrderInput{
				GuestInfo: guest(),
				Items:     []LineInput{productLine(p.ID, 1)},
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.As(err, new(OutOfStockError)):
				rejected.Add(1)
			default:
				unexpected <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(unexpected)

	for err := range unexpected {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := succeeded.Load(); got != stock {
		t.Fatalf("expected exactly %d orders, got %d", stock, got)
	}
	if got := rejected.Load(); got != buyers-stock {
		t.Fatalf("expected %d out of stock rejections, got %d", buyers-stock, got)
	}
	if got := stockOf(t, store, p.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
	orders, err := store.Orders().List(context.Background(), repository.OrderFilter{})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != stock {
		t.Fatalf("expected %d stored orders, got %d", stock, len(orders))
	}
}

func TestPlaceDuplicateLinesShareStock(t *testing.T) {
	svc, store := newTestService()
	p := createProduct(t, store, 10, 3)

	_, err := svc.Place(context.Background(), PlaceOrderInput{
		GuestInfo: guest(),
		Items:     []LineInput{productLine(p.ID, 2), productLine(p.ID, 2)},
	})
	if !errors.As(err, new(OutOfStockError)) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if got := stockOf(t, store, p.ID); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}
}

func TestPlaceUnknownOrInactiveProduct(t *testing.T) {
	svc, store := newTestService()
	inactive := createProduct(t, store, 10, 5)
	inactive.IsActive = false
	if err := store.Products().Replace(context.Background(), inactive); err != nil {
		t.Fatalf("replace: %v", err)
	}

	for _, id := range []primitive.ObjectID{primitive.NewObjectID(), inactive.ID} {
		_, err := svc.Place(context.Background(), PlaceOrderInput{
			GuestInfo: guest(),
			Items:     []LineInput{productLine(id, 1)},
		})
		var notFound ProductNotFoundError
		if !errors.As(err, &notFound) || notFound.ProductID != id {
			t.Fatalf("expected product not found for %s, got %v", id.Hex(), err)
		}
	}
}

func TestPlaceValidation(t *testing.T) {
	svc, store := newTestService()
	p := createProduct(t, store, 10, 5)
	packID := primitive.NewObjectID()

	cases := []PlaceOrderInput{
		{GuestInfo: guest()},
		{GuestInfo: guest(), Items: []LineInput{productLine(p.ID, 0)}},
		{GuestInfo: guest(), Items: []LineInput{{Product: &p.ID, Pack: &packID, Quantity: 1}}},
		{Items: []LineInput{productLine(p.ID, 1)}},
	}
	for i, in := range cases {
		if _, err := svc.Place(context.Background(), in); !errors.As(err, new(ValidationError)) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestPlaceUserOrderDropsGuestInfo(t *testing.T) {
	svc, store := newTestService()
	p := createProduct(t, store, 300, 5)
	userID := primitive.NewObjectID()

	order, err := svc.Place(context.Background(), PlaceOrderInput{
		User:      &userID,
		GuestInfo: guest(),
		Items:     []LineInput{productLine(p.ID, 2)},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.GuestInfo != nil || order.User == nil || *order.User != userID {
		t.Fatalf("expected order attributed to user only, got %+v", order)
	}
	if order.ShippingCost != 0 || order.Total != 600 {
		t.Fatalf("expected free shipping over threshold, got %+v", order)
	}
}

func TestPlaceVariantLine(t *testing.T) {
	svc, store := newTestService()
	promo := 15.0
	p := &models.Product{
		Name:        models.Text("Shirt"),
		Price:       25,
		IsActive:    true,
		HasVariants: true,
		Variants: []models.Variant{
			{Attributes: map[string]string{"Color": "Red", "Size": "M"}, Price: 20, PromoPrice: &promo, Stock: 2},
			{Attributes: map[string]string{"Color": "Blue", "Size": "M"}, Stock: 4},
		},
	}
	if err := store.Products().Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	order, err := svc.Place(context.Background(), PlaceOrderInput{
		GuestInfo: guest(),
		Items: []LineInput{
			{Product: &p.ID, Variant: map[string]string{"Size": "M", "Color": "Red"}, Quantity: 2},
			{Product: &p.ID, VariantID: &p.Variants[1].ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.Items[0].Price != 15 || order.Items[1].Price != 25 {
		t.Fatalf("unexpected variant prices: %+v", order.Items)
	}
	if order.Subtotal != 55 {
		t.Fatalf("expected subtotal 55, got %v", order.Subtotal)
	}

	stored, _ := store.Products().Get(context.Background(), p.ID)
	if stored.Variants[0].Stock != 0 || stored.Variants[1].Stock != 3 {
		t.Fatalf("unexpected variant stock: %+v", stored.Variants)
	}

	_, err = svc.Place(context.Background(), PlaceOrderInput{
		GuestInfo: guest(),
		Items:     []LineInput{productLine(p.ID, 1)},
	})
	if !errors.As(err, new(ValidationError)) {
		t.Fatalf("expected missing variant to be rejected, got %v", err)
	}
}

func TestPlacePackLine(t *testing.T) {
	svc, store := newTestService()
	a := createProduct(t, store, 30, 10)
	b := createProduct(t, store, 40, 1)
	pack := &models.Pack{
		Name: models.Text("Duo"),
		Products: []models.PackItem{
			{Product: a.ID, UnitPrice: 30, Quantity: 2},
			{Product: b.ID, UnitPrice: 40, Quantity: 1},
		},
		OriginalPrice: 100,
		DiscountPrice: 80,
		Active:        true,
	}
	if err := store.Packs().Create(context.Background(), pack); err != nil {
		t.Fatalf("create pack: %v", err)
	}

	order, err := svc.Place(context.Background(), PlaceOrderInput{
		GuestInfo: guest(),
		Items:     []LineInput{{Pack: &pack.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.Subtotal != 80 || order.Items[0].Pack == nil {
		t.Fatalf("expected pack priced at discount, got %+v", order)
	}
	if stockOf(t, store, a.ID) != 8 || stockOf(t, store, b.ID) != 0 {
		t.Fatalf("expected pack contents to be decremented")
	}

	_, err = svc.Place(context.Background(), PlaceOrderInput{
		GuestInfo: guest(),
		Items:     []LineInput{{Pack: &pack.ID, Quantity: 1}},
	})
	if !errors.As(err, new(OutOfStockError)) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if got := stockOf(t, store, a.ID); got != 8 {
		t.Fatalf("expected rollback of first pack product, stock %d", got)
	}
}

func TestPlaceUnavailablePack(t *testing.T) {
	svc, store := newTestService()
	past := time.Now().Add(-time.Hour)
	pack := &models.Pack{Name: models.Text("Old"), Active: true, EndDate: &past, DiscountPrice: 10}
	if err := store.Packs().Create(context.Background(), pack); err != nil {
		t.Fatalf("create pack: %v", err)
	}
	_, err := svc.Place(context.Background(), PlaceOrderInput{
		GuestInfo: guest(),
		Items:     []LineInput{{Pack: &pack.ID, Quantity: 1}},
	})
	if !errors.As(err, new(PackNotFoundError)) {
		t.Fatalf("expected pack not found, got %v", err)
	}
}

func TestComputeTotalsIsDeterministic(t *testing.T) {
	items := []models.OrderItem{
		{Price: 19.99, Quantity: 3},
		{Price: 0.1, Quantity: 7},
	}
	first := ComputeTotals(items, testShipping)
	for i := 0; i < 10; i++ {
		if again := ComputeTotals(items, testShipping); again != first {
			t.Fatalf("expected identical totals, got %+v and %+v", first, again)
		}
	}
	if first.Subtotal != 60.67 || first.Total != 90.67 {
		t.Fatalf("unexpected totals: %+v", first)
	}
}

func TestQuoteReportsWarningsWithoutReserving(t *testing.T) {
	svc, store := newTestService()
	p := createProduct(t, store, 20, 1)

	quote, err := svc.Quote(context.Background(), []LineInput{productLine(p.ID, 2)})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Subtotal != 40 || quote.TotalItems != 2 || quote.Lines[0].LineTotal != 40 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if len(quote.Warnings) != 1 || quote.Warnings[0].Available != 1 {
		t.Fatalf("expected stock warning, got %+v", quote.Warnings)
	}
	if got := stockOf(t, store, p.ID); got != 1 {
		t.Fatalf("quote must not reserve stock, got %d", got)
	}
}

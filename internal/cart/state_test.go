package cart

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/clientstate"
	"storefront/internal/models"
)

func product(price float64, promo *float64) models.Product {
	return models.Product{ID: primitive.NewObjectID(), Name: models.Text("Mug"), Price: price, PromoPrice: promo, Stock: 3}
}

func variant(price float64, attrs map[string]string) *models.Variant {
	return &models.Variant{ID: primitive.NewObjectID(), Attributes: attrs, Price: price, Stock: 5}
}

func TestAddProductMergesSameVariant(t *testing.T) {
	p := product(20, nil)
	red := variant(20, map[string]string{"Color": "Red", "Size": "M"})
	sameRed := &models.Variant{Attributes: map[string]string{"Size": "M", "Color": "Red"}, Price: 20}

	for _, qty := range []int{1, 2, 7} {
		s := AddProduct(State{}, p, qty, red)
		s = AddProduct(s, p, 3, sameRed)
		if len(s.Items) != 1 {
			t.Fatalf("expected one merged line, got %d", len(s.Items))
		}
		if s.Items[0].Quantity != qty+3 {
			t.Fatalf("expected quantity %d, got %d", qty+3, s.Items[0].Quantity)
		}
	}
}

func TestAddProductKeepsDistinctVariantsApart(t *testing.T) {
	p := product(20, nil)
	s := AddProduct(State{}, p, 1, variant(20, map[string]string{"Color": "Red"}))
	s = AddProduct(s, p, 1, variant(20, map[string]string{"Color": "Blue"}))
	s = AddProduct(s, p, 1, variant(20, map[string]string{"Color": "Red", "Size": "L"}))
	s = AddProduct(s, p, 1, nil)
	if len(s.Items) != 4 {
		t.Fatalf("expected four lines, got %d", len(s.Items))
	}

	s = AddProduct(s, p, 2, nil)
	if len(s.Items) != 4 || s.Items[3].Quantity != 3 {
		t.Fatalf("expected variant-less line to merge only with itself: %+v", s.Items)
	}
}

func TestAddIgnoresNonPositiveQuantity(t *testing.T) {
	s := AddProduct(State{}, product(10, nil), 0, nil)
	if len(s.Items) != 0 {
		t.Fatal("expected no line for zero quantity")
	}
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	p := product(10, nil)
	before := AddProduct(State{}, p, 1, nil)
	after := UpdateQuantity(before, p.ID.Hex(), 5, ItemProduct)
	if before.Items[0].Quantity != 1 {
		t.Fatalf("expected input state untouched, got %d", before.Items[0].Quantity)
	}
	if after.Items[0].Quantity != 5 {
		t.Fatalf("expected updated quantity, got %d", after.Items[0].Quantity)
	}
}

func TestTotalPriceProductsAndPacks(t *testing.T) {
	p := product(20, nil)
	pk := models.Pack{ID: primitive.NewObjectID(), OriginalPrice: 70, DiscountPrice: 50}

	s := AddProduct(State{}, p, 2, nil)
	s = AddPack(s, pk, 1)

	if got := s.TotalPrice(); got != 90 {
		t.Fatalf("expected 90, got %v", got)
	}
	if got := s.TotalItems(); got != 3 {
		t.Fatalf("expected 3 items, got %d", got)
	}
}

func TestTotalPriceUsesPromoAndVariantPrices(t *testing.T) {
	promo := 8.5
	p := product(10, &promo)
	vp := 12.0
	withVariant := product(99, nil)
	v := variant(15, map[string]string{"Size": "S"})
	v.PromoPrice = &vp

	s := AddProduct(State{}, p, 2, nil)
	s = AddProduct(s, withVariant, 1, v)
	if got := s.TotalPrice(); got != 29 {
		t.Fatalf("expected 8.5*2 + 12 = 29, got %v", got)
	}
}

func TestAddProductSnapshotsPricesAndVariants(t *testing.T) {
	promo := 8.0
	p := product(10, &promo)
	p.HasVariants = true
	p.Variants = []models.Variant{*variant(15, map[string]string{"Size": "S"})}
	vp := 12.0
	v := variant(15, map[string]string{"Size": "M"})
	v.PromoPrice = &vp

	s := AddProduct(State{}, p, 1, nil)
	s = AddProduct(s, p, 1, v)
	before := s.TotalPrice()

	promo = 1
	vp = 1
	v.Attributes["Size"] = "XL"
	p.Variants[0].Attributes["Size"] = "XL"

	if got := s.TotalPrice(); got != before {
		t.Fatalf("expected total %v to survive caller edits, got %v", before, got)
	}
	if got := s.Items[1].SelectedVariant.Attributes["Size"]; got != "M" {
		t.Fatalf("expected selected variant attributes to be copied, got %q", got)
	}
	if got := s.Items[0].Product.Variants[0].Attributes["Size"]; got != "S" {
		t.Fatalf("expected product variants to be copied, got %q", got)
	}
}

func TestUpdateQuantityDoesNotClampToStock(t *testing.T) {
	p := product(10, nil)
	s := AddProduct(State{}, p, 1, nil)
	s = UpdateQuantity(s, p.ID.Hex(), 500, ItemProduct)
	if s.Items[0].Quantity != 500 {
		t.Fatalf("expected store to accept quantity above stock, got %d", s.Items[0].Quantity)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	p := product(10, nil)
	s := AddProduct(State{}, p, 2, nil)
	s = UpdateQuantity(s, p.ID.Hex(), 0, ItemProduct)
	if len(s.Items) != 0 {
		t.Fatalf("expected removal, got %+v", s.Items)
	}
}

func TestRemoveByLineIDAndDiscriminator(t *testing.T) {
	p := product(10, nil)
	red := variant(10, map[string]string{"Color": "Red"})
	blue := variant(10, map[string]string{"Color": "Blue"})
	pk := models.Pack{ID: p.ID, DiscountPrice: 5}

	s := AddProduct(State{}, p, 1, red)
	s = AddProduct(s, p, 1, blue)
	s = AddPack(s, pk, 1)

	redLine := s.Items[0].LineID()
	s = Remove(s, redLine, ItemProduct)
	if len(s.Items) != 2 || s.Items[0].SelectedVariant.Attributes["Color"] != "Blue" {
		t.Fatalf("expected only the red line removed, got %+v", s.Items)
	}

	s = Remove(s, p.ID.Hex(), ItemPack)
	if len(s.Items) != 1 || s.Items[0].Type != ItemProduct {
		t.Fatalf("expected pack with the same id removed only, got %+v", s.Items)
	}

	s = Remove(s, p.ID.Hex(), ItemProduct)
	if len(s.Items) != 0 {
		t.Fatalf("expected bare product id to remove remaining variant lines, got %+v", s.Items)
	}
}

func TestAddPackSnapshotsContents(t *testing.T) {
	pk := models.Pack{
		ID:            primitive.NewObjectID(),
		DiscountPrice: 30,
		Products:      []models.PackItem{{Product: primitive.NewObjectID(), Quantity: 2}},
	}
	s := AddPack(State{}, pk, 1)
	pk.Products[0].Quantity = 99

	if s.Items[0].Pack.Products[0].Quantity != 2 {
		t.Fatal("expected pack contents to be copied by value")
	}

	s = AddPack(s, pk, 2)
	if len(s.Items) != 1 || s.Items[0].Quantity != 3 {
		t.Fatalf("expected pack merge by id, got %+v", s.Items)
	}
}

func TestStorePersistsEveryMutation(t *testing.T) {
	storage := clientstate.NewMemoryStorage()
	store, err := NewStore(storage, nil)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	p := product(20, nil)
	if err := store.AddToCart(p, 2, nil); err != nil {
		t.Fatalf("AddToCart returned error: %v", err)
	}

	reloaded, err := NewStore(storage, nil)
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if reloaded.GetTotalItems() != 2 || reloaded.GetTotalPrice() != 40 {
		t.Fatalf("expected persisted cart, got items=%d total=%v", reloaded.GetTotalItems(), reloaded.GetTotalPrice())
	}

	if err := reloaded.ClearCart(); err != nil {
		t.Fatalf("ClearCart returned error: %v", err)
	}
	again, _ := NewStore(storage, nil)
	if len(again.Items()) != 0 {
		t.Fatal("expected cleared cart to persist")
	}
}

func TestStoreInstancesAreIsolated(t *testing.T) {
	a, _ := NewStore(nil, nil)
	b, _ := NewStore(nil, nil)
	_ = a.AddToCart(product(5, nil), 1, nil)
	if b.GetTotalItems() != 0 {
		t.Fatal("expected independent cart instances")
	}
}

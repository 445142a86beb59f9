// Package cart holds the shopping cart as an explicit state container.
// Transitions are pure functions over State; Store adds locking and
// persistence on top.
package cart

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/pricing"
)

type ItemType string

const (
	ItemProduct ItemType = "product"
	ItemPack    ItemType = "pack"
)

type Item struct {
	Type            ItemType        `json:"type"`
	Product         *models.Product `json:"product,omitempty"`
	SelectedVariant *models.Variant `json:"selectedVariant,omitempty"`
	Pack            *models.Pack    `json:"pack,omitempty"`
	Quantity        int             `json:"quantity"`
}

// ID is the product or pack id.
func (i Item) ID() string {
	switch i.Type {
	case ItemPack:
		if i.Pack != nil {
			return i.Pack.ID.Hex()
		}
	case ItemProduct:
		if i.Product != nil {
			return i.Product.ID.Hex()
		}
	}
	return ""
}

// LineID addresses one cart line: the bare id for packs and variant-less
// products, id?attr=value&... for variant lines.
func (i Item) LineID() string {
	id := i.ID()
	if i.Type == ItemProduct && i.SelectedVariant != nil {
		if key := i.SelectedVariant.Key(); key != "" {
			return id + "?" + key
		}
	}
	return id
}

func (i Item) UnitPrice() float64 {
	switch i.Type {
	case ItemPack:
		if i.Pack != nil {
			return pricing.ForPack(*i.Pack).DisplayPrice
		}
	case ItemProduct:
		if i.Product != nil {
			return pricing.UnitPrice(*i.Product, i.SelectedVariant)
		}
	}
	return 0
}

func (i Item) LineTotal() decimal.Decimal {
	return pricing.LineTotal(i.UnitPrice(), i.Quantity)
}

type State struct {
	Items []Item `json:"items"`
}

func (s State) clone() State {
	items := make([]Item, len(s.Items))
	copy(items, s.Items)
	return State{Items: items}
}

func variantAttributes(v *models.Variant) map[string]string {
	if v == nil {
		return nil
	}
	return v.Attributes
}

func sameVariant(a, b *models.Variant) bool {
	return models.SameAttributes(variantAttributes(a), variantAttributes(b))
}

func snapshotProduct(p models.Product) *models.Product {
	p.PromoPrice = copyPrice(p.PromoPrice)
	p.Images = append([]string(nil), p.Images...)
	if p.Variants != nil {
		variants := make([]models.Variant, len(p.Variants))
		for i := range p.Variants {
			variants[i] = *snapshotVariant(&p.Variants[i])
		}
		p.Variants = variants
	}
	if p.VariantAttributes != nil {
		attrs := make([]models.VariantAttribute, len(p.VariantAttributes))
		for i, a := range p.VariantAttributes {
			attrs[i] = models.VariantAttribute{Name: a.Name, Values: append([]string(nil), a.Values...)}
		}
		p.VariantAttributes = attrs
	}
	return &p
}

func snapshotVariant(v *models.Variant) *models.Variant {
	if v == nil {
		return nil
	}
	out := *v
	out.PromoPrice = copyPrice(v.PromoPrice)
	if v.Attributes != nil {
		out.Attributes = make(map[string]string, len(v.Attributes))
		for k, val := range v.Attributes {
			out.Attributes[k] = val
		}
	}
	return &out
}

func copyPrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// AddProduct merges into the line with the same product id and the same
// variant attribute set, or appends a new line. Non-positive quantities are
// ignored.
func AddProduct(s State, p models.Product, quantity int, variant *models.Variant) State {
	if quantity <= 0 {
		return s
	}
	next := s.clone()
	for i, item := range next.Items {
		if item.Type != ItemProduct || item.Product == nil || item.Product.ID != p.ID {
			continue
		}
		if sameVariant(item.SelectedVariant, variant) {
			next.Items[i].Quantity += quantity
			return next
		}
	}
	next.Items = append(next.Items, Item{
		Type:            ItemProduct,
		Product:         snapshotProduct(p),
		SelectedVariant: snapshotVariant(variant),
		Quantity:        quantity,
	})
	return next
}

// AddPack merges by pack id. The pack contents are copied so later edits to
// the caller's pack do not leak into the cart.
func AddPack(s State, pk models.Pack, quantity int) State {
	if quantity <= 0 {
		return s
	}
	next := s.clone()
	for i, item := range next.Items {
		if item.Type == ItemPack && item.Pack != nil && item.Pack.ID == pk.ID {
			next.Items[i].Quantity += quantity
			return next
		}
	}
	snapshot := pk.Clone()
	next.Items = append(next.Items, Item{Type: ItemPack, Pack: &snapshot, Quantity: quantity})
	return next
}

// matcher resolves id against line ids first, then against bare product or
// pack ids when no line id matches.
func matcher(s State, id string, t ItemType) func(Item) bool {
	for _, item := range s.Items {
		if item.Type == t && item.LineID() == id {
			return func(it Item) bool { return it.Type == t && it.LineID() == id }
		}
	}
	return func(it Item) bool { return it.Type == t && it.ID() == id }
}

func Remove(s State, id string, t ItemType) State {
	match := matcher(s, id, t)
	next := State{Items: make([]Item, 0, len(s.Items))}
	for _, item := range s.Items {
		if !match(item) {
			next.Items = append(next.Items, item)
		}
	}
	return next
}

// UpdateQuantity replaces the quantity in place; quantity <= 0 removes the
// line. Stock ceilings are the caller's concern.
func UpdateQuantity(s State, id string, quantity int, t ItemType) State {
	if quantity <= 0 {
		return Remove(s, id, t)
	}
	match := matcher(s, id, t)
	next := s.clone()
	for i, item := range next.Items {
		if match(item) {
			next.Items[i].Quantity = quantity
		}
	}
	return next
}

func Clear() State {
	return State{Items: []Item{}}
}

func (s State) TotalItems() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

func (s State) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (s State) TotalPrice() float64 {
	return pricing.Round(s.Subtotal().InexactFloat64())
}

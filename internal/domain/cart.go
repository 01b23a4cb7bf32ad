package domain

import (
	"math"
	"time"
)

// Cart holds the storefront's authoritative view of a session's cart.
// The total is always derived from the lines, never stored on its own.
type Cart struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	Promo     *Promo     `json:"promo,omitempty"`
	Currency  string     `json:"currency"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is a single cart line. Identity is per line: the same product
// with a different variant is a different line.
type CartItem struct {
	ID        string `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

// LineTotal recomputes the line's amount from unit price and quantity.
func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Subtotal is the sum of all line totals before any promo discount.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// TotalAmount is the payable amount: subtotal minus the promo discount.
func (c *Cart) TotalAmount() int64 {
	return c.Subtotal() - c.Discount()
}

// Discount computes the applied promo discount, clamped to [0, subtotal].
func (c *Cart) Discount() int64 {
	if c.Promo == nil {
		return 0
	}
	return c.Promo.DiscountOn(c.Subtotal())
}

// ItemCount returns the total number of units across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItem returns the index of the line matching the given product and
// variant, or -1 when absent.
func (c *Cart) FindItem(productID int64, variantID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

// FindLine returns the index of the line with the given line ID, or -1.
func (c *Cart) FindLine(lineID string) int {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			return i
		}
	}
	return -1
}

// PromoKind is the closed set of promo discount kinds.
type PromoKind string

const (
	PromoPercent PromoKind = "percent"
	PromoFixed   PromoKind = "fixed"
)

// Promo is a discount code applied against the cart's pre-discount subtotal.
type Promo struct {
	Code  string    `json:"code"`
	Kind  PromoKind `json:"kind"`
	Value int64     `json:"value"`
}

// DiscountOn computes the discount against the given subtotal. The result
// never exceeds the subtotal and never goes below zero.
func (p Promo) DiscountOn(subtotal int64) int64 {
	var discount int64
	switch p.Kind {
	case PromoPercent:
		if subtotal > 0 && p.Value > math.MaxInt64/subtotal {
			// The product would overflow; any percentage that large
			// clamps to the subtotal anyway.
			discount = subtotal
		} else {
			discount = subtotal * p.Value / 100
		}
	case PromoFixed:
		discount = p.Value
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

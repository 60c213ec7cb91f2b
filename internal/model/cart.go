package model

import (
	"math"
	"time"
)

const (
	// CartItemMinQuantity and CartItemMaxQuantity bound a single cart line.
	CartItemMinQuantity = 1
	CartItemMaxQuantity = 999

	// GuestCartTTL is how long an anonymous cart lives before the cleanup
	// sweep may reclaim it.
	GuestCartTTL = 30 * 24 * time.Hour
)

// Cart is the mutable pre-order basket. Owned by exactly one of UserID or
// GuestID. Monetary aggregates are derived from the child items and are only
// written through Recalculate.
type Cart struct {
	BaseModel
	UserID         *string    `db:"user_id" json:"user_id"`
	GuestID        *string    `db:"guest_id" json:"guest_id"`
	Subtotal       float64    `db:"subtotal" json:"subtotal"`
	TaxAmount      float64    `db:"tax_amount" json:"tax_amount"`
	ShippingAmount float64    `db:"shipping_amount" json:"shipping_amount"`
	DiscountAmount float64    `db:"discount_amount" json:"discount_amount"`
	CouponDiscount float64    `db:"coupon_discount" json:"coupon_discount"`
	CouponCode     *string    `db:"coupon_code" json:"coupon_code"`
	Total          float64    `db:"total" json:"total"`
	ItemCount      int        `db:"item_count" json:"item_count"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	ExpiresAt      *time.Time `db:"expires_at" json:"expires_at"` // Guest carts only

	Items []CartItem `db:"-" json:"items,omitempty"`
}

// CartItem is one product line in a cart. Unique per (cart, product).
// PriceAtAdd freezes the unit price at the moment the line was created.
type CartItem struct {
	BaseModel
	CartID     string  `db:"cart_id" json:"cart_id"`
	ProductID  string  `db:"product_id" json:"product_id"`
	Quantity   int     `db:"quantity" json:"quantity"`
	PriceAtAdd float64 `db:"price_at_add" json:"price_at_add"`
	ItemTotal  float64 `db:"item_total" json:"item_total"`
	Options    *string `db:"options" json:"options"` // JSON, e.g. edition/region choices

	Product *Product `db:"-" json:"product,omitempty"` // Joined data
}

// IsGuest reports whether the cart belongs to an anonymous session.
func (c *Cart) IsGuest() bool {
	return c.GuestID != nil && *c.GuestID != ""
}

func (c *Cart) IsExpired() bool {
	return c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt)
}

// CanBeOrdered reports whether checkout may consume this cart.
func (c *Cart) CanBeOrdered() bool {
	return c.IsActive && !c.IsExpired() && c.ItemCount > 0 && len(c.Items) > 0
}

// Recalculate rederives subtotal, item count and total from the given items.
// total = max(0, subtotal + tax + shipping - discount - coupon). The caller
// persists the result; nothing recomputes implicitly.
func (c *Cart) Recalculate(items []CartItem) {
	var subtotal float64
	var count int
	for i := range items {
		subtotal += items[i].ItemTotal
		count += items[i].Quantity
	}
	c.Subtotal = round2(subtotal)
	c.ItemCount = count
	if count == 0 {
		c.TaxAmount = 0
		c.ShippingAmount = 0
		c.DiscountAmount = 0
		c.CouponDiscount = 0
	}
	c.Total = round2(math.Max(0,
		c.Subtotal+c.TaxAmount+c.ShippingAmount-c.DiscountAmount-c.CouponDiscount))
	c.Items = items
}

// SetQuantity updates the line quantity and rederives its total from the
// frozen unit price.
func (ci *CartItem) SetQuantity(qty int) {
	ci.Quantity = qty
	ci.ItemTotal = round2(ci.PriceAtAdd * float64(qty))
}

// HasPriceChanged reports catalog price drift since the line was added.
func (ci *CartItem) HasPriceChanged(livePrice float64) bool {
	return ci.PriceAtAdd != livePrice
}

// PriceDifference is livePrice - PriceAtAdd; positive when the catalog
// price has gone up since the item was added.
func (ci *CartItem) PriceDifference(livePrice float64) float64 {
	return round2(livePrice - ci.PriceAtAdd)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

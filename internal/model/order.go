package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// orderTransitions is the forward adjacency of the order state machine.
// cancelled is reachable from the first three states only; refunded is
// guarded separately on paymentStatus.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// Order is the immutable-after-creation snapshot of a completed purchase.
// Money fields follow the same reconciliation formula as Cart. Address
// fields hold JSON snapshots, not live references.
type Order struct {
	BaseModel
	OrderNumber    string        `db:"order_number" json:"order_number"`
	UserID         string        `db:"user_id" json:"user_id"`
	Status         OrderStatus   `db:"status" json:"status"`
	PaymentStatus  PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentMethod  *string       `db:"payment_method" json:"payment_method"`
	Subtotal       float64       `db:"subtotal" json:"subtotal"`
	TaxAmount      float64       `db:"tax_amount" json:"tax_amount"`
	ShippingAmount float64       `db:"shipping_amount" json:"shipping_amount"`
	DiscountAmount float64       `db:"discount_amount" json:"discount_amount"`
	CouponDiscount float64       `db:"coupon_discount" json:"coupon_discount"`
	CouponCode     *string       `db:"coupon_code" json:"coupon_code"`
	Total          float64       `db:"total" json:"total"`
	ItemCount      int           `db:"item_count" json:"item_count"`

	ShippingAddress string  `db:"shipping_address" json:"shipping_address"` // JSON snapshot
	BillingAddress  *string `db:"billing_address" json:"billing_address"`   // JSON snapshot

	RefundedAmount float64 `db:"refunded_amount" json:"refunded_amount"`
	CancelReason   *string `db:"cancel_reason" json:"cancel_reason"`

	ConfirmedAt *time.Time `db:"confirmed_at" json:"confirmed_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at"`
	ShippedAt   *time.Time `db:"shipped_at" json:"shipped_at"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at"`
	RefundedAt  *time.Time `db:"refunded_at" json:"refunded_at"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem is one purchased line. ProductSnapshot holds a JSON copy of the
// product at order time and is never rederived from the live catalog.
type OrderItem struct {
	BaseModel
	OrderID          string      `db:"order_id" json:"order_id"`
	ProductID        string      `db:"product_id" json:"product_id"`
	Quantity         int         `db:"quantity" json:"quantity"`
	UnitPrice        float64     `db:"unit_price" json:"unit_price"`
	ItemTotal        float64     `db:"item_total" json:"item_total"`
	ProductSnapshot  string      `db:"product_snapshot" json:"product_snapshot"`
	RefundedQuantity int         `db:"refunded_quantity" json:"refunded_quantity"`
	RefundedAmount   float64     `db:"refunded_amount" json:"refunded_amount"`
	Status           OrderStatus `db:"status" json:"status"`
}

// CanTransitionTo reports whether next is an adjacent forward state.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	for _, s := range orderTransitions[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order has reached a final state.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered ||
		o.Status == OrderStatusCancelled ||
		o.Status == OrderStatusRefunded
}

// CanBeCancelled: cancellation is only permitted before shipping.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending ||
		o.Status == OrderStatusConfirmed ||
		o.Status == OrderStatusProcessing
}

// StampStatus sets the timestamp field for the given status exactly once.
// Re-entering an already-stamped status keeps the original timestamp.
func (o *Order) StampStatus(status OrderStatus, at time.Time) {
	stamp := func(field **time.Time) {
		if *field == nil {
			t := at
			*field = &t
		}
	}
	switch status {
	case OrderStatusConfirmed:
		stamp(&o.ConfirmedAt)
	case OrderStatusProcessing:
		stamp(&o.ProcessedAt)
	case OrderStatusShipped:
		stamp(&o.ShippedAt)
	case OrderStatusDelivered:
		stamp(&o.DeliveredAt)
	case OrderStatusCancelled:
		stamp(&o.CancelledAt)
	case OrderStatusRefunded:
		stamp(&o.RefundedAt)
	}
}

// Recalculate rederives the money aggregates from the given items, using the
// same formula as Cart.Recalculate.
func (o *Order) Recalculate(items []OrderItem) {
	var subtotal float64
	var count int
	for i := range items {
		subtotal += items[i].ItemTotal
		count += items[i].Quantity
	}
	o.Subtotal = round2(subtotal)
	o.ItemCount = count
	total := o.Subtotal + o.TaxAmount + o.ShippingAmount - o.DiscountAmount - o.CouponDiscount
	if total < 0 {
		total = 0
	}
	o.Total = round2(total)
	o.Items = items
}

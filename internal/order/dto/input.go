package dto

// Address is snapshotted onto the order as JSON; later edits to the user's
// address book never touch placed orders.
type Address struct {
	FullName   string `json:"full_name" binding:"required"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country" binding:"required"`
}

type CheckoutInput struct {
	ShippingAddress Address  `json:"shipping_address" binding:"required"`
	BillingAddress  *Address `json:"billing_address"`
	PaymentMethod   string   `json:"payment_method"`
	CouponCode      string   `json:"coupon_code"`
}

type RefundItemInput struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required"`
}

type CancelInput struct {
	Reason string `json:"reason"`
}

type PaymentStatusInput struct {
	Status string `json:"status" binding:"required"`
}

package dto

// CartOwner identifies who a cart operation acts for. Exactly one of the
// two fields must be set.
type CartOwner struct {
	UserID  string
	GuestID string
}

func (o CartOwner) Valid() bool {
	return (o.UserID != "") != (o.GuestID != "")
}

type AddToCartInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Options   string `json:"options"` // opaque JSON passed through to the line
}

type UpdateQuantityInput struct {
	Quantity int `json:"quantity" binding:"required"`
}

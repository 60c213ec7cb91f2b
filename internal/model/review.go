package model

const (
	ReviewMinRating = 1
	ReviewMaxRating = 5
)

// Review is unique per (user, product). IsVerified marks a review whose
// order actually contains the reviewed product.
type Review struct {
	BaseModel
	UserID     string  `db:"user_id" json:"user_id"`
	ProductID  string  `db:"product_id" json:"product_id"`
	OrderID    *string `db:"order_id" json:"order_id"`
	Rating     int     `db:"rating" json:"rating"`
	Title      *string `db:"title" json:"title"`
	Content    string  `db:"content" json:"content"`
	IsVerified bool    `db:"is_verified" json:"is_verified"`
	IsApproved bool    `db:"is_approved" json:"is_approved"`
	IsActive   bool    `db:"is_active" json:"is_active"`
}

// CountsTowardRating reports whether this review participates in the
// product's aggregate rating.
func (r *Review) CountsTowardRating() bool {
	return r.IsActive && r.IsApproved
}

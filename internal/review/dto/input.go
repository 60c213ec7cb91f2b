package dto

type CreateReviewInput struct {
	UserID    string `json:"-"`
	ProductID string `json:"product_id" binding:"required"`
	OrderID   string `json:"order_id"`
	Rating    int    `json:"rating" binding:"required"`
	Title     string `json:"title"`
	Content   string `json:"content" binding:"required"`
}

type UpdateReviewInput struct {
	ReviewID string `json:"-"`
	UserID   string `json:"-"`
	Rating   int    `json:"rating" binding:"required"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

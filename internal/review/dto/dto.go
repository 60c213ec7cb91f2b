package dto

// RatingSummary is the freshly recomputed product aggregate, handed back to
// product-detail read paths.
type RatingSummary struct {
	ProductID     string  `json:"product_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

type ReviewFilters struct {
	ProductID    string
	UserID       string
	ApprovedOnly bool
	Page         int
	PageSize     int
}

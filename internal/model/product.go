package model

type Product struct {
	BaseModel
	CategoryID        *string `db:"category_id" json:"category_id"`
	SKU               string  `db:"sku" json:"sku"`
	Name              string  `db:"name" json:"name"`
	Description       *string `db:"description" json:"description"`
	Price             float64 `db:"price" json:"price"`
	Platform          *string `db:"platform" json:"platform"`
	ImageURL          *string `db:"image_url" json:"image_url"`
	StockQuantity     int     `db:"stock_quantity" json:"stock_quantity"`
	LowStockThreshold int     `db:"low_stock_threshold" json:"low_stock_threshold"`
	AverageRating     float64 `db:"average_rating" json:"average_rating"`
	ReviewCount       int     `db:"review_count" json:"review_count"`
	IsActive          bool    `db:"is_active" json:"is_active"`

	Category *Category `db:"-" json:"category,omitempty"` // Joined data
}

// IsLowStock reports whether the product is at or below its reorder threshold.
// Threshold zero means the product does not participate in low-stock alerts.
func (p *Product) IsLowStock() bool {
	return p.LowStockThreshold > 0 && p.StockQuantity <= p.LowStockThreshold
}

func (p *Product) IsOutOfStock() bool {
	return p.StockQuantity <= 0
}

// HasStock reports whether qty units can currently be fulfilled.
func (p *Product) HasStock(qty int) bool {
	return qty > 0 && p.StockQuantity >= qty
}

package dto

type CreateProductInput struct {
	CategoryID        string  `json:"category_id"`
	SKU               string  `json:"sku" binding:"required"`
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description"`
	Price             float64 `json:"price" binding:"required"`
	Platform          string  `json:"platform"`
	ImageURL          string  `json:"image_url"`
	LowStockThreshold int     `json:"low_stock_threshold"`
}

type UpdateProductInput struct {
	ID                string  `json:"-"`
	CategoryID        string  `json:"category_id"`
	SKU               string  `json:"sku"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	Platform          string  `json:"platform"`
	ImageURL          string  `json:"image_url"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	IsActive          bool    `json:"is_active"`
}

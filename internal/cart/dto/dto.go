package dto

// StockCheckLine is one row of the pre-checkout fulfillability report.
type StockCheckLine struct {
	ItemID          string  `json:"item_id"`
	ProductID       string  `json:"product_id"`
	ProductName     string  `json:"product_name"`
	Requested       int     `json:"requested"`
	Available       int     `json:"available"`
	Fulfillable     bool    `json:"fulfillable"`
	PriceChanged    bool    `json:"price_changed"`
	PriceDifference float64 `json:"price_difference"`
}

package dto

import "github.com/fekuna/commerce-service/internal/model"

// CheckoutResult is the contract checkout hands back to the storefront.
type CheckoutResult struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	Total       float64 `json:"total"`
	ItemCount   int     `json:"item_count"`
}

type OrderFilters struct {
	UserID        string
	Status        model.OrderStatus
	PaymentStatus model.PaymentStatus
	Page          int
	PageSize      int
}

// ProductSnapshot is the JSON shape frozen into each order item at checkout.
type ProductSnapshot struct {
	Name       string  `json:"name"`
	SKU        string  `json:"sku"`
	Price      float64 `json:"price"`
	ImageURL   string  `json:"image_url,omitempty"`
	CategoryID string  `json:"category_id,omitempty"`
	Platform   string  `json:"platform,omitempty"`
}

// OrderCreatedEvent is published to the orders topic after checkout commits.
type OrderCreatedEvent struct {
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Payload   OrderCreatedPayload `json:"payload"`
	Timestamp string              `json:"timestamp"`
}

type OrderCreatedPayload struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      string             `json:"user_id"`
	Total       float64            `json:"total"`
	Items       []OrderCreatedItem `json:"items"`
}

type OrderCreatedItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

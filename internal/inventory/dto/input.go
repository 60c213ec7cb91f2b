package dto

import "github.com/fekuna/commerce-service/internal/model"

type RecordTransactionInput struct {
	ProductID       string                `json:"product_id" binding:"required"`
	TransactionType model.TransactionType `json:"transaction_type" binding:"required"`
	Quantity        int                   `json:"quantity" binding:"required"` // signed delta
	Notes           string                `json:"notes"`
	ReferenceType   string                `json:"reference_type"`
	ReferenceID     string                `json:"reference_id"`
	UnitCost        *float64              `json:"unit_cost"`
	CreatedBy       string                `json:"-"`
}

type StockOutItem struct {
	ProductID string
	Quantity  int // positive units to deduct (or restore for returns)
}

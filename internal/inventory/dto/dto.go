package dto

import "github.com/fekuna/commerce-service/internal/model"

type TransactionResult struct {
	TransactionID string `json:"transaction_id"`
	StockBefore   int    `json:"stock_before"`
	StockAfter    int    `json:"stock_after"`
}

type TransactionFilters struct {
	ProductID       string
	TransactionType model.TransactionType
	ReferenceType   string
	ReferenceID     string
	Page            int
	PageSize        int
}

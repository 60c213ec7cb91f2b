package model

import "time"

type TransactionType string

const (
	TransactionStockIn    TransactionType = "stock_in"
	TransactionStockOut   TransactionType = "stock_out"
	TransactionAdjustment TransactionType = "adjustment"
	TransactionCorrection TransactionType = "correction"
	TransactionReturn     TransactionType = "return"
	TransactionDamaged    TransactionType = "damaged"
	TransactionExpired    TransactionType = "expired"
	TransactionTransfer   TransactionType = "transfer"
)

// ValidTransactionType reports whether t is one of the known ledger types.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionStockIn, TransactionStockOut, TransactionAdjustment,
		TransactionCorrection, TransactionReturn, TransactionDamaged,
		TransactionExpired, TransactionTransfer:
		return true
	}
	return false
}

// InventoryTransaction is one append-only ledger entry. Quantity is a signed
// delta; StockAfter = StockBefore + Quantity and is written onto the product
// in the same database transaction that inserts this row.
type InventoryTransaction struct {
	ID              string          `db:"id" json:"id"`
	ProductID       string          `db:"product_id" json:"product_id"`
	TransactionType TransactionType `db:"transaction_type" json:"transaction_type"`
	Quantity        int             `db:"quantity" json:"quantity"`
	StockBefore     int             `db:"stock_before" json:"stock_before"`
	StockAfter      int             `db:"stock_after" json:"stock_after"`
	ReferenceType   *string         `db:"reference_type" json:"reference_type"` // order, manual, system, channel
	ReferenceID     *string         `db:"reference_id" json:"reference_id"`
	UnitCost        *float64        `db:"unit_cost" json:"unit_cost"`
	TotalCost       *float64        `db:"total_cost" json:"total_cost"`
	Notes           string          `db:"notes" json:"notes"`
	CreatedBy       *string         `db:"created_by" json:"created_by"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

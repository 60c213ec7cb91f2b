package inventory

import (
	"context"

	"github.com/fekuna/commerce-service/internal/inventory/dto"
	"github.com/fekuna/commerce-service/internal/model"
)

type UseCase interface {
	// RecordTransaction appends one ledger entry and writes the resulting
	// stock level onto the product. The only sanctioned stock mutation path.
	RecordTransaction(ctx context.Context, input *dto.RecordTransactionInput) (*dto.TransactionResult, error)

	// CreateOrderStockOut is the bulk entry point used by checkout: one
	// stock_out per item, all applied in a single database transaction.
	CreateOrderStockOut(ctx context.Context, orderID string, items []dto.StockOutItem) ([]model.InventoryTransaction, error)

	// CreateOrderReturn restores stock for a cancelled order.
	CreateOrderReturn(ctx context.Context, orderID string, items []dto.StockOutItem) ([]model.InventoryTransaction, error)

	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.InventoryTransaction, int, error)
}

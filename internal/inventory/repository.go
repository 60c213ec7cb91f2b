package inventory

import (
	"context"

	"github.com/fekuna/commerce-service/internal/inventory/dto"
	"github.com/fekuna/commerce-service/internal/model"
)

type Repository interface {
	// ApplyTransaction inserts the ledger row and writes txn.StockAfter onto
	// the product in one database transaction. The product update is guarded
	// on stock_quantity still equalling txn.StockBefore; ErrStockConflict is
	// returned when a concurrent writer got there first.
	ApplyTransaction(ctx context.Context, txn *model.InventoryTransaction) error

	// ApplyOrderStockOut decrements stock for every item atomically
	// (conditional decrement, all-or-nothing) and inserts one ledger row per
	// item. Returns the created transactions.
	ApplyOrderStockOut(ctx context.Context, orderID string, items []dto.StockOutItem) ([]model.InventoryTransaction, error)

	FindByID(ctx context.Context, id string) (*model.InventoryTransaction, error)
	FindAll(ctx context.Context, filters *dto.TransactionFilters) ([]model.InventoryTransaction, int, error)
}

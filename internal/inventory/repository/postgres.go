package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/commerce-service/internal/errs"
	"github.com/fekuna/commerce-service/internal/inventory"
	"github.com/fekuna/commerce-service/internal/inventory/dto"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertTransactionQuery = `
    INSERT INTO inventory_transactions (
        id, product_id, transaction_type, quantity, stock_before, stock_after,
        reference_type, reference_id, unit_cost, total_cost, notes, created_by, created_at
    )
    VALUES (
        :id, :product_id, :transaction_type, :quantity, :stock_before, :stock_after,
        :reference_type, :reference_id, :unit_cost, :total_cost, :notes, :created_by, :created_at
    )
`

func (r *PGRepository) ApplyTransaction(ctx context.Context, txn *model.InventoryTransaction) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Guard on the stock level the caller computed from; a miss means a
	// concurrent writer moved it.
	res, err := tx.ExecContext(ctx, `
        UPDATE products SET stock_quantity = $1, updated_at = $2
        WHERE id = $3 AND stock_quantity = $4
    `, txn.StockAfter, time.Now(), txn.ProductID, txn.StockBefore)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return inventory.ErrStockConflict
	}

	if _, err := tx.NamedExecContext(ctx, insertTransactionQuery, txn); err != nil {
		return fmt.Errorf("failed to insert inventory transaction: %w", err)
	}

	return tx.Commit()
}

func (r *PGRepository) ApplyOrderStockOut(ctx context.Context, orderID string, items []dto.StockOutItem) ([]model.InventoryTransaction, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	refType := "order"
	txns := make([]model.InventoryTransaction, 0, len(items))
	var shortfalls []errs.StockShortfall

	for _, item := range items {
		var stockAfter int
		// Conditional decrement: never lets stock go below zero, even
		// against concurrent checkouts.
		err := tx.QueryRowxContext(ctx, `
            UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = $2
            WHERE id = $3 AND stock_quantity >= $1
            RETURNING stock_quantity
        `, item.Quantity, now, item.ProductID).Scan(&stockAfter)
		if errors.Is(err, sql.ErrNoRows) {
			shortfalls = append(shortfalls, r.shortfall(ctx, tx, item))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock for product %s: %w", item.ProductID, err)
		}

		orderRef := orderID
		txn := model.InventoryTransaction{
			ID:              uuid.New().String(),
			ProductID:       item.ProductID,
			TransactionType: model.TransactionStockOut,
			Quantity:        -item.Quantity,
			StockBefore:     stockAfter + item.Quantity,
			StockAfter:      stockAfter,
			ReferenceType:   &refType,
			ReferenceID:     &orderRef,
			Notes:           "order stock-out",
			CreatedAt:       now,
		}
		if _, err := tx.NamedExecContext(ctx, insertTransactionQuery, &txn); err != nil {
			return nil, fmt.Errorf("failed to insert stock-out transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if len(shortfalls) > 0 {
		// Rollback via the deferred call: no partial decrement survives.
		return nil, &errs.InsufficientStockError{Shortfalls: shortfalls}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *PGRepository) shortfall(ctx context.Context, tx *sqlx.Tx, item dto.StockOutItem) errs.StockShortfall {
	s := errs.StockShortfall{ProductID: item.ProductID, Requested: item.Quantity}
	row := tx.QueryRowxContext(ctx,
		`SELECT name, stock_quantity FROM products WHERE id = $1`, item.ProductID)
	_ = row.Scan(&s.ProductName, &s.Available)
	return s
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.InventoryTransaction, error) {
	var txn model.InventoryTransaction
	query := `SELECT * FROM inventory_transactions WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &txn, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	var items []model.InventoryTransaction
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.TransactionType != "" {
		conditions = append(conditions, "transaction_type = :transaction_type")
		args["transaction_type"] = f.TransactionType
	}
	if f.ReferenceType != "" {
		conditions = append(conditions, "reference_type = :reference_type")
		args["reference_type"] = f.ReferenceType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM inventory_transactions" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM inventory_transactions" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

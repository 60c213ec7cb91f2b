package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/order"
	"github.com/fekuna/commerce-service/internal/order/dto"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const pgUniqueViolation = "23505"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateWithItems(ctx context.Context, o *model.Order, items []model.OrderItem) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertOrder := `
        INSERT INTO orders (
            id, order_number, user_id, status, payment_status, payment_method,
            subtotal, tax_amount, shipping_amount, discount_amount, coupon_discount,
            coupon_code, total, item_count, shipping_address, billing_address,
            refunded_amount, cancel_reason,
            confirmed_at, processed_at, shipped_at, delivered_at, cancelled_at,
            refunded_at, paid_at, created_at, updated_at
        )
        VALUES (
            :id, :order_number, :user_id, :status, :payment_status, :payment_method,
            :subtotal, :tax_amount, :shipping_amount, :discount_amount, :coupon_discount,
            :coupon_code, :total, :item_count, :shipping_address, :billing_address,
            :refunded_amount, :cancel_reason,
            :confirmed_at, :processed_at, :shipped_at, :delivered_at, :cancelled_at,
            :refunded_at, :paid_at, :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, insertOrder, o); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation &&
			strings.Contains(pgErr.ConstraintName, "order_number") {
			return order.ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	insertItem := `
        INSERT INTO order_items (
            id, order_id, product_id, quantity, unit_price, item_total,
            product_snapshot, refunded_quantity, refunded_amount, status,
            created_at, updated_at
        )
        VALUES (
            :id, :order_id, :product_id, :quantity, :unit_price, :item_total,
            :product_snapshot, :refunded_quantity, :refunded_amount, :status,
            :created_at, :updated_at
        )
    `
	for i := range items {
		if _, err := tx.NamedExecContext(ctx, insertItem, &items[i]); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) Update(ctx context.Context, o *model.Order) error {
	query := `
        UPDATE orders SET
            status = :status,
            payment_status = :payment_status,
            payment_method = :payment_method,
            refunded_amount = :refunded_amount,
            cancel_reason = :cancel_reason,
            confirmed_at = :confirmed_at,
            processed_at = :processed_at,
            shipped_at = :shipped_at,
            delivered_at = :delivered_at,
            cancelled_at = :cancelled_at,
            refunded_at = :refunded_at,
            paid_at = :paid_at,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, o)
	return err
}

func (r *PGRepository) UpdateItem(ctx context.Context, item *model.OrderItem) error {
	query := `
        UPDATE order_items SET
            refunded_quantity = :refunded_quantity,
            refunded_amount = :refunded_amount,
            status = :status,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, item)
	return err
}

func (r *PGRepository) UpdateItemsStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE order_items SET status = $1, updated_at = now() WHERE order_id = $2`,
		status, orderID)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.DB.GetContext(ctx, &o, `SELECT * FROM orders WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) FindByNumber(ctx context.Context, number string) (*model.Order, error) {
	var o model.Order
	err := r.DB.GetContext(ctx, &o, `SELECT * FROM orders WHERE order_number = $1 LIMIT 1`, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) FindItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	items := []model.OrderItem{}
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at ASC`, orderID)
	return items, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var orders []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.UserID != "" {
		conditions = append(conditions, "user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		conditions = append(conditions, "payment_status = :payment_status")
		args["payment_status"] = f.PaymentStatus
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM orders" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &orders, args)
	return orders, count, err
}

func (r *PGRepository) ContainsProduct(ctx context.Context, orderID, productID string) (bool, error) {
	var count int
	err := r.DB.GetContext(ctx, &count,
		`SELECT count(*) FROM order_items WHERE order_id = $1 AND product_id = $2`,
		orderID, productID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

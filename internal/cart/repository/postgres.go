package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fekuna/commerce-service/internal/cart/dto"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateCart(ctx context.Context, c *model.Cart) error {
	query := `
        INSERT INTO carts (
            id, user_id, guest_id, subtotal, tax_amount, shipping_amount,
            discount_amount, coupon_discount, coupon_code, total, item_count,
            is_active, expires_at, created_at, updated_at
        )
        VALUES (
            :id, :user_id, :guest_id, :subtotal, :tax_amount, :shipping_amount,
            :discount_amount, :coupon_discount, :coupon_code, :total, :item_count,
            :is_active, :expires_at, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) UpdateCart(ctx context.Context, c *model.Cart) error {
	query := `
        UPDATE carts SET
            user_id = :user_id,
            guest_id = :guest_id,
            subtotal = :subtotal,
            tax_amount = :tax_amount,
            shipping_amount = :shipping_amount,
            discount_amount = :discount_amount,
            coupon_discount = :coupon_discount,
            coupon_code = :coupon_code,
            total = :total,
            item_count = :item_count,
            is_active = :is_active,
            expires_at = :expires_at,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) FindCartByID(ctx context.Context, id string) (*model.Cart, error) {
	var c model.Cart
	query := `SELECT * FROM carts WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) FindActiveByOwner(ctx context.Context, owner dto.CartOwner) (*model.Cart, error) {
	var c model.Cart
	var err error
	if owner.UserID != "" {
		err = r.DB.GetContext(ctx, &c,
			`SELECT * FROM carts WHERE user_id = $1 AND is_active = true ORDER BY created_at DESC LIMIT 1`,
			owner.UserID)
	} else {
		err = r.DB.GetContext(ctx, &c,
			`SELECT * FROM carts WHERE guest_id = $1 AND is_active = true ORDER BY created_at DESC LIMIT 1`,
			owner.GuestID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) FindItems(ctx context.Context, cartID string) ([]model.CartItem, error) {
	items := []model.CartItem{}
	query := `SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY created_at ASC`
	err := r.DB.SelectContext(ctx, &items, query, cartID)
	return items, err
}

func (r *PGRepository) FindItem(ctx context.Context, cartID, itemID string) (*model.CartItem, error) {
	var item model.CartItem
	query := `SELECT * FROM cart_items WHERE cart_id = $1 AND id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &item, query, cartID, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindItemByProduct(ctx context.Context, cartID, productID string) (*model.CartItem, error) {
	var item model.CartItem
	query := `SELECT * FROM cart_items WHERE cart_id = $1 AND product_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &item, query, cartID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) CreateItem(ctx context.Context, item *model.CartItem) error {
	query := `
        INSERT INTO cart_items (
            id, cart_id, product_id, quantity, price_at_add, item_total,
            options, created_at, updated_at
        )
        VALUES (
            :id, :cart_id, :product_id, :quantity, :price_at_add, :item_total,
            :options, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, item)
	return err
}

func (r *PGRepository) UpdateItem(ctx context.Context, item *model.CartItem) error {
	query := `
        UPDATE cart_items SET
            cart_id = :cart_id,
            quantity = :quantity,
            price_at_add = :price_at_add,
            item_total = :item_total,
            options = :options,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, item)
	return err
}

func (r *PGRepository) DeleteItem(ctx context.Context, cartID, itemID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`, cartID, itemID)
	return err
}

func (r *PGRepository) DeleteItems(ctx context.Context, cartID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

func (r *PGRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE carts SET is_active = false, updated_at = $1
        WHERE is_active = true AND expires_at IS NOT NULL AND expires_at < $1
    `, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

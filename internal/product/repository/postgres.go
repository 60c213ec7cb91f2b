package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, category_id, sku, name, description, price, platform, image_url,
            stock_quantity, low_stock_threshold, average_rating, review_count,
            is_active, created_at, updated_at
        )
        VALUES (
            :id, :category_id, :sku, :name, :description, :price, :platform, :image_url,
            :stock_quantity, :low_stock_threshold, :average_rating, :review_count,
            :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	// stock_quantity, average_rating and review_count are owned by the
	// inventory ledger and review aggregation respectively; catalog updates
	// must not touch them.
	query := `
        UPDATE products SET
            category_id = :category_id,
            sku = :sku,
            name = :name,
            description = :description,
            price = :price,
            platform = :platform,
            image_url = :image_url,
            low_stock_threshold = :low_stock_threshold,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE sku = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, sku)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) BatchFindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var products []model.Product
	err = r.DB.SelectContext(ctx, &products, query, args...)
	return products, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// Whitelist sortable fields
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "price"
		case "rating":
			orderBy = "average_rating"
		case "created_at":
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderBy)
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &products, args)
	return products, count, err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE sku = $1 AND id != $2`
	err := r.DB.GetContext(ctx, &count, query, sku, excludeID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) FindLowStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error) {
	where := ` WHERE is_active = true AND low_stock_threshold > 0 AND stock_quantity <= low_stock_threshold`
	return r.findStockLevel(ctx, where, page, pageSize)
}

func (r *PGRepository) FindOutOfStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error) {
	where := ` WHERE is_active = true AND stock_quantity <= 0`
	return r.findStockLevel(ctx, where, page, pageSize)
}

func (r *PGRepository) findStockLevel(ctx context.Context, whereClause string, page, pageSize int) ([]model.Product, int, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, "SELECT count(*) FROM products"+whereClause); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM products" + whereClause + " ORDER BY stock_quantity ASC"
	if pageSize > 0 {
		offset := (page - 1) * pageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, offset)
	}

	var products []model.Product
	err := r.DB.SelectContext(ctx, &products, query)
	return products, count, err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/review/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, rv *model.Review) error {
	query := `
        INSERT INTO reviews (
            id, user_id, product_id, order_id, rating, title, content,
            is_verified, is_approved, is_active, created_at, updated_at
        )
        VALUES (
            :id, :user_id, :product_id, :order_id, :rating, :title, :content,
            :is_verified, :is_approved, :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, rv)
	return err
}

func (r *PGRepository) Update(ctx context.Context, rv *model.Review) error {
	query := `
        UPDATE reviews SET
            rating = :rating,
            title = :title,
            content = :content,
            is_verified = :is_verified,
            is_approved = :is_approved,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, rv)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	var rv model.Review
	err := r.DB.GetContext(ctx, &rv, `SELECT * FROM reviews WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rv, nil
}

func (r *PGRepository) FindByUserAndProduct(ctx context.Context, userID, productID string) (*model.Review, error) {
	var rv model.Review
	err := r.DB.GetContext(ctx, &rv,
		`SELECT * FROM reviews WHERE user_id = $1 AND product_id = $2 AND is_active = true LIMIT 1`,
		userID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rv, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ReviewFilters) ([]model.Review, int, error) {
	var reviews []model.Review
	var count int

	conditions := []string{"is_active = true"}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.UserID != "" {
		conditions = append(conditions, "user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.ApprovedOnly {
		conditions = append(conditions, "is_approved = true")
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM reviews" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM reviews" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &reviews, args)
	return reviews, count, err
}

// RefreshProductRating recomputes the full aggregate in one statement so the
// stored rating can never drift from the review set.
func (r *PGRepository) RefreshProductRating(ctx context.Context, productID string) (float64, int, error) {
	var result struct {
		AverageRating float64 `db:"average_rating"`
		ReviewCount   int     `db:"review_count"`
	}
	query := `
        UPDATE products p SET
            average_rating = agg.avg_rating,
            review_count = agg.cnt,
            updated_at = now()
        FROM (
            SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS cnt
            FROM reviews
            WHERE product_id = $1 AND is_active = true AND is_approved = true
        ) agg
        WHERE p.id = $1
        RETURNING p.average_rating, p.review_count
    `
	err := r.DB.QueryRowxContext(ctx, query, productID).StructScan(&result)
	if err != nil {
		return 0, 0, err
	}
	return result.AverageRating, result.ReviewCount, nil
}

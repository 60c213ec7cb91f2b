package review

import (
	"context"

	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/review/dto"
)

type Repository interface {
	Create(ctx context.Context, r *model.Review) error
	Update(ctx context.Context, r *model.Review) error
	FindByID(ctx context.Context, id string) (*model.Review, error)
	FindByUserAndProduct(ctx context.Context, userID, productID string) (*model.Review, error)
	FindAll(ctx context.Context, filters *dto.ReviewFilters) ([]model.Review, int, error)

	// RefreshProductRating recomputes AVG(rating)/COUNT(*) over active and
	// approved reviews and writes both onto the product in one statement.
	// The full aggregate can never drift from the review set.
	RefreshProductRating(ctx context.Context, productID string) (avg float64, count int, err error)
}

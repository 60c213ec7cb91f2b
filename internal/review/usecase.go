package review

import (
	"context"

	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/review/dto"
)

type UseCase interface {
	// CreateReview validates rating bounds and user/product uniqueness,
	// marks verified purchases, and recomputes the product aggregate.
	CreateReview(ctx context.Context, input *dto.CreateReviewInput) (*model.Review, *dto.RatingSummary, error)
	UpdateReview(ctx context.Context, input *dto.UpdateReviewInput) (*model.Review, *dto.RatingSummary, error)
	DeleteReview(ctx context.Context, userID, reviewID string) (*dto.RatingSummary, error)

	// ApproveReview flips moderation state; only approved+active reviews
	// count toward the product rating.
	ApproveReview(ctx context.Context, reviewID string, approved bool) (*model.Review, *dto.RatingSummary, error)

	ListReviews(ctx context.Context, filters *dto.ReviewFilters) ([]model.Review, int, error)
}

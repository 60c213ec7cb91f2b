package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/commerce-service/internal/errs"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/order"
	"github.com/fekuna/commerce-service/internal/product"
	"github.com/fekuna/commerce-service/internal/review"
	"github.com/fekuna/commerce-service/internal/review/dto"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type reviewUseCase struct {
	repo        review.Repository
	productRepo product.Repository
	orderRepo   order.Repository
	logger      logger.ZapLogger
}

func NewReviewUseCase(repo review.Repository, productRepo product.Repository, orderRepo order.Repository, log logger.ZapLogger) review.UseCase {
	return &reviewUseCase{
		repo:        repo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		logger:      log,
	}
}

func (uc *reviewUseCase) CreateReview(ctx context.Context, input *dto.CreateReviewInput) (*model.Review, *dto.RatingSummary, error) {
	if input.UserID == "" {
		return nil, nil, &errs.ValidationError{Field: "user_id", Reason: "required"}
	}
	if input.Rating < model.ReviewMinRating || input.Rating > model.ReviewMaxRating {
		return nil, nil, &errs.OutOfRangeError{
			Field: "rating",
			Min:   model.ReviewMinRating,
			Max:   model.ReviewMaxRating,
			Value: input.Rating,
		}
	}

	p, err := uc.productRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil || !p.IsActive {
		return nil, nil, &errs.NotFoundError{Entity: "product", ID: input.ProductID}
	}

	existing, err := uc.repo.FindByUserAndProduct(ctx, input.UserID, input.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, &errs.ConflictError{Entity: "review", Reason: "user already reviewed this product"}
	}

	now := time.Now()
	r := &model.Review{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Rating:    input.Rating,
		Content:   input.Content,
		IsActive:  true,
	}
	if input.Title != "" {
		r.Title = &input.Title
	}
	if input.OrderID != "" {
		verified, err := uc.verifyPurchase(ctx, input.UserID, input.ProductID, input.OrderID)
		if err != nil {
			return nil, nil, err
		}
		r.IsVerified = verified
		r.OrderID = &input.OrderID
	}

	if err := uc.repo.Create(ctx, r); err != nil {
		return nil, nil, err
	}

	summary, err := uc.refresh(ctx, input.ProductID)
	if err != nil {
		return nil, nil, err
	}

	uc.logger.Info("review created",
		zap.String("review_id", r.ID),
		zap.String("product_id", r.ProductID),
		zap.Bool("verified", r.IsVerified))
	return r, summary, nil
}

func (uc *reviewUseCase) UpdateReview(ctx context.Context, input *dto.UpdateReviewInput) (*model.Review, *dto.RatingSummary, error) {
	if input.Rating < model.ReviewMinRating || input.Rating > model.ReviewMaxRating {
		return nil, nil, &errs.OutOfRangeError{
			Field: "rating",
			Min:   model.ReviewMinRating,
			Max:   model.ReviewMaxRating,
			Value: input.Rating,
		}
	}

	r, err := uc.repo.FindByID(ctx, input.ReviewID)
	if err != nil {
		return nil, nil, err
	}
	if r == nil || !r.IsActive {
		return nil, nil, &errs.NotFoundError{Entity: "review", ID: input.ReviewID}
	}
	if r.UserID != input.UserID {
		return nil, nil, &errs.NotFoundError{Entity: "review", ID: input.ReviewID}
	}

	ratingChanged := r.Rating != input.Rating
	r.Rating = input.Rating
	if input.Title != "" {
		r.Title = &input.Title
	}
	if input.Content != "" {
		r.Content = input.Content
	}
	r.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, r); err != nil {
		return nil, nil, err
	}

	var summary *dto.RatingSummary
	if ratingChanged && r.CountsTowardRating() {
		summary, err = uc.refresh(ctx, r.ProductID)
		if err != nil {
			return nil, nil, err
		}
	} else {
		summary = uc.currentSummary(ctx, r.ProductID)
	}
	return r, summary, nil
}

func (uc *reviewUseCase) DeleteReview(ctx context.Context, userID, reviewID string) (*dto.RatingSummary, error) {
	r, err := uc.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if r == nil || !r.IsActive {
		return nil, &errs.NotFoundError{Entity: "review", ID: reviewID}
	}
	if userID != "" && r.UserID != userID {
		return nil, &errs.NotFoundError{Entity: "review", ID: reviewID}
	}

	countedBefore := r.CountsTowardRating()
	r.IsActive = false
	r.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	if countedBefore {
		return uc.refresh(ctx, r.ProductID)
	}
	return uc.currentSummary(ctx, r.ProductID), nil
}

func (uc *reviewUseCase) ApproveReview(ctx context.Context, reviewID string, approved bool) (*model.Review, *dto.RatingSummary, error) {
	r, err := uc.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, nil, err
	}
	if r == nil || !r.IsActive {
		return nil, nil, &errs.NotFoundError{Entity: "review", ID: reviewID}
	}

	if r.IsApproved == approved {
		return r, uc.currentSummary(ctx, r.ProductID), nil
	}

	r.IsApproved = approved
	r.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, r); err != nil {
		return nil, nil, err
	}

	summary, err := uc.refresh(ctx, r.ProductID)
	if err != nil {
		return nil, nil, err
	}
	return r, summary, nil
}

func (uc *reviewUseCase) ListReviews(ctx context.Context, filters *dto.ReviewFilters) ([]model.Review, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

// verifyPurchase checks the order exists, was placed by the reviewer, was
// delivered, and contains the reviewed product.
func (uc *reviewUseCase) verifyPurchase(ctx context.Context, userID, productID, orderID string) (bool, error) {
	o, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if o == nil || o.UserID != userID || o.Status != model.OrderStatusDelivered {
		return false, nil
	}
	return uc.orderRepo.ContainsProduct(ctx, orderID, productID)
}

func (uc *reviewUseCase) refresh(ctx context.Context, productID string) (*dto.RatingSummary, error) {
	avg, count, err := uc.repo.RefreshProductRating(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh product rating: %w", err)
	}
	return &dto.RatingSummary{ProductID: productID, AverageRating: avg, ReviewCount: count}, nil
}

func (uc *reviewUseCase) currentSummary(ctx context.Context, productID string) *dto.RatingSummary {
	p, err := uc.productRepo.FindByID(ctx, productID)
	if err != nil || p == nil {
		return &dto.RatingSummary{ProductID: productID}
	}
	return &dto.RatingSummary{
		ProductID:     productID,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
	}
}

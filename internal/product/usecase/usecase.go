package usecase

import (
	"context"
	"time"

	"github.com/fekuna/commerce-service/internal/errs"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/product"
	"github.com/fekuna/commerce-service/internal/product/dto"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo   product.Repository
	logger logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if input.Price < 0 {
		return nil, &errs.ValidationError{Field: "price", Reason: "must not be negative"}
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, &errs.ConflictError{Entity: "product", Reason: "SKU already exists"}
	}

	now := time.Now()
	p := &model.Product{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CategoryID:        optional(input.CategoryID),
		SKU:               input.SKU,
		Name:              input.Name,
		Description:       optional(input.Description),
		Price:             input.Price,
		Platform:          optional(input.Platform),
		ImageURL:          optional(input.ImageURL),
		LowStockThreshold: input.LowStockThreshold,
		IsActive:          true,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.logger.Info("product created", zap.String("product_id", p.ID), zap.String("sku", p.SKU))
	return p, nil
}

// UpdateProduct edits catalog fields. Stock quantity is deliberately absent:
// stock only moves through the inventory ledger.
func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &errs.NotFoundError{Entity: "product", ID: input.ID}
	}

	if input.SKU != "" && input.SKU != p.SKU {
		unique, err := uc.repo.IsSKUUnique(ctx, input.SKU, p.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, &errs.ConflictError{Entity: "product", Reason: "SKU already exists"}
		}
		p.SKU = input.SKU
	}

	if input.Name != "" {
		p.Name = input.Name
	}
	if input.Price < 0 {
		return nil, &errs.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if input.Price > 0 {
		p.Price = input.Price
	}
	p.CategoryID = optional(input.CategoryID)
	p.Description = optional(input.Description)
	p.Platform = optional(input.Platform)
	p.ImageURL = optional(input.ImageURL)
	p.LowStockThreshold = input.LowStockThreshold
	p.IsActive = input.IsActive
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &errs.NotFoundError{Entity: "product", ID: id}
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *productUseCase) DeactivateProduct(ctx context.Context, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return &errs.NotFoundError{Entity: "product", ID: id}
	}
	p.IsActive = false
	p.UpdatedAt = time.Now()
	return uc.repo.Update(ctx, p)
}

func (uc *productUseCase) ListLowStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error) {
	return uc.repo.FindLowStock(ctx, page, pageSize)
}

func (uc *productUseCase) ListOutOfStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error) {
	return uc.repo.FindOutOfStock(ctx, page, pageSize)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

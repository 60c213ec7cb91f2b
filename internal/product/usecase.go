package product

import (
	"context"

	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	DeactivateProduct(ctx context.Context, id string) error
	ListLowStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error)
	ListOutOfStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error)
}

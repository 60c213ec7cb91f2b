package category

import (
	"context"

	"github.com/fekuna/commerce-service/internal/category/dto"
	"github.com/fekuna/commerce-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	FindAllActive(ctx context.Context) ([]model.Category, error)
	Delete(ctx context.Context, id string) error
	HasProducts(ctx context.Context, id string) (bool, error)
}

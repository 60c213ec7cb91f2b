package product

import (
	"context"

	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	BatchFindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)

	// Stock-level derived queries; these read Product.stock_quantity directly
	// and are independent of the ledger.
	FindLowStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error)
	FindOutOfStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error)
}

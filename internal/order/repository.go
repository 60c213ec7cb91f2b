package order

import (
	"context"

	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/order/dto"
)

type Repository interface {
	// CreateWithItems inserts the order and all of its items in one
	// database transaction. ErrDuplicateOrderNumber is returned on an
	// order_number unique violation so the caller can regenerate and retry.
	CreateWithItems(ctx context.Context, o *model.Order, items []model.OrderItem) error

	Update(ctx context.Context, o *model.Order) error
	UpdateItem(ctx context.Context, item *model.OrderItem) error
	UpdateItemsStatus(ctx context.Context, orderID string, status model.OrderStatus) error

	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByNumber(ctx context.Context, number string) (*model.Order, error)
	FindItems(ctx context.Context, orderID string) ([]model.OrderItem, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	// ContainsProduct reports whether the order has a line for the product.
	// Used by review verification.
	ContainsProduct(ctx context.Context, orderID, productID string) (bool, error)
}

package cart

import (
	"context"

	"github.com/fekuna/commerce-service/internal/cart/dto"
	"github.com/fekuna/commerce-service/internal/model"
)

type Repository interface {
	CreateCart(ctx context.Context, c *model.Cart) error
	UpdateCart(ctx context.Context, c *model.Cart) error
	FindCartByID(ctx context.Context, id string) (*model.Cart, error)
	FindActiveByOwner(ctx context.Context, owner dto.CartOwner) (*model.Cart, error)

	FindItems(ctx context.Context, cartID string) ([]model.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID string) (*model.CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID string) (*model.CartItem, error)
	CreateItem(ctx context.Context, item *model.CartItem) error
	UpdateItem(ctx context.Context, item *model.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID string) error
	DeleteItems(ctx context.Context, cartID string) error

	// DeactivateExpired soft-deletes guest carts past their TTL. Called by
	// the periodic cleanup sweep, not by the data layer itself.
	DeactivateExpired(ctx context.Context) (int64, error)
}

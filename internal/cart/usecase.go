package cart

import (
	"context"

	"github.com/fekuna/commerce-service/internal/cart/dto"
	"github.com/fekuna/commerce-service/internal/model"
)

type UseCase interface {
	// GetCart returns the owner's active cart with items, or a fresh empty
	// (unpersisted) cart when none exists yet.
	GetCart(ctx context.Context, owner dto.CartOwner) (*model.Cart, error)

	// AddToCart creates the cart on first use. Adding a product already in
	// the cart increments the existing line instead of duplicating it.
	AddToCart(ctx context.Context, owner dto.CartOwner, input *dto.AddToCartInput) (*model.Cart, error)

	UpdateQuantity(ctx context.Context, owner dto.CartOwner, itemID string, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, owner dto.CartOwner, itemID string) (*model.Cart, error)
	ClearCart(ctx context.Context, owner dto.CartOwner) (*model.Cart, error)

	// MergeGuestCart folds the guest cart into the user's cart on login and
	// deactivates the guest cart. With no pre-existing user cart the guest
	// cart is simply re-owned.
	MergeGuestCart(ctx context.Context, guestID, userID string) (*model.Cart, error)

	// ValidateStock reports per-line fulfillability against live stock.
	// Read-only; used before checkout.
	ValidateStock(ctx context.Context, owner dto.CartOwner) ([]dto.StockCheckLine, error)

	// UpdateItemPrice re-freezes priceAtAdd to the live catalog price.
	// Price drift is otherwise only reported, never applied.
	UpdateItemPrice(ctx context.Context, owner dto.CartOwner, itemID string) (*model.Cart, error)
}

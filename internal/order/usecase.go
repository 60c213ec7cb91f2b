package order

import (
	"context"

	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/order/dto"
)

type UseCase interface {
	// CreateOrderFromCart converts the user's active cart into an order:
	// re-validates stock, snapshots product data into order items, deducts
	// stock through the ledger and consumes the cart. All-or-nothing.
	CreateOrderFromCart(ctx context.Context, userID string, input *dto.CheckoutInput) (*dto.CheckoutResult, error)

	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	// UpdateStatus advances the order state machine one step. Status
	// timestamps are stamped exactly once.
	UpdateStatus(ctx context.Context, orderID string, next model.OrderStatus) (*model.Order, error)

	// CancelOrder is permitted from pending/confirmed/processing and
	// restores stock via return transactions.
	CancelOrder(ctx context.Context, orderID, reason string) (*model.Order, error)

	// SetPaymentStatus is the independent payment axis, driven by the
	// (external) payment webhook.
	SetPaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) (*model.Order, error)

	// RefundItems records refund bookkeeping against order items and rolls
	// the aggregate refund state up onto the order.
	RefundItems(ctx context.Context, orderID string, items []dto.RefundItemInput) (*model.Order, error)
}

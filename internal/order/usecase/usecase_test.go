package usecase

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/fekuna/commerce-service/internal/cart"
	cartdto "github.com/fekuna/commerce-service/internal/cart/dto"
	"github.com/fekuna/commerce-service/internal/errs"
	"github.com/fekuna/commerce-service/internal/inventory"
	invdto "github.com/fekuna/commerce-service/internal/inventory/dto"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/order"
	"github.com/fekuna/commerce-service/internal/order/dto"
	"github.com/fekuna/commerce-service/internal/product"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	orders map[string]model.Order
	items  map[string]model.OrderItem

	// failCreates makes the next N CreateWithItems calls fail with
	// ErrDuplicateOrderNumber.
	failCreates  int
	seenNumbers  []string
	createdCount int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[string]model.Order),
		items:  make(map[string]model.OrderItem),
	}
}

func (f *fakeOrderRepo) CreateWithItems(_ context.Context, o *model.Order, items []model.OrderItem) error {
	f.seenNumbers = append(f.seenNumbers, o.OrderNumber)
	if f.failCreates > 0 {
		f.failCreates--
		return order.ErrDuplicateOrderNumber
	}
	f.orders[o.ID] = *o
	for _, item := range items {
		f.items[item.ID] = item
	}
	f.createdCount++
	return nil
}

func (f *fakeOrderRepo) Update(_ context.Context, o *model.Order) error {
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderRepo) UpdateItem(_ context.Context, item *model.OrderItem) error {
	f.items[item.ID] = *item
	return nil
}

func (f *fakeOrderRepo) UpdateItemsStatus(_ context.Context, orderID string, status model.OrderStatus) error {
	for id, item := range f.items {
		if item.OrderID == orderID {
			item.Status = status
			f.items[id] = item
		}
	}
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id string) (*model.Order, error) {
	if o, ok := f.orders[id]; ok {
		o.Items = nil
		return &o, nil
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindByNumber(_ context.Context, number string) (*model.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == number {
			o.Items = nil
			return &o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindItems(_ context.Context, orderID string) ([]model.OrderItem, error) {
	var out []model.OrderItem
	for _, item := range f.items {
		if item.OrderID == orderID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindAll(_ context.Context, _ *dto.OrderFilters) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) ContainsProduct(_ context.Context, orderID, productID string) (bool, error) {
	for _, item := range f.items {
		if item.OrderID == orderID && item.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

// fakeCheckoutCartRepo serves just the slice of cart.Repository checkout
// touches.
type fakeCheckoutCartRepo struct {
	cart.Repository
	carts map[string]model.Cart
	items map[string][]model.CartItem
}

func (f *fakeCheckoutCartRepo) FindActiveByOwner(_ context.Context, owner cartdto.CartOwner) (*model.Cart, error) {
	for _, c := range f.carts {
		if c.IsActive && c.UserID != nil && *c.UserID == owner.UserID {
			c.Items = nil
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeCheckoutCartRepo) FindItems(_ context.Context, cartID string) ([]model.CartItem, error) {
	return f.items[cartID], nil
}

func (f *fakeCheckoutCartRepo) UpdateCart(_ context.Context, c *model.Cart) error {
	stored := *c
	stored.Items = nil
	f.carts[c.ID] = stored
	return nil
}

type fakeProductRepo struct {
	product.Repository
	products map[string]model.Product
}

func (f *fakeProductRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	if p, ok := f.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeProductRepo) BatchFindByIDs(_ context.Context, ids []string) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeInventoryUC mutates the shared product map the way the real ledger
// does, without a database.
type fakeInventoryUC struct {
	inventory.UseCase
	products *fakeProductRepo

	stockOuts [][]invdto.StockOutItem
	returns   [][]invdto.StockOutItem
}

func (f *fakeInventoryUC) CreateOrderStockOut(_ context.Context, orderID string, items []invdto.StockOutItem) ([]model.InventoryTransaction, error) {
	var shortfalls []errs.StockShortfall
	for _, item := range items {
		p := f.products.products[item.ProductID]
		if p.StockQuantity < item.Quantity {
			shortfalls = append(shortfalls, errs.StockShortfall{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: p.StockQuantity,
			})
		}
	}
	if len(shortfalls) > 0 {
		return nil, &errs.InsufficientStockError{Shortfalls: shortfalls}
	}

	txns := make([]model.InventoryTransaction, 0, len(items))
	for _, item := range items {
		p := f.products.products[item.ProductID]
		before := p.StockQuantity
		p.StockQuantity -= item.Quantity
		f.products.products[item.ProductID] = p
		txns = append(txns, model.InventoryTransaction{
			ProductID:       item.ProductID,
			TransactionType: model.TransactionStockOut,
			Quantity:        -item.Quantity,
			StockBefore:     before,
			StockAfter:      p.StockQuantity,
		})
	}
	f.stockOuts = append(f.stockOuts, items)
	return txns, nil
}

func (f *fakeInventoryUC) CreateOrderReturn(_ context.Context, orderID string, items []invdto.StockOutItem) ([]model.InventoryTransaction, error) {
	for _, item := range items {
		p := f.products.products[item.ProductID]
		p.StockQuantity += item.Quantity
		f.products.products[item.ProductID] = p
	}
	f.returns = append(f.returns, items)
	return nil, nil
}

type capturedEvent struct {
	key   string
	value []byte
}

type fakePublisher struct {
	events []capturedEvent
}

func (f *fakePublisher) Publish(_ context.Context, key string, value []byte) error {
	f.events = append(f.events, capturedEvent{key: key, value: value})
	return nil
}

type fixture struct {
	repo      *fakeOrderRepo
	cartRepo  *fakeCheckoutCartRepo
	products  *fakeProductRepo
	inv       *fakeInventoryUC
	publisher *fakePublisher
	uc        order.UseCase
}

func newFixture(products ...model.Product) *fixture {
	prodRepo := &fakeProductRepo{products: make(map[string]model.Product)}
	for _, p := range products {
		prodRepo.products[p.ID] = p
	}
	f := &fixture{
		repo:      newFakeOrderRepo(),
		cartRepo:  &fakeCheckoutCartRepo{carts: make(map[string]model.Cart), items: make(map[string][]model.CartItem)},
		products:  prodRepo,
		inv:       &fakeInventoryUC{products: prodRepo},
		publisher: &fakePublisher{},
	}
	f.uc = NewOrderUseCase(f.repo, f.cartRepo, f.products, f.inv, f.publisher, logger.NewNop())
	return f
}

func (f *fixture) seedCart(userID string, items ...model.CartItem) *model.Cart {
	c := &model.Cart{
		BaseModel: model.BaseModel{ID: "cart-" + userID},
		UserID:    &userID,
		IsActive:  true,
	}
	for i := range items {
		items[i].CartID = c.ID
	}
	c.Recalculate(items)
	f.cartRepo.carts[c.ID] = *c
	f.cartRepo.items[c.ID] = items
	return c
}

func (f *fixture) seedOrder(o model.Order, items ...model.OrderItem) {
	f.orders()[o.ID] = o
	for _, item := range items {
		item.OrderID = o.ID
		f.repo.items[item.ID] = item
	}
}

func (f *fixture) orders() map[string]model.Order { return f.repo.orders }

func cartLine(id, productID string, qty int, priceAtAdd float64) model.CartItem {
	item := model.CartItem{
		BaseModel:  model.BaseModel{ID: id},
		ProductID:  productID,
		PriceAtAdd: priceAtAdd,
	}
	item.SetQuantity(qty)
	return item
}

func activeProduct(id string, price float64, stock int) model.Product {
	return model.Product{
		BaseModel:     model.BaseModel{ID: id},
		SKU:           "SKU-" + id,
		Name:          "Product " + id,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
}

func checkoutInput() *dto.CheckoutInput {
	return &dto.CheckoutInput{
		ShippingAddress: dto.Address{
			FullName: "Ada Lovelace",
			Line1:    "12 Analytical Way",
			City:     "London",
			Country:  "GB",
		},
		PaymentMethod: "card",
	}
}

func TestCheckoutCreatesOrderAndDeductsStock(t *testing.T) {
	f := newFixture(activeProduct("p1", 12.00, 5))
	f.seedCart("u1", cartLine("i1", "p1", 2, 10.00))

	result, err := f.uc.CreateOrderFromCart(context.Background(), "u1", checkoutInput())
	require.NoError(t, err)

	assert.Equal(t, 20.00, result.Total, "frozen cart price is honored over the live catalog price")
	assert.Equal(t, 2, result.ItemCount)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`), result.OrderNumber)

	o := f.orders()[result.OrderID]
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, model.PaymentStatusPending, o.PaymentStatus)

	items, _ := f.repo.FindItems(context.Background(), result.OrderID)
	require.Len(t, items, 1)
	assert.Equal(t, 10.00, items[0].UnitPrice)
	assert.Equal(t, 2, items[0].Quantity)

	assert.Equal(t, 3, f.products.products["p1"].StockQuantity, "stock 5 - 2 = 3")

	stored := f.cartRepo.carts["cart-u1"]
	assert.False(t, stored.IsActive, "the cart is consumed by checkout")
}

func TestCheckoutSnapshotsProduct(t *testing.T) {
	f := newFixture(activeProduct("p1", 12.00, 5))
	f.seedCart("u1", cartLine("i1", "p1", 1, 10.00))

	result, err := f.uc.CreateOrderFromCart(context.Background(), "u1", checkoutInput())
	require.NoError(t, err)

	items, _ := f.repo.FindItems(context.Background(), result.OrderID)
	require.Len(t, items, 1)

	var snap dto.ProductSnapshot
	require.NoError(t, json.Unmarshal([]byte(items[0].ProductSnapshot), &snap))
	assert.Equal(t, "Product p1", snap.Name)
	assert.Equal(t, "SKU-p1", snap.SKU)
	assert.Equal(t, 12.00, snap.Price, "snapshot records the catalog price at order time")
}

func TestCheckoutShortfallFailsWholeOrder(t *testing.T) {
	f := newFixture(activeProduct("p1", 10.00, 10), activeProduct("p2", 5.00, 1))
	f.seedCart("u1", cartLine("i1", "p1", 2, 10.00), cartLine("i2", "p2", 2, 5.00))

	_, err := f.uc.CreateOrderFromCart(context.Background(), "u1", checkoutInput())

	var stockErr *errs.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Shortfalls, 1)
	assert.Equal(t, "p2", stockErr.Shortfalls[0].ProductID)

	assert.Zero(t, f.repo.createdCount, "no order may be created")
	assert.Empty(t, f.inv.stockOuts, "no stock may be deducted")
	assert.Equal(t, 10, f.products.products["p1"].StockQuantity)
	assert.True(t, f.cartRepo.carts["cart-u1"].IsActive, "the cart survives a failed checkout")
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture()
	f.seedCart("u1")

	_, err := f.uc.CreateOrderFromCart(context.Background(), "u1", checkoutInput())

	var stateErr *errs.InvalidCartStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCheckoutNoCart(t *testing.T) {
	f := newFixture()

	_, err := f.uc.CreateOrderFromCart(context.Background(), "u1", checkoutInput())

	var stateErr *errs.InvalidCartStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCheckoutRetriesOrderNumberCollision(t *testing.T) {
	f := newFixture(activeProduct("p1", 10.00, 5))
	f.seedCart("u1", cartLine("i1", "p1", 1, 10.00))
	f.repo.failCreates = 2

	result, err := f.uc.CreateOrderFromCart(context.Background(), "u1", checkoutInput())
	require.NoError(t, err)

	require.Len(t, f.repo.seenNumbers, 3)
	assert.Equal(t, result.OrderNumber, f.repo.seenNumbers[2])
	assert.Empty(t, f.inv.returns, "a successful retry needs no compensation")
}

func TestCheckoutCompensatesStockWhenInsertExhausted(t *testing.T) {
	f := newFixture(activeProduct("p1", 10.00, 5))
	f.seedCart("u1", cartLine("i1", "p1", 2, 10.00))
	f.repo.failCreates = 10 // more than the retry budget

	_, err := f.uc.CreateOrderFromCart(context.Background(), "u1", checkoutInput())

	var conflict *errs.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, f.inv.returns, 1, "the deducted stock must be returned")
	assert.Equal(t, 5, f.products.products["p1"].StockQuantity)
}

func TestCheckoutPublishesOrderCreated(t *testing.T) {
	f := newFixture(activeProduct("p1", 10.00, 5))
	f.seedCart("u1", cartLine("i1", "p1", 2, 10.00))

	result, err := f.uc.CreateOrderFromCart(context.Background(), "u1", checkoutInput())
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, result.OrderID, f.publisher.events[0].key)

	var event dto.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(f.publisher.events[0].value, &event))
	assert.Equal(t, "OrderCreated", event.EventType)
	assert.Equal(t, result.OrderNumber, event.Payload.OrderNumber)
	require.Len(t, event.Payload.Items, 1)
	assert.Equal(t, "p1", event.Payload.Items[0].ProductID)
}

func TestUpdateStatusHappyPath(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{
		BaseModel:     model.BaseModel{ID: "o1"},
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPaid,
	}, model.OrderItem{BaseModel: model.BaseModel{ID: "oi1"}, Status: model.OrderStatusPending})

	o, err := f.uc.UpdateStatus(context.Background(), "o1", model.OrderStatusConfirmed)
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusConfirmed, o.Status)
	require.NotNil(t, o.ConfirmedAt)
	assert.Equal(t, model.OrderStatusConfirmed, f.repo.items["oi1"].Status,
		"item statuses follow the order")
}

func TestUpdateStatusIdempotentReentry(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{
		BaseModel: model.BaseModel{ID: "o1"},
		Status:    model.OrderStatusPending,
	})

	first, err := f.uc.UpdateStatus(context.Background(), "o1", model.OrderStatusConfirmed)
	require.NoError(t, err)
	require.NotNil(t, first.ConfirmedAt)
	stamped := *first.ConfirmedAt

	time.Sleep(5 * time.Millisecond)
	again, err := f.uc.UpdateStatus(context.Background(), "o1", model.OrderStatusConfirmed)
	require.NoError(t, err)
	require.NotNil(t, again.ConfirmedAt)
	assert.Equal(t, stamped, *again.ConfirmedAt, "re-entering a status keeps the original timestamp")
}

func TestUpdateStatusRejectsSkippedState(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{BaseModel: model.BaseModel{ID: "o1"}, Status: model.OrderStatusPending})

	_, err := f.uc.UpdateStatus(context.Background(), "o1", model.OrderStatusShipped)

	var transErr *errs.InvalidStateTransitionError
	require.ErrorAs(t, err, &transErr)
}

func TestUpdateStatusRefundRequiresPaid(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{
		BaseModel:     model.BaseModel{ID: "o1"},
		Status:        model.OrderStatusDelivered,
		PaymentStatus: model.PaymentStatusPending,
	})

	_, err := f.uc.UpdateStatus(context.Background(), "o1", model.OrderStatusRefunded)

	var transErr *errs.InvalidStateTransitionError
	require.ErrorAs(t, err, &transErr)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(activeProduct("p1", 10.00, 3))
	f.seedOrder(model.Order{
		BaseModel: model.BaseModel{ID: "o1"},
		Status:    model.OrderStatusConfirmed,
	}, model.OrderItem{
		BaseModel: model.BaseModel{ID: "oi1"},
		ProductID: "p1",
		Quantity:  2,
	})

	o, err := f.uc.CancelOrder(context.Background(), "o1", "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusCancelled, o.Status)
	require.NotNil(t, o.CancelReason)
	assert.Equal(t, "changed my mind", *o.CancelReason)
	require.NotNil(t, o.CancelledAt)

	require.Len(t, f.inv.returns, 1)
	assert.Equal(t, 5, f.products.products["p1"].StockQuantity, "cancelled quantity goes back to stock")
}

func TestCancelOrderRejectedAfterShipping(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{BaseModel: model.BaseModel{ID: "o1"}, Status: model.OrderStatusShipped})

	_, err := f.uc.CancelOrder(context.Background(), "o1", "")

	var transErr *errs.InvalidStateTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Empty(t, f.inv.returns)
}

func TestSetPaymentStatusPaidAtSetOnce(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{
		BaseModel:     model.BaseModel{ID: "o1"},
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	})

	o, err := f.uc.SetPaymentStatus(context.Background(), "o1", model.PaymentStatusPaid)
	require.NoError(t, err)
	require.NotNil(t, o.PaidAt)
	paidAt := *o.PaidAt

	time.Sleep(5 * time.Millisecond)
	o, err = f.uc.SetPaymentStatus(context.Background(), "o1", model.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, paidAt, *o.PaidAt)
}

func TestSetPaymentStatusUnknown(t *testing.T) {
	f := newFixture()

	_, err := f.uc.SetPaymentStatus(context.Background(), "o1", model.PaymentStatus("settled"))

	var vErr *errs.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestRefundItemsPartial(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{
		BaseModel:     model.BaseModel{ID: "o1"},
		Status:        model.OrderStatusDelivered,
		PaymentStatus: model.PaymentStatusPaid,
	}, model.OrderItem{
		BaseModel: model.BaseModel{ID: "oi1"},
		ProductID: "p1",
		Quantity:  3,
		UnitPrice: 10.00,
		ItemTotal: 30.00,
	})

	o, err := f.uc.RefundItems(context.Background(), "o1", []dto.RefundItemInput{{ItemID: "oi1", Quantity: 1}})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPartiallyRefunded, o.PaymentStatus)
	assert.Equal(t, 10.00, o.RefundedAmount)
	assert.Equal(t, model.OrderStatusDelivered, o.Status, "a partial refund does not change the order status")

	item := f.repo.items["oi1"]
	assert.Equal(t, 1, item.RefundedQuantity)
	assert.Equal(t, 10.00, item.RefundedAmount)
}

func TestRefundItemsFullRollsUp(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{
		BaseModel:     model.BaseModel{ID: "o1"},
		Status:        model.OrderStatusDelivered,
		PaymentStatus: model.PaymentStatusPaid,
	}, model.OrderItem{
		BaseModel: model.BaseModel{ID: "oi1"},
		ProductID: "p1",
		Quantity:  2,
		UnitPrice: 10.00,
		ItemTotal: 20.00,
	})

	o, err := f.uc.RefundItems(context.Background(), "o1", []dto.RefundItemInput{{ItemID: "oi1", Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusRefunded, o.PaymentStatus)
	assert.Equal(t, model.OrderStatusRefunded, o.Status)
	require.NotNil(t, o.RefundedAt)
	assert.Equal(t, 20.00, o.RefundedAmount)
}

func TestRefundItemsExceedsRefundable(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{
		BaseModel:     model.BaseModel{ID: "o1"},
		Status:        model.OrderStatusDelivered,
		PaymentStatus: model.PaymentStatusPaid,
	}, model.OrderItem{
		BaseModel: model.BaseModel{ID: "oi1"},
		Quantity:  2,
		UnitPrice: 10.00,
	})

	_, err := f.uc.RefundItems(context.Background(), "o1", []dto.RefundItemInput{{ItemID: "oi1", Quantity: 3}})

	var vErr *errs.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestRefundItemsRequiresPaidOrder(t *testing.T) {
	f := newFixture()
	f.seedOrder(model.Order{
		BaseModel:     model.BaseModel{ID: "o1"},
		Status:        model.OrderStatusDelivered,
		PaymentStatus: model.PaymentStatusPending,
	})

	_, err := f.uc.RefundItems(context.Background(), "o1", []dto.RefundItemInput{{ItemID: "oi1", Quantity: 1}})

	var transErr *errs.InvalidStateTransitionError
	require.ErrorAs(t, err, &transErr)
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	number := generateOrderNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^ORD-20250615-[0-9A-F]{8}$`), number)
	assert.NotEqual(t, number, generateOrderNumber(now))
}

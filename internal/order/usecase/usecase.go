package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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
	"github.com/fekuna/commerce-service/pkg/broker"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const orderNumberAttempts = 3

type orderUseCase struct {
	repo        order.Repository
	cartRepo    cart.Repository
	productRepo product.Repository
	inventoryUC inventory.UseCase
	publisher   broker.Publisher
	logger      logger.ZapLogger
}

func NewOrderUseCase(
	repo order.Repository,
	cartRepo cart.Repository,
	productRepo product.Repository,
	inventoryUC inventory.UseCase,
	publisher broker.Publisher,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		repo:        repo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		inventoryUC: inventoryUC,
		publisher:   publisher,
		logger:      log,
	}
}

func (uc *orderUseCase) CreateOrderFromCart(ctx context.Context, userID string, input *dto.CheckoutInput) (*dto.CheckoutResult, error) {
	if userID == "" {
		return nil, &errs.ValidationError{Field: "user_id", Reason: "checkout requires an authenticated user"}
	}

	c, err := uc.cartRepo.FindActiveByOwner(ctx, cartdto.CartOwner{UserID: userID})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &errs.InvalidCartStateError{CartID: "", Reason: "no active cart"}
	}
	items, err := uc.cartRepo.FindItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	if !c.CanBeOrdered() {
		return nil, &errs.InvalidCartStateError{CartID: c.ID, Reason: cartStateReason(c)}
	}

	products, err := uc.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	// Re-validate every line against live stock before touching anything;
	// a shortfall fails the whole checkout.
	if shortfalls := collectShortfalls(items, products); len(shortfalls) > 0 {
		return nil, &errs.InsufficientStockError{Shortfalls: shortfalls}
	}

	orderID := uuid.New().String()
	now := time.Now()

	orderItems := make([]model.OrderItem, 0, len(items))
	stockOut := make([]invdto.StockOutItem, 0, len(items))
	for i := range items {
		item := &items[i]
		p := products[item.ProductID]

		snapshot, err := json.Marshal(snapshotOf(p))
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot product %s: %w", p.ID, err)
		}

		oi := model.OrderItem{
			BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			// Price protection: the frozen cart price is honored, not the
			// live catalog price.
			UnitPrice:       item.PriceAtAdd,
			ItemTotal:       item.ItemTotal,
			ProductSnapshot: string(snapshot),
			Status:          model.OrderStatusPending,
		}
		orderItems = append(orderItems, oi)
		stockOut = append(stockOut, invdto.StockOutItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	o := &model.Order{
		BaseModel:      model.BaseModel{ID: orderID, CreatedAt: now, UpdatedAt: now},
		UserID:         userID,
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusPending,
		TaxAmount:      c.TaxAmount,
		ShippingAmount: c.ShippingAmount,
		DiscountAmount: c.DiscountAmount,
		CouponDiscount: c.CouponDiscount,
	}
	if input.PaymentMethod != "" {
		o.PaymentMethod = &input.PaymentMethod
	}
	if input.CouponCode != "" {
		o.CouponCode = &input.CouponCode
	}

	shipAddr, err := json.Marshal(input.ShippingAddress)
	if err != nil {
		return nil, err
	}
	o.ShippingAddress = string(shipAddr)
	if input.BillingAddress != nil {
		billAddr, err := json.Marshal(input.BillingAddress)
		if err != nil {
			return nil, err
		}
		s := string(billAddr)
		o.BillingAddress = &s
	}

	o.Recalculate(orderItems)

	// Deduct stock first (atomic, all-or-nothing); then persist the order.
	// If the order insert cannot complete the deduction is compensated with
	// return transactions, so stock is never oversold.
	if _, err := uc.inventoryUC.CreateOrderStockOut(ctx, orderID, stockOut); err != nil {
		return nil, err
	}

	if err := uc.createWithNumberRetry(ctx, o, orderItems); err != nil {
		uc.logger.Error("order insert failed after stock-out, compensating",
			zap.String("order_id", orderID), zap.Error(err))
		if _, rerr := uc.inventoryUC.CreateOrderReturn(ctx, orderID, stockOut); rerr != nil {
			uc.logger.Error("stock compensation failed",
				zap.String("order_id", orderID), zap.Error(rerr))
		}
		return nil, err
	}

	// The cart is consumed.
	c.IsActive = false
	c.UpdatedAt = time.Now()
	if err := uc.cartRepo.UpdateCart(ctx, c); err != nil {
		uc.logger.Error("failed to deactivate consumed cart",
			zap.String("cart_id", c.ID), zap.Error(err))
	}

	uc.publishOrderCreated(ctx, o, orderItems)

	uc.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Float64("total", o.Total),
		zap.Int("item_count", o.ItemCount),
	)

	return &dto.CheckoutResult{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Total:       o.Total,
		ItemCount:   o.ItemCount,
	}, nil
}

func (uc *orderUseCase) createWithNumberRetry(ctx context.Context, o *model.Order, items []model.OrderItem) error {
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		o.OrderNumber = generateOrderNumber(time.Now())
		err = uc.repo.CreateWithItems(ctx, o, items)
		if err == nil {
			return nil
		}
		if !errors.Is(err, order.ErrDuplicateOrderNumber) {
			return err
		}
	}
	return &errs.ConflictError{Entity: "order", Reason: "could not allocate a unique order number"}
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &errs.NotFoundError{Entity: "order", ID: id}
	}
	items, err := uc.repo.FindItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (uc *orderUseCase) GetOrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	o, err := uc.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &errs.NotFoundError{Entity: "order", ID: number}
	}
	items, err := uc.repo.FindItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *orderUseCase) UpdateStatus(ctx context.Context, orderID string, next model.OrderStatus) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &errs.NotFoundError{Entity: "order", ID: orderID}
	}

	if o.Status == next {
		// Idempotent re-entry; the original timestamp stands.
		return o, nil
	}
	if !o.CanTransitionTo(next) {
		return nil, &errs.InvalidStateTransitionError{Entity: "order", From: string(o.Status), To: string(next)}
	}
	if next == model.OrderStatusRefunded && o.PaymentStatus != model.PaymentStatusPaid {
		return nil, &errs.InvalidStateTransitionError{Entity: "order", From: string(o.Status), To: string(next)}
	}
	if next == model.OrderStatusCancelled {
		return uc.CancelOrder(ctx, orderID, "")
	}

	o.Status = next
	o.StampStatus(next, time.Now())
	o.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateItemsStatus(ctx, o.ID, next); err != nil {
		return nil, err
	}

	uc.logger.Info("order status updated",
		zap.String("order_id", o.ID), zap.String("status", string(next)))
	return o, nil
}

func (uc *orderUseCase) CancelOrder(ctx context.Context, orderID, reason string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &errs.NotFoundError{Entity: "order", ID: orderID}
	}
	if !o.CanBeCancelled() {
		return nil, &errs.InvalidStateTransitionError{
			Entity: "order", From: string(o.Status), To: string(model.OrderStatusCancelled),
		}
	}

	items, err := uc.repo.FindItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o.Status = model.OrderStatusCancelled
	if reason != "" {
		o.CancelReason = &reason
	}
	o.StampStatus(model.OrderStatusCancelled, now)
	o.UpdatedAt = now

	if err := uc.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateItemsStatus(ctx, o.ID, model.OrderStatusCancelled); err != nil {
		return nil, err
	}

	// Put the stock back.
	restock := make([]invdto.StockOutItem, 0, len(items))
	for i := range items {
		restock = append(restock, invdto.StockOutItem{
			ProductID: items[i].ProductID,
			Quantity:  items[i].Quantity,
		})
	}
	if _, err := uc.inventoryUC.CreateOrderReturn(ctx, o.ID, restock); err != nil {
		uc.logger.Error("failed to restore stock for cancelled order",
			zap.String("order_id", o.ID), zap.Error(err))
	}

	uc.logger.Info("order cancelled", zap.String("order_id", o.ID))
	o.Items = items
	return o, nil
}

func (uc *orderUseCase) SetPaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) (*model.Order, error) {
	switch status {
	case model.PaymentStatusPending, model.PaymentStatusPaid, model.PaymentStatusFailed,
		model.PaymentStatusRefunded, model.PaymentStatusPartiallyRefunded:
	default:
		return nil, &errs.ValidationError{Field: "payment_status", Reason: "unknown status"}
	}

	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &errs.NotFoundError{Entity: "order", ID: orderID}
	}

	now := time.Now()
	o.PaymentStatus = status
	if status == model.PaymentStatusPaid && o.PaidAt == nil {
		o.PaidAt = &now
	}
	o.UpdatedAt = now

	if err := uc.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	uc.logger.Info("payment status updated",
		zap.String("order_id", o.ID), zap.String("payment_status", string(status)))
	return o, nil
}

func (uc *orderUseCase) RefundItems(ctx context.Context, orderID string, refunds []dto.RefundItemInput) (*model.Order, error) {
	if len(refunds) == 0 {
		return nil, &errs.ValidationError{Field: "items", Reason: "must not be empty"}
	}

	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &errs.NotFoundError{Entity: "order", ID: orderID}
	}
	if o.PaymentStatus != model.PaymentStatusPaid && o.PaymentStatus != model.PaymentStatusPartiallyRefunded {
		return nil, &errs.InvalidStateTransitionError{
			Entity: "order", From: string(o.PaymentStatus), To: string(model.PaymentStatusRefunded),
		}
	}

	items, err := uc.repo.FindItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.OrderItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	now := time.Now()
	var refundTotal float64
	for _, rf := range refunds {
		item, ok := byID[rf.ItemID]
		if !ok {
			return nil, &errs.NotFoundError{Entity: "order item", ID: rf.ItemID}
		}
		if rf.Quantity < 1 || rf.Quantity > item.Quantity-item.RefundedQuantity {
			return nil, &errs.ValidationError{Field: "quantity", Reason: "exceeds refundable quantity"}
		}
		amount := round2(item.UnitPrice * float64(rf.Quantity))
		item.RefundedQuantity += rf.Quantity
		item.RefundedAmount = round2(item.RefundedAmount + amount)
		item.UpdatedAt = now
		if err := uc.repo.UpdateItem(ctx, item); err != nil {
			return nil, err
		}
		refundTotal += amount
	}

	o.RefundedAmount = round2(o.RefundedAmount + refundTotal)
	fullyRefunded := true
	for i := range items {
		if items[i].RefundedQuantity < items[i].Quantity {
			fullyRefunded = false
			break
		}
	}
	if fullyRefunded {
		o.PaymentStatus = model.PaymentStatusRefunded
		if o.CanTransitionTo(model.OrderStatusRefunded) {
			o.Status = model.OrderStatusRefunded
			o.StampStatus(model.OrderStatusRefunded, now)
		}
	} else {
		o.PaymentStatus = model.PaymentStatusPartiallyRefunded
	}
	o.UpdatedAt = now

	if err := uc.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	uc.logger.Info("order refund recorded",
		zap.String("order_id", o.ID), zap.Float64("amount", refundTotal))
	o.Items = items
	return o, nil
}

func (uc *orderUseCase) loadProducts(ctx context.Context, items []model.CartItem) (map[string]*model.Product, error) {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ProductID
	}
	products, err := uc.productRepo.BatchFindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

func (uc *orderUseCase) publishOrderCreated(ctx context.Context, o *model.Order, items []model.OrderItem) {
	if uc.publisher == nil {
		return
	}
	event := dto.OrderCreatedEvent{
		EventID:   uuid.New().String(),
		EventType: "OrderCreated",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload: dto.OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			Total:       o.Total,
		},
	}
	for i := range items {
		event.Payload.Items = append(event.Payload.Items, dto.OrderCreatedItem{
			ProductID: items[i].ProductID,
			Quantity:  items[i].Quantity,
			UnitPrice: items[i].UnitPrice,
		})
	}
	value, err := json.Marshal(event)
	if err != nil {
		uc.logger.Error("failed to marshal OrderCreated event", zap.Error(err))
		return
	}
	if err := uc.publisher.Publish(ctx, o.ID, value); err != nil {
		uc.logger.Error("failed to publish OrderCreated event",
			zap.String("order_id", o.ID), zap.Error(err))
	}
}

func collectShortfalls(items []model.CartItem, products map[string]*model.Product) []errs.StockShortfall {
	var shortfalls []errs.StockShortfall
	for i := range items {
		item := &items[i]
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			shortfalls = append(shortfalls, errs.StockShortfall{
				ProductID: item.ProductID,
				Requested: item.Quantity,
			})
			continue
		}
		if !p.HasStock(item.Quantity) {
			shortfalls = append(shortfalls, errs.StockShortfall{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   item.Quantity,
				Available:   p.StockQuantity,
			})
		}
	}
	return shortfalls
}

func cartStateReason(c *model.Cart) string {
	switch {
	case !c.IsActive:
		return "cart is inactive"
	case c.IsExpired():
		return "cart has expired"
	default:
		return "cart is empty"
	}
}

func snapshotOf(p *model.Product) dto.ProductSnapshot {
	s := dto.ProductSnapshot{
		Name:  p.Name,
		SKU:   p.SKU,
		Price: p.Price,
	}
	if p.ImageURL != nil {
		s.ImageURL = *p.ImageURL
	}
	if p.CategoryID != nil {
		s.CategoryID = *p.CategoryID
	}
	if p.Platform != nil {
		s.Platform = *p.Platform
	}
	return s
}

// generateOrderNumber builds ORD-<date>-<random suffix>. Collisions are
// rare but handled by the retry in createWithNumberRetry.
func generateOrderNumber(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

package usecase

import (
	"context"
	"time"

	"github.com/fekuna/commerce-service/internal/cart"
	"github.com/fekuna/commerce-service/internal/cart/dto"
	"github.com/fekuna/commerce-service/internal/errs"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/product"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type cartUseCase struct {
	repo        cart.Repository
	productRepo product.Repository
	logger      logger.ZapLogger
}

func NewCartUseCase(repo cart.Repository, productRepo product.Repository, log logger.ZapLogger) cart.UseCase {
	return &cartUseCase{
		repo:        repo,
		productRepo: productRepo,
		logger:      log,
	}
}

func (uc *cartUseCase) GetCart(ctx context.Context, owner dto.CartOwner) (*model.Cart, error) {
	if !owner.Valid() {
		return nil, &errs.ValidationError{Field: "owner", Reason: "exactly one of user id or guest id required"}
	}
	c, err := uc.repo.FindActiveByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		// Zero cart, not persisted until the first add.
		return emptyCart(owner), nil
	}
	return uc.reload(ctx, c)
}

func (uc *cartUseCase) AddToCart(ctx context.Context, owner dto.CartOwner, input *dto.AddToCartInput) (*model.Cart, error) {
	if !owner.Valid() {
		return nil, &errs.ValidationError{Field: "owner", Reason: "exactly one of user id or guest id required"}
	}
	if input.Quantity < model.CartItemMinQuantity || input.Quantity > model.CartItemMaxQuantity {
		return nil, &errs.OutOfRangeError{
			Field: "quantity",
			Min:   model.CartItemMinQuantity,
			Max:   model.CartItemMaxQuantity,
			Value: input.Quantity,
		}
	}

	p, err := uc.productRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, &errs.NotFoundError{Entity: "product", ID: input.ProductID}
	}

	c, err := uc.repo.FindActiveByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = emptyCart(owner)
		if err := uc.repo.CreateCart(ctx, c); err != nil {
			return nil, err
		}
		uc.logger.Info("cart created", zap.String("cart_id", c.ID), zap.Bool("guest", c.IsGuest()))
	}

	existing, err := uc.repo.FindItemByProduct(ctx, c.ID, input.ProductID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		newQty := existing.Quantity + input.Quantity
		if newQty > model.CartItemMaxQuantity {
			return nil, &errs.OutOfRangeError{
				Field: "quantity",
				Min:   model.CartItemMinQuantity,
				Max:   model.CartItemMaxQuantity,
				Value: newQty,
			}
		}
		if !p.HasStock(newQty) {
			return nil, insufficientStock(p, newQty)
		}
		existing.SetQuantity(newQty)
		existing.UpdatedAt = time.Now()
		if err := uc.repo.UpdateItem(ctx, existing); err != nil {
			return nil, err
		}
	} else {
		if !p.HasStock(input.Quantity) {
			return nil, insufficientStock(p, input.Quantity)
		}
		now := time.Now()
		item := &model.CartItem{
			BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			CartID:     c.ID,
			ProductID:  p.ID,
			PriceAtAdd: p.Price,
		}
		if input.Options != "" {
			item.Options = &input.Options
		}
		item.SetQuantity(input.Quantity)
		if err := uc.repo.CreateItem(ctx, item); err != nil {
			return nil, err
		}
	}

	return uc.recalculateAndSave(ctx, c)
}

func (uc *cartUseCase) UpdateQuantity(ctx context.Context, owner dto.CartOwner, itemID string, quantity int) (*model.Cart, error) {
	if quantity < model.CartItemMinQuantity {
		return nil, &errs.InvalidQuantityError{Quantity: quantity}
	}
	if quantity > model.CartItemMaxQuantity {
		return nil, &errs.OutOfRangeError{
			Field: "quantity",
			Min:   model.CartItemMinQuantity,
			Max:   model.CartItemMaxQuantity,
			Value: quantity,
		}
	}

	c, item, err := uc.ownedItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}

	p, err := uc.productRepo.FindByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &errs.NotFoundError{Entity: "product", ID: item.ProductID}
	}
	if !p.HasStock(quantity) {
		return nil, insufficientStock(p, quantity)
	}

	item.SetQuantity(quantity)
	item.UpdatedAt = time.Now()
	if err := uc.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	return uc.recalculateAndSave(ctx, c)
}

func (uc *cartUseCase) RemoveItem(ctx context.Context, owner dto.CartOwner, itemID string) (*model.Cart, error) {
	c, _, err := uc.ownedItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.DeleteItem(ctx, c.ID, itemID); err != nil {
		return nil, err
	}
	return uc.recalculateAndSave(ctx, c)
}

func (uc *cartUseCase) ClearCart(ctx context.Context, owner dto.CartOwner) (*model.Cart, error) {
	c, err := uc.requireCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.DeleteItems(ctx, c.ID); err != nil {
		return nil, err
	}
	return uc.recalculateAndSave(ctx, c)
}

func (uc *cartUseCase) MergeGuestCart(ctx context.Context, guestID, userID string) (*model.Cart, error) {
	if guestID == "" || userID == "" {
		return nil, &errs.ValidationError{Field: "owner", Reason: "guest id and user id required"}
	}

	guestCart, err := uc.repo.FindActiveByOwner(ctx, dto.CartOwner{GuestID: guestID})
	if err != nil {
		return nil, err
	}
	userCart, err := uc.repo.FindActiveByOwner(ctx, dto.CartOwner{UserID: userID})
	if err != nil {
		return nil, err
	}

	if guestCart == nil {
		if userCart == nil {
			return emptyCart(dto.CartOwner{UserID: userID}), nil
		}
		return uc.reload(ctx, userCart)
	}

	if userCart == nil {
		// No user cart: flip ownership instead of copying line by line.
		guestCart.UserID = &userID
		guestCart.GuestID = nil
		guestCart.ExpiresAt = nil
		guestCart.UpdatedAt = time.Now()
		if err := uc.repo.UpdateCart(ctx, guestCart); err != nil {
			return nil, err
		}
		uc.logger.Info("guest cart re-owned",
			zap.String("cart_id", guestCart.ID), zap.String("user_id", userID))
		return uc.reload(ctx, guestCart)
	}

	guestItems, err := uc.repo.FindItems(ctx, guestCart.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range guestItems {
		gi := &guestItems[i]
		existing, err := uc.repo.FindItemByProduct(ctx, userCart.ID, gi.ProductID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			// Quantities are summed; stock limits apply at checkout, not here.
			existing.SetQuantity(existing.Quantity + gi.Quantity)
			existing.UpdatedAt = now
			if err := uc.repo.UpdateItem(ctx, existing); err != nil {
				return nil, err
			}
			if err := uc.repo.DeleteItem(ctx, guestCart.ID, gi.ID); err != nil {
				return nil, err
			}
		} else {
			gi.CartID = userCart.ID
			gi.UpdatedAt = now
			if err := uc.repo.UpdateItem(ctx, gi); err != nil {
				return nil, err
			}
		}
	}

	guestCart.IsActive = false
	guestCart.UpdatedAt = now
	if err := uc.repo.UpdateCart(ctx, guestCart); err != nil {
		return nil, err
	}
	uc.logger.Info("guest cart merged",
		zap.String("guest_cart_id", guestCart.ID),
		zap.String("user_cart_id", userCart.ID),
		zap.Int("lines", len(guestItems)))

	return uc.recalculateAndSave(ctx, userCart)
}

func (uc *cartUseCase) ValidateStock(ctx context.Context, owner dto.CartOwner) ([]dto.StockCheckLine, error) {
	c, err := uc.requireCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	items, err := uc.repo.FindItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []dto.StockCheckLine{}, nil
	}

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

	report := make([]dto.StockCheckLine, 0, len(items))
	for i := range items {
		item := &items[i]
		line := dto.StockCheckLine{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Requested: item.Quantity,
		}
		if p, ok := byID[item.ProductID]; ok && p.IsActive {
			line.ProductName = p.Name
			line.Available = p.StockQuantity
			line.Fulfillable = p.HasStock(item.Quantity)
			line.PriceChanged = item.HasPriceChanged(p.Price)
			line.PriceDifference = item.PriceDifference(p.Price)
		}
		report = append(report, line)
	}
	return report, nil
}

func (uc *cartUseCase) UpdateItemPrice(ctx context.Context, owner dto.CartOwner, itemID string) (*model.Cart, error) {
	c, item, err := uc.ownedItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}

	p, err := uc.productRepo.FindByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &errs.NotFoundError{Entity: "product", ID: item.ProductID}
	}

	item.PriceAtAdd = p.Price
	item.SetQuantity(item.Quantity)
	item.UpdatedAt = time.Now()
	if err := uc.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	return uc.recalculateAndSave(ctx, c)
}

// recalculateAndSave rederives the cart aggregates from the current item set
// and persists them. Every mutating operation funnels through here so the
// totals invariant holds after each call.
func (uc *cartUseCase) recalculateAndSave(ctx context.Context, c *model.Cart) (*model.Cart, error) {
	items, err := uc.repo.FindItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Recalculate(items)
	c.UpdatedAt = time.Now()
	if err := uc.repo.UpdateCart(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *cartUseCase) reload(ctx context.Context, c *model.Cart) (*model.Cart, error) {
	items, err := uc.repo.FindItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return c, nil
}

func (uc *cartUseCase) requireCart(ctx context.Context, owner dto.CartOwner) (*model.Cart, error) {
	if !owner.Valid() {
		return nil, &errs.ValidationError{Field: "owner", Reason: "exactly one of user id or guest id required"}
	}
	c, err := uc.repo.FindActiveByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &errs.NotFoundError{Entity: "cart", ID: owner.UserID + owner.GuestID}
	}
	return c, nil
}

func (uc *cartUseCase) ownedItem(ctx context.Context, owner dto.CartOwner, itemID string) (*model.Cart, *model.CartItem, error) {
	c, err := uc.requireCart(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	item, err := uc.repo.FindItem(ctx, c.ID, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, &errs.NotFoundError{Entity: "cart item", ID: itemID}
	}
	return c, item, nil
}

func emptyCart(owner dto.CartOwner) *model.Cart {
	now := time.Now()
	c := &model.Cart{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		IsActive:  true,
	}
	if owner.UserID != "" {
		c.UserID = &owner.UserID
	} else {
		c.GuestID = &owner.GuestID
		expires := now.Add(model.GuestCartTTL)
		c.ExpiresAt = &expires
	}
	return c
}

func insufficientStock(p *model.Product, requested int) error {
	return &errs.InsufficientStockError{Shortfalls: []errs.StockShortfall{{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.StockQuantity,
	}}}
}

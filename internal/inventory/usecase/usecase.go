package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/commerce-service/internal/errs"
	"github.com/fekuna/commerce-service/internal/inventory"
	"github.com/fekuna/commerce-service/internal/inventory/dto"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/product"
	"github.com/fekuna/commerce-service/pkg/cache"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockTTL      = 5 * time.Second
	lockAttempts = 3
	casAttempts  = 3
)

type inventoryUseCase struct {
	repo        inventory.Repository
	productRepo product.Repository
	locker      cache.Locker
	logger      logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, productRepo product.Repository, locker cache.Locker, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:        repo,
		productRepo: productRepo,
		locker:      locker,
		logger:      log,
	}
}

func (uc *inventoryUseCase) RecordTransaction(ctx context.Context, input *dto.RecordTransactionInput) (*dto.TransactionResult, error) {
	if !model.ValidTransactionType(input.TransactionType) {
		return nil, &errs.ValidationError{Field: "transaction_type", Reason: "unknown type"}
	}
	if input.Quantity == 0 {
		return nil, &errs.ValidationError{Field: "quantity", Reason: "delta must be non-zero"}
	}

	lockKey := fmt.Sprintf("lock:inventory:%s", input.ProductID)
	lockValue := uuid.New().String()
	acquired := false
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire inventory lock", zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !acquired {
		return nil, errors.New("system busy, please try again later (lock)")
	}
	defer uc.locker.ReleaseLock(ctx, lockKey, lockValue)

	// The guarded write can still lose to a concurrent checkout that does
	// not take the per-product lock, so retry on conflict with a fresh read.
	var txn *model.InventoryTransaction
	for attempt := 0; attempt < casAttempts; attempt++ {
		p, err := uc.productRepo.FindByID(ctx, input.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &errs.NotFoundError{Entity: "product", ID: input.ProductID}
		}

		stockBefore := p.StockQuantity
		stockAfter := stockBefore + input.Quantity
		if stockAfter < 0 {
			return nil, &errs.NegativeStockError{
				ProductID:   input.ProductID,
				StockBefore: stockBefore,
				Quantity:    input.Quantity,
			}
		}

		txn = buildTransaction(input, stockBefore, stockAfter)
		err = uc.repo.ApplyTransaction(ctx, txn)
		if err == nil {
			break
		}
		if errors.Is(err, inventory.ErrStockConflict) {
			txn = nil
			continue
		}
		return nil, err
	}
	if txn == nil {
		return nil, errors.New("stock level changing too fast, please retry")
	}

	uc.logger.Info("inventory transaction recorded",
		zap.String("transaction_id", txn.ID),
		zap.String("product_id", txn.ProductID),
		zap.String("type", string(txn.TransactionType)),
		zap.Int("quantity", txn.Quantity),
		zap.Int("stock_after", txn.StockAfter),
	)

	return &dto.TransactionResult{
		TransactionID: txn.ID,
		StockBefore:   txn.StockBefore,
		StockAfter:    txn.StockAfter,
	}, nil
}

func (uc *inventoryUseCase) CreateOrderStockOut(ctx context.Context, orderID string, items []dto.StockOutItem) ([]model.InventoryTransaction, error) {
	if len(items) == 0 {
		return nil, &errs.ValidationError{Field: "items", Reason: "must not be empty"}
	}
	txns, err := uc.repo.ApplyOrderStockOut(ctx, orderID, items)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("order stock-out applied",
		zap.String("order_id", orderID), zap.Int("lines", len(txns)))
	return txns, nil
}

func (uc *inventoryUseCase) CreateOrderReturn(ctx context.Context, orderID string, items []dto.StockOutItem) ([]model.InventoryTransaction, error) {
	txns := make([]model.InventoryTransaction, 0, len(items))
	for _, item := range items {
		result, err := uc.RecordTransaction(ctx, &dto.RecordTransactionInput{
			ProductID:       item.ProductID,
			TransactionType: model.TransactionReturn,
			Quantity:        item.Quantity,
			Notes:           "order cancellation",
			ReferenceType:   "order",
			ReferenceID:     orderID,
			CreatedBy:       "system",
		})
		if err != nil {
			return txns, err
		}
		txn, err := uc.repo.FindByID(ctx, result.TransactionID)
		if err != nil {
			return txns, err
		}
		if txn != nil {
			txns = append(txns, *txn)
		}
	}
	return txns, nil
}

func (uc *inventoryUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func buildTransaction(input *dto.RecordTransactionInput, stockBefore, stockAfter int) *model.InventoryTransaction {
	txn := &model.InventoryTransaction{
		ID:              uuid.New().String(),
		ProductID:       input.ProductID,
		TransactionType: input.TransactionType,
		Quantity:        input.Quantity,
		StockBefore:     stockBefore,
		StockAfter:      stockAfter,
		Notes:           input.Notes,
		CreatedAt:       time.Now(),
	}
	if input.ReferenceType != "" {
		txn.ReferenceType = &input.ReferenceType
	}
	if input.ReferenceID != "" {
		txn.ReferenceID = &input.ReferenceID
	}
	if input.CreatedBy != "" && input.CreatedBy != "unknown" {
		txn.CreatedBy = &input.CreatedBy
	}
	if input.UnitCost != nil {
		txn.UnitCost = input.UnitCost
		total := *input.UnitCost * float64(abs(input.Quantity))
		txn.TotalCost = &total
	}
	return txn
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

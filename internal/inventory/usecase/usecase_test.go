package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/commerce-service/internal/errs"
	"github.com/fekuna/commerce-service/internal/inventory"
	"github.com/fekuna/commerce-service/internal/inventory/dto"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/product"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

type fakeLocker struct {
	denials  int
	acquired int
	released int
}

func (f *fakeLocker) AcquireLock(_ context.Context, _, _ string, _ time.Duration) (bool, error) {
	if f.denials > 0 {
		f.denials--
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeLocker) ReleaseLock(_ context.Context, _, _ string) error {
	f.released++
	return nil
}

// fakeInvRepo applies transactions against the shared product map and can
// inject guarded-write conflicts, moving stock underneath the caller the way
// a concurrent checkout would.
type fakeInvRepo struct {
	products *fakeProductRepo
	txns     map[string]model.InventoryTransaction

	conflicts     int
	conflictDrift int // stock delta applied when a conflict fires
}

func newFakeInvRepo(products *fakeProductRepo) *fakeInvRepo {
	return &fakeInvRepo{products: products, txns: make(map[string]model.InventoryTransaction)}
}

func (f *fakeInvRepo) ApplyTransaction(_ context.Context, txn *model.InventoryTransaction) error {
	p := f.products.products[txn.ProductID]
	if f.conflicts > 0 {
		f.conflicts--
		p.StockQuantity += f.conflictDrift
		f.products.products[txn.ProductID] = p
		return inventory.ErrStockConflict
	}
	if p.StockQuantity != txn.StockBefore {
		return inventory.ErrStockConflict
	}
	p.StockQuantity = txn.StockAfter
	f.products.products[txn.ProductID] = p
	f.txns[txn.ID] = *txn
	return nil
}

func (f *fakeInvRepo) ApplyOrderStockOut(_ context.Context, orderID string, items []dto.StockOutItem) ([]model.InventoryTransaction, error) {
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

	ref := "order"
	txns := make([]model.InventoryTransaction, 0, len(items))
	for _, item := range items {
		p := f.products.products[item.ProductID]
		txn := model.InventoryTransaction{
			ID:              orderID + "-" + item.ProductID,
			ProductID:       item.ProductID,
			TransactionType: model.TransactionStockOut,
			Quantity:        -item.Quantity,
			StockBefore:     p.StockQuantity,
			StockAfter:      p.StockQuantity - item.Quantity,
			ReferenceType:   &ref,
			ReferenceID:     &orderID,
		}
		p.StockQuantity = txn.StockAfter
		f.products.products[item.ProductID] = p
		f.txns[txn.ID] = txn
		txns = append(txns, txn)
	}
	return txns, nil
}

func (f *fakeInvRepo) FindByID(_ context.Context, id string) (*model.InventoryTransaction, error) {
	if txn, ok := f.txns[id]; ok {
		return &txn, nil
	}
	return nil, nil
}

func (f *fakeInvRepo) FindAll(_ context.Context, _ *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	var out []model.InventoryTransaction
	for _, txn := range f.txns {
		out = append(out, txn)
	}
	return out, len(out), nil
}

type fixture struct {
	products *fakeProductRepo
	repo     *fakeInvRepo
	locker   *fakeLocker
	uc       inventory.UseCase
}

func newFixture(stock int) *fixture {
	products := &fakeProductRepo{products: map[string]model.Product{
		"p1": {BaseModel: model.BaseModel{ID: "p1"}, Name: "Product p1", StockQuantity: stock, IsActive: true},
	}}
	f := &fixture{
		products: products,
		repo:     newFakeInvRepo(products),
		locker:   &fakeLocker{},
	}
	f.uc = NewInventoryUseCase(f.repo, products, f.locker, logger.NewNop())
	return f
}

func TestRecordTransactionStockIn(t *testing.T) {
	f := newFixture(10)

	result, err := f.uc.RecordTransaction(context.Background(), &dto.RecordTransactionInput{
		ProductID:       "p1",
		TransactionType: model.TransactionStockIn,
		Quantity:        5,
		Notes:           "resupply",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.StockBefore)
	assert.Equal(t, 15, result.StockAfter)
	assert.Equal(t, 15, f.products.products["p1"].StockQuantity)

	txn := f.repo.txns[result.TransactionID]
	assert.Equal(t, model.TransactionStockIn, txn.TransactionType)
	assert.Equal(t, 5, txn.Quantity)
	assert.Equal(t, 1, f.locker.released, "the lock is released after the write")
}

func TestRecordTransactionNegativeStockRejected(t *testing.T) {
	f := newFixture(3)

	_, err := f.uc.RecordTransaction(context.Background(), &dto.RecordTransactionInput{
		ProductID:       "p1",
		TransactionType: model.TransactionStockOut,
		Quantity:        -4,
	})

	var negErr *errs.NegativeStockError
	require.ErrorAs(t, err, &negErr)
	assert.Equal(t, 3, negErr.StockBefore)
	assert.Equal(t, 3, f.products.products["p1"].StockQuantity, "nothing may be written")
	assert.Empty(t, f.repo.txns)
}

func TestRecordTransactionValidation(t *testing.T) {
	f := newFixture(3)
	ctx := context.Background()

	var vErr *errs.ValidationError

	_, err := f.uc.RecordTransaction(ctx, &dto.RecordTransactionInput{
		ProductID:       "p1",
		TransactionType: model.TransactionType("teleport"),
		Quantity:        1,
	})
	require.ErrorAs(t, err, &vErr)

	_, err = f.uc.RecordTransaction(ctx, &dto.RecordTransactionInput{
		ProductID:       "p1",
		TransactionType: model.TransactionAdjustment,
		Quantity:        0,
	})
	require.ErrorAs(t, err, &vErr)
}

func TestRecordTransactionUnknownProduct(t *testing.T) {
	f := newFixture(3)

	_, err := f.uc.RecordTransaction(context.Background(), &dto.RecordTransactionInput{
		ProductID:       "ghost",
		TransactionType: model.TransactionStockIn,
		Quantity:        1,
	})

	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRecordTransactionRetriesOnConflict(t *testing.T) {
	f := newFixture(10)
	// First guarded write loses to a concurrent deduction of 2 units.
	f.repo.conflicts = 1
	f.repo.conflictDrift = -2

	result, err := f.uc.RecordTransaction(context.Background(), &dto.RecordTransactionInput{
		ProductID:       "p1",
		TransactionType: model.TransactionStockIn,
		Quantity:        5,
	})
	require.NoError(t, err)

	assert.Equal(t, 8, result.StockBefore, "the retry re-reads the moved stock level")
	assert.Equal(t, 13, result.StockAfter)
	assert.Equal(t, 13, f.products.products["p1"].StockQuantity)
}

func TestRecordTransactionGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(10)
	f.repo.conflicts = 10

	_, err := f.uc.RecordTransaction(context.Background(), &dto.RecordTransactionInput{
		ProductID:       "p1",
		TransactionType: model.TransactionStockIn,
		Quantity:        5,
	})
	require.Error(t, err)
}

func TestRecordTransactionLockRetry(t *testing.T) {
	f := newFixture(10)
	f.locker.denials = 2 // acquired on the third attempt

	_, err := f.uc.RecordTransaction(context.Background(), &dto.RecordTransactionInput{
		ProductID:       "p1",
		TransactionType: model.TransactionStockIn,
		Quantity:        1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.locker.acquired)
}

func TestRecordTransactionUnitCost(t *testing.T) {
	f := newFixture(10)
	cost := 2.50

	result, err := f.uc.RecordTransaction(context.Background(), &dto.RecordTransactionInput{
		ProductID:       "p1",
		TransactionType: model.TransactionStockOut,
		Quantity:        -4,
		UnitCost:        &cost,
	})
	require.NoError(t, err)

	txn := f.repo.txns[result.TransactionID]
	require.NotNil(t, txn.TotalCost)
	assert.Equal(t, 10.00, *txn.TotalCost, "total cost uses the absolute quantity")
}

func TestCreateOrderStockOut(t *testing.T) {
	f := newFixture(5)

	txns, err := f.uc.CreateOrderStockOut(context.Background(), "o1",
		[]dto.StockOutItem{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	require.Len(t, txns, 1)
	assert.Equal(t, -2, txns[0].Quantity)
	assert.Equal(t, 5, txns[0].StockBefore)
	assert.Equal(t, 3, txns[0].StockAfter)
	assert.Equal(t, 3, f.products.products["p1"].StockQuantity)
}

func TestCreateOrderStockOutEmpty(t *testing.T) {
	f := newFixture(5)

	_, err := f.uc.CreateOrderStockOut(context.Background(), "o1", nil)

	var vErr *errs.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestCreateOrderReturnRestoresStock(t *testing.T) {
	f := newFixture(3)

	txns, err := f.uc.CreateOrderReturn(context.Background(), "o1",
		[]dto.StockOutItem{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	require.Len(t, txns, 1)
	assert.Equal(t, model.TransactionReturn, txns[0].TransactionType)
	assert.Equal(t, 2, txns[0].Quantity)
	assert.Equal(t, 5, f.products.products["p1"].StockQuantity)
	require.NotNil(t, txns[0].ReferenceID)
	assert.Equal(t, "o1", *txns[0].ReferenceID)
}

// internal/domain/inventory/service_test.go
package inventory

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&StockPosition{}, &StockTransaction{}))
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	cfg := &config.Config{}
	cfg.Inventory.DefaultMinStockLevel = 10
	return NewService(newTestDB(t), cfg)
}

func TestPostTransaction(t *testing.T) {
	svc := newTestService(t)

	t.Run("creates position on first posting", func(t *testing.T) {
		txn, err := svc.PostTransaction(&PostTransactionRequest{
			BranchID:      1,
			ProductSkuID:  1,
			Kind:          KindPurchase,
			QuantityDelta: 50,
			Notes:         "initial stock",
		})
		require.NoError(t, err)
		assert.Equal(t, 50, txn.BalanceAfter)
		assert.Equal(t, 50, txn.QuantityDelta)
		assert.True(t, txn.Source().IsManual())

		position, err := svc.GetPosition(1, 1)
		require.NoError(t, err)
		assert.Equal(t, 50, position.Quantity)
		assert.Equal(t, 10, position.MinStockLevel)
	})

	t.Run("rejects zero delta", func(t *testing.T) {
		_, err := svc.PostTransaction(&PostTransactionRequest{
			BranchID:      1,
			ProductSkuID:  1,
			Kind:          KindAdjustment,
			QuantityDelta: 0,
		})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := svc.PostTransaction(&PostTransactionRequest{
			BranchID:      1,
			ProductSkuID:  1,
			Kind:          "restock",
			QuantityDelta: 5,
		})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestPostTransactionOverdraw(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.PostTransaction(&PostTransactionRequest{
		BranchID: 1, ProductSkuID: 1, Kind: KindPurchase, QuantityDelta: 10,
	})
	require.NoError(t, err)

	t.Run("outbound beyond quantity fails and leaves no trace", func(t *testing.T) {
		_, err := svc.PostTransaction(&PostTransactionRequest{
			BranchID: 1, ProductSkuID: 1, Kind: KindSale, QuantityDelta: -11,
		})
		var stockErr *apperrors.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		require.Len(t, stockErr.Shortfalls, 1)
		assert.Equal(t, 11, stockErr.Shortfalls[0].Requested)
		assert.Equal(t, 10, stockErr.Shortfalls[0].Available)

		quantity, err := svc.CurrentQuantity(1, 1)
		require.NoError(t, err)
		assert.Equal(t, 10, quantity)

		position, err := svc.GetPosition(1, 1)
		require.NoError(t, err)
		history, err := svc.History(position.ID, nil)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("outbound of the exact quantity leaves zero", func(t *testing.T) {
		txn, err := svc.PostTransaction(&PostTransactionRequest{
			BranchID: 1, ProductSkuID: 1, Kind: KindSale, QuantityDelta: -10,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, txn.BalanceAfter)

		quantity, err := svc.CurrentQuantity(1, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, quantity)
	})
}

func TestPostClamped(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.PostTransaction(&PostTransactionRequest{
		BranchID: 1, ProductSkuID: 1, Kind: KindPurchase, QuantityDelta: 10,
	})
	require.NoError(t, err)

	var txn *StockTransaction
	err = svc.db.Transaction(func(tx *gorm.DB) error {
		var postErr error
		txn, postErr = svc.PostClamped(tx, 1, 1, KindSale, -25, SaleRef(7), "Sale SALE20250101001")
		return postErr
	})
	require.NoError(t, err)

	// The full requested delta is recorded even though the position floors at zero
	assert.Equal(t, -25, txn.QuantityDelta)
	assert.Equal(t, 0, txn.BalanceAfter)
	assert.Equal(t, SourceTypeSale, txn.SourceType)
	require.NotNil(t, txn.SourceID)
	assert.Equal(t, uint(7), *txn.SourceID)

	quantity, err := svc.CurrentQuantity(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, quantity)
}

func TestAdjustStock(t *testing.T) {
	svc := newTestService(t)

	t.Run("sets an absolute quantity and records the difference", func(t *testing.T) {
		newQuantity := 40
		txn, err := svc.AdjustStock(&AdjustStockRequest{
			BranchID: 2, ProductSkuID: 3, NewQuantity: &newQuantity,
		})
		require.NoError(t, err)
		assert.Equal(t, KindAdjustment, txn.Kind)
		assert.Equal(t, 40, txn.QuantityDelta)
		assert.Equal(t, 40, txn.BalanceAfter)
		assert.Equal(t, "Stock adjusted from 0 to 40", txn.Notes)

		lower := 15
		txn, err = svc.AdjustStock(&AdjustStockRequest{
			BranchID: 2, ProductSkuID: 3, NewQuantity: &lower, Notes: "cycle count",
		})
		require.NoError(t, err)
		assert.Equal(t, -25, txn.QuantityDelta)
		assert.Equal(t, 15, txn.BalanceAfter)
		assert.Equal(t, "cycle count", txn.Notes)
	})

	t.Run("rejects negative targets", func(t *testing.T) {
		negative := -1
		_, err := svc.AdjustStock(&AdjustStockRequest{
			BranchID: 2, ProductSkuID: 3, NewQuantity: &negative,
		})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestHistoryRunningBalance(t *testing.T) {
	svc := newTestService(t)

	deltas := []struct {
		kind  TransactionKind
		delta int
	}{
		{KindPurchase, 100},
		{KindSale, -30},
		{KindPurchase, 20},
		{KindSale, -45},
	}

	running := 0
	for _, d := range deltas {
		txn, err := svc.PostTransaction(&PostTransactionRequest{
			BranchID: 1, ProductSkuID: 1, Kind: d.kind, QuantityDelta: d.delta,
		})
		require.NoError(t, err)
		running += d.delta
		assert.Equal(t, running, txn.BalanceAfter)
	}

	position, err := svc.GetPosition(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 45, position.Quantity)

	t.Run("newest first", func(t *testing.T) {
		history, err := svc.History(position.ID, nil)
		require.NoError(t, err)
		require.Len(t, history, 4)
		assert.Equal(t, -45, history[0].QuantityDelta)
		assert.Equal(t, 100, history[3].QuantityDelta)
	})

	t.Run("kind filter", func(t *testing.T) {
		history, err := svc.History(position.ID, &HistoryRequest{Kind: KindSale})
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("unknown position", func(t *testing.T) {
		_, err := svc.History(9999, nil)
		var notFoundErr *apperrors.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestOptimisticLockVersion(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.PostTransaction(&PostTransactionRequest{
			BranchID: 1, ProductSkuID: 1, Kind: KindPurchase, QuantityDelta: 5,
		})
		require.NoError(t, err)
	}

	var position StockPosition
	require.NoError(t, svc.db.Where("branch_id = ? AND product_sku_id = ?", 1, 1).First(&position).Error)
	assert.Equal(t, 3, position.LockVersion)
}

func TestListPositionsStatusFilter(t *testing.T) {
	svc := newTestService(t)

	seed := []struct {
		productSkuID uint
		quantity     int
	}{
		{1, 0},  // out of stock
		{2, 5},  // low (min level 10)
		{3, 50}, // in stock
	}
	for _, s := range seed {
		if s.quantity > 0 {
			_, err := svc.PostTransaction(&PostTransactionRequest{
				BranchID: 1, ProductSkuID: s.productSkuID, Kind: KindPurchase, QuantityDelta: s.quantity,
			})
			require.NoError(t, err)
		} else {
			require.NoError(t, svc.db.Create(&StockPosition{BranchID: 1, ProductSkuID: s.productSkuID, MinStockLevel: 10}).Error)
		}
	}

	cases := []struct {
		status StockStatus
		want   int
	}{
		{StockStatusOutOfStock, 1},
		{StockStatusLowStock, 1},
		{StockStatusInStock, 1},
		{"", 3},
	}
	for _, c := range cases {
		positions, total, err := svc.ListPositions(&PositionListRequest{BranchID: 1, Status: c.status, Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(c.want), total, "status %q", c.status)
		assert.Len(t, positions, c.want)
	}

	t.Run("low stock report includes out of stock rows", func(t *testing.T) {
		positions, err := svc.LowStock(1)
		require.NoError(t, err)
		assert.Len(t, positions, 2)
	})
}

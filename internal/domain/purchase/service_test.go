// internal/domain/purchase/service_test.go
package purchase

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/catalog"
	"github.com/your-org/retail-backend/internal/domain/inventory"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalog.ProductSku{},
		&inventory.StockPosition{},
		&inventory.StockTransaction{},
		&PurchaseOrder{},
		&PurchaseOrderItem{},
	))

	for i := 1; i <= 3; i++ {
		require.NoError(t, db.Create(&catalog.ProductSku{
			SkuName: fmt.Sprintf("Product %d", i),
			SkuCode: fmt.Sprintf("SKU-%03d", i),
		}).Error)
	}

	cfg := &config.Config{}
	cfg.Inventory.DefaultMinStockLevel = 10
	return NewService(db, cfg, inventory.NewService(db, cfg))
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createOrder(t *testing.T, svc *Service, items ...ItemRequest) *PurchaseOrder {
	t.Helper()
	order, err := svc.Create(&CreatePurchaseOrderRequest{
		BranchID:     1,
		VendorName:   "Acme Traders",
		PurchaseDate: "2025-06-10",
		Items:        items,
	})
	require.NoError(t, err)
	return order
}

func TestCreatePurchaseOrder(t *testing.T) {
	svc := newTestService(t)
	prefix := fmt.Sprintf("PO-%s", time.Now().Format("200601"))

	t.Run("assigns sequential numbers within the month", func(t *testing.T) {
		first := createOrder(t, svc, ItemRequest{ProductSkuID: 1, Quantity: 10, UnitCostPrice: price("12.50")})
		assert.Equal(t, prefix+"-0001", first.PONumber)
		assert.Equal(t, StatusPending, first.Status)

		second := createOrder(t, svc, ItemRequest{ProductSkuID: 2, Quantity: 5, UnitCostPrice: price("3.00")})
		assert.Equal(t, prefix+"-0002", second.PONumber)
	})

	t.Run("computes the order total from item lines", func(t *testing.T) {
		order := createOrder(t, svc,
			ItemRequest{ProductSkuID: 1, Quantity: 10, UnitCostPrice: price("12.50")},
			ItemRequest{ProductSkuID: 2, Quantity: 3, UnitCostPrice: price("9.99")},
		)
		// 10*12.50 + 3*9.99 = 154.97
		assert.True(t, order.TotalAmount.Equal(price("154.97")), "got %s", order.TotalAmount)
		assert.Equal(t, 13, order.TotalQuantity())
		assert.Equal(t, 2, order.ItemCount())
	})

	t.Run("stores vendor contact details", func(t *testing.T) {
		order, err := svc.Create(&CreatePurchaseOrderRequest{
			BranchID:           1,
			VendorName:         "Bulk Supplies Co",
			VendorAddress:      "14 Market Road, Bengaluru",
			VendorMobileNumber: "9876543210",
			VendorGSTNumber:    "29ABCDE1234F1Z5",
			PurchaseDate:       "2025-06-10",
			Items:              []ItemRequest{{ProductSkuID: 3, Quantity: 1, UnitCostPrice: price("5.00")}},
		})
		require.NoError(t, err)

		fetched, err := svc.Get(order.ID)
		require.NoError(t, err)
		assert.Equal(t, "14 Market Road, Bengaluru", fetched.VendorAddress)
		assert.Equal(t, "9876543210", fetched.VendorMobileNumber)
		assert.Equal(t, "29ABCDE1234F1Z5", fetched.VendorGSTNumber)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		_, err := svc.Create(&CreatePurchaseOrderRequest{
			BranchID: 1, VendorName: "Acme", PurchaseDate: "10-06-2025",
		})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects blank vendor", func(t *testing.T) {
		_, err := svc.Create(&CreatePurchaseOrderRequest{
			BranchID: 1, VendorName: "  ", PurchaseDate: "2025-06-10",
		})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects non-positive item quantities", func(t *testing.T) {
		_, err := svc.Create(&CreatePurchaseOrderRequest{
			BranchID: 1, VendorName: "Acme", PurchaseDate: "2025-06-10",
			Items: []ItemRequest{{ProductSkuID: 1, Quantity: 0, UnitCostPrice: price("1.00")}},
		})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestConfirmPurchaseOrder(t *testing.T) {
	svc := newTestService(t)

	order := createOrder(t, svc,
		ItemRequest{ProductSkuID: 1, Quantity: 20, UnitCostPrice: price("4.00")},
		ItemRequest{ProductSkuID: 2, Quantity: 7, UnitCostPrice: price("11.00")},
	)

	confirmed, err := svc.Confirm(order.ID, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, "buyer@example.com", confirmed.ConfirmedBy)
	require.NotNil(t, confirmed.ConfirmedAt)

	t.Run("credits stock for every item", func(t *testing.T) {
		quantity, err := svc.inventory.CurrentQuantity(1, 1)
		require.NoError(t, err)
		assert.Equal(t, 20, quantity)

		quantity, err = svc.inventory.CurrentQuantity(1, 2)
		require.NoError(t, err)
		assert.Equal(t, 7, quantity)
	})

	t.Run("writes one ledger row per item tagged with the order", func(t *testing.T) {
		position, err := svc.inventory.GetPosition(1, 1)
		require.NoError(t, err)
		history, err := svc.inventory.History(position.ID, nil)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, inventory.KindPurchase, history[0].Kind)
		assert.Equal(t, inventory.PurchaseOrderRef(order.ID), history[0].Source())
		assert.Contains(t, history[0].Notes, order.PONumber)
	})

	t.Run("re-confirming fails without double-crediting", func(t *testing.T) {
		_, err := svc.Confirm(order.ID, "buyer@example.com")
		var policyErr *apperrors.PolicyError
		require.ErrorAs(t, err, &policyErr)
		assert.Equal(t, "confirmed", policyErr.State)

		quantity, err := svc.inventory.CurrentQuantity(1, 1)
		require.NoError(t, err)
		assert.Equal(t, 20, quantity)
	})

	t.Run("an order without items cannot be confirmed", func(t *testing.T) {
		empty := createOrder(t, svc)
		_, err := svc.Confirm(empty.ID, "buyer@example.com")
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("the status flip refuses an already-decided order", func(t *testing.T) {
		// A second confirm that raced past the pending check must lose at
		// the guarded update instead of crediting stock again
		err := svc.markConfirmed(svc.db, order.ID, "buyer@example.com", time.Now().UTC())
		var conflictErr *apperrors.ConcurrencyConflictError
		require.ErrorAs(t, err, &conflictErr)

		err = svc.markCancelled(svc.db, order.ID, "buyer@example.com")
		require.ErrorAs(t, err, &conflictErr)
	})
}

func TestCancelPurchaseOrder(t *testing.T) {
	svc := newTestService(t)

	order := createOrder(t, svc, ItemRequest{ProductSkuID: 1, Quantity: 5, UnitCostPrice: price("2.00")})

	cancelled, err := svc.Cancel(order.ID, "manager@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "manager@example.com", cancelled.ConfirmedBy)

	t.Run("stock is never touched", func(t *testing.T) {
		quantity, err := svc.inventory.CurrentQuantity(1, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, quantity)
	})

	t.Run("a cancelled order cannot be confirmed or cancelled again", func(t *testing.T) {
		var policyErr *apperrors.PolicyError
		_, err := svc.Confirm(order.ID, "x")
		require.ErrorAs(t, err, &policyErr)
		_, err = svc.Cancel(order.ID, "x")
		require.ErrorAs(t, err, &policyErr)
	})
}

func TestPendingOnlyEdits(t *testing.T) {
	svc := newTestService(t)

	order := createOrder(t, svc, ItemRequest{ProductSkuID: 1, Quantity: 5, UnitCostPrice: price("2.00")})

	t.Run("item changes recompute the total", func(t *testing.T) {
		updated, err := svc.AddItem(order.ID, &ItemRequest{ProductSkuID: 2, Quantity: 2, UnitCostPrice: price("30.00")})
		require.NoError(t, err)
		assert.True(t, updated.TotalAmount.Equal(price("70.00")), "got %s", updated.TotalAmount)

		itemID := updated.Items[0].ID
		updated, err = svc.UpdateItem(order.ID, itemID, &ItemRequest{ProductSkuID: 1, Quantity: 10, UnitCostPrice: price("2.00")})
		require.NoError(t, err)
		assert.True(t, updated.TotalAmount.Equal(price("80.00")), "got %s", updated.TotalAmount)

		updated, err = svc.RemoveItem(order.ID, itemID)
		require.NoError(t, err)
		assert.True(t, updated.TotalAmount.Equal(price("60.00")), "got %s", updated.TotalAmount)
	})

	t.Run("removing an unknown item fails", func(t *testing.T) {
		_, err := svc.RemoveItem(order.ID, 9999)
		var notFoundErr *apperrors.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})

	t.Run("confirmed orders are frozen", func(t *testing.T) {
		_, err := svc.Confirm(order.ID, "buyer@example.com")
		require.NoError(t, err)

		var policyErr *apperrors.PolicyError
		_, err = svc.Update(order.ID, &UpdatePurchaseOrderRequest{VendorName: "Other"})
		require.ErrorAs(t, err, &policyErr)
		_, err = svc.AddItem(order.ID, &ItemRequest{ProductSkuID: 3, Quantity: 1, UnitCostPrice: price("1.00")})
		require.ErrorAs(t, err, &policyErr)
		err = svc.Delete(order.ID)
		require.ErrorAs(t, err, &policyErr)
	})
}

func TestUpdatePurchaseOrderHeader(t *testing.T) {
	svc := newTestService(t)

	order := createOrder(t, svc, ItemRequest{ProductSkuID: 1, Quantity: 5, UnitCostPrice: price("2.00")})

	notes := "deliver to back entrance"
	address := "14 Market Road, Bengaluru"
	gst := "29ABCDE1234F1Z5"
	updated, err := svc.Update(order.ID, &UpdatePurchaseOrderRequest{
		VendorName:      "Bulk Supplies Co",
		VendorAddress:   &address,
		VendorGSTNumber: &gst,
		PurchaseDate:    "2025-07-01",
		Notes:           &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bulk Supplies Co", updated.VendorName)
	assert.Equal(t, address, updated.VendorAddress)
	assert.Equal(t, gst, updated.VendorGSTNumber)
	assert.Equal(t, "deliver to back entrance", updated.Notes)
	assert.Equal(t, "2025-07-01", updated.PurchaseDate.Format("2006-01-02"))

	t.Run("vendor details can be cleared", func(t *testing.T) {
		empty := ""
		updated, err := svc.Update(order.ID, &UpdatePurchaseOrderRequest{VendorGSTNumber: &empty})
		require.NoError(t, err)
		assert.Empty(t, updated.VendorGSTNumber)
		assert.Equal(t, address, updated.VendorAddress)
	})
}

func TestDeletePurchaseOrder(t *testing.T) {
	svc := newTestService(t)

	order := createOrder(t, svc, ItemRequest{ProductSkuID: 1, Quantity: 5, UnitCostPrice: price("2.00")})
	require.NoError(t, svc.Delete(order.ID))

	_, err := svc.Get(order.ID)
	var notFoundErr *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	var count int64
	require.NoError(t, svc.db.Model(&PurchaseOrderItem{}).Where("purchase_order_id = ?", order.ID).Count(&count).Error)
	assert.Zero(t, count)
}

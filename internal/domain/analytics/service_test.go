// internal/domain/analytics/service_test.go
package analytics

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/catalog"
	"github.com/your-org/retail-backend/internal/domain/inventory"
	"github.com/your-org/retail-backend/internal/domain/purchase"
	"github.com/your-org/retail-backend/internal/domain/sale"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	analytics *Service
	sales     *sale.Service
	purchases *purchase.Service
	inventory *inventory.Service
}

func newTestEnv(t *testing.T) *testEnv {
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
		&purchase.PurchaseOrder{},
		&purchase.PurchaseOrderItem{},
		&sale.Sale{},
		&sale.SaleItem{},
		&sale.Payment{},
	))
	require.NoError(t, db.Create(&catalog.ProductSku{SkuName: "Product 1", SkuCode: "SKU-001"}).Error)

	cfg := &config.Config{}
	cfg.Inventory.DefaultMinStockLevel = 10
	inventoryService := inventory.NewService(db, cfg)
	return &testEnv{
		analytics: NewService(db, cfg),
		sales:     sale.NewService(db, cfg, inventoryService),
		purchases: purchase.NewService(db, cfg, inventoryService),
		inventory: inventoryService,
	}
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (env *testEnv) confirmedSale(t *testing.T, customer, saleDate string, unitPrice string) *sale.Sale {
	t.Helper()
	created, err := env.sales.Create(&sale.CreateSaleRequest{
		BranchID: 1, CustomerName: customer, SaleDate: saleDate, DueDate: "2099-01-01",
		Items: []sale.SaleItemRequest{{ProductSkuID: 1, Quantity: 1, UnitPrice: amount(unitPrice)}},
	})
	require.NoError(t, err)
	confirmed, err := env.sales.Confirm(created.ID)
	require.NoError(t, err)
	return confirmed
}

func TestSalesReport(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.inventory.PostTransaction(&inventory.PostTransactionRequest{
		BranchID: 1, ProductSkuID: 1, Kind: inventory.KindPurchase, QuantityDelta: 100,
	})
	require.NoError(t, err)

	paid := env.confirmedSale(t, "Paid Customer", "2025-06-10", "100.00")
	_, err = env.sales.AddPayment(paid.ID, &sale.AddPaymentRequest{Amount: amount("100.00"), PaymentMode: sale.PaymentModeUPI})
	require.NoError(t, err)

	partial := env.confirmedSale(t, "Partial Customer", "2025-06-12", "200.00")
	_, err = env.sales.AddPayment(partial.ID, &sale.AddPaymentRequest{Amount: amount("50.00")})
	require.NoError(t, err)

	env.confirmedSale(t, "Unpaid Customer", "2025-06-15", "80.00")

	report, err := env.analytics.SalesReport(&ReportRequest{
		BranchID: 1, StartDate: "2025-06-01", EndDate: "2025-06-30",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), report.TotalSalesCount)
	assert.True(t, report.TotalSales.Equal(amount("380.00")), "total %s", report.TotalSales)
	assert.True(t, report.TotalPaid.Equal(amount("150.00")), "paid %s", report.TotalPaid)
	assert.True(t, report.TotalDue.Equal(amount("230.00")), "due %s", report.TotalDue)

	assert.Equal(t, 1, report.PaymentStatusBreakdown["completed"])
	assert.Equal(t, 1, report.PaymentStatusBreakdown["partial"])
	assert.Equal(t, 1, report.PaymentStatusBreakdown["pending"])

	assert.True(t, report.PaymentDistribution["upi"].Equal(amount("100.00")))
	assert.True(t, report.PaymentDistribution["cash"].Equal(amount("50.00")))

	t.Run("date range excludes other sales", func(t *testing.T) {
		report, err := env.analytics.SalesReport(&ReportRequest{
			BranchID: 1, StartDate: "2025-06-11", EndDate: "2025-06-13",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), report.TotalSalesCount)
	})
}

func TestWriteoffReport(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.inventory.PostTransaction(&inventory.PostTransactionRequest{
		BranchID: 1, ProductSkuID: 1, Kind: inventory.KindPurchase, QuantityDelta: 100,
	})
	require.NoError(t, err)

	written := env.confirmedSale(t, "Gone Customer", "2025-06-10", "100.00")
	_, err = env.sales.AddPayment(written.ID, &sale.AddPaymentRequest{Amount: amount("60.00")})
	require.NoError(t, err)
	_, err = env.sales.WriteoffRemainingBalance(written.ID, &sale.WriteoffRequest{
		Reason: "shop closed", AuthorizedBy: "owner",
	})
	require.NoError(t, err)

	// Paid in full, never written off, must not show up
	paid := env.confirmedSale(t, "Paid Customer", "2025-06-10", "50.00")
	_, err = env.sales.AddPayment(paid.ID, &sale.AddPaymentRequest{Amount: amount("50.00")})
	require.NoError(t, err)

	report, err := env.analytics.WriteoffReport(&ReportRequest{BranchID: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.NumberOfWriteoffs)
	assert.True(t, report.TotalWriteoffs.Equal(amount("40.00")), "writeoffs %s", report.TotalWriteoffs)
	assert.True(t, report.TotalSalesValue.Equal(amount("100.00")))
	assert.True(t, report.TotalRecovered.Equal(amount("60.00")))
	assert.True(t, report.WriteoffPercentage.Equal(amount("40.00")), "pct %s", report.WriteoffPercentage)
	assert.True(t, report.RecoveryRate.Equal(amount("100.00")), "recovery %s", report.RecoveryRate)
	assert.True(t, report.AverageWriteoff.Equal(amount("40.00")))
	require.Len(t, report.Sales, 1)
	assert.Equal(t, "Gone Customer", report.Sales[0].CustomerName)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)

	// One low stock position (5 of min 10) and one out of stock
	_, err := env.inventory.PostTransaction(&inventory.PostTransactionRequest{
		BranchID: 1, ProductSkuID: 1, Kind: inventory.KindPurchase, QuantityDelta: 5,
	})
	require.NoError(t, err)
	require.NoError(t, env.analytics.db.Create(&inventory.StockPosition{
		BranchID: 1, ProductSkuID: 2, MinStockLevel: 10,
	}).Error)

	_, err = env.purchases.Create(&purchase.CreatePurchaseOrderRequest{
		BranchID: 1, VendorName: "Acme", PurchaseDate: "2025-06-01",
		Items: []purchase.ItemRequest{{ProductSkuID: 1, Quantity: 10, UnitCostPrice: amount("2.00")}},
	})
	require.NoError(t, err)

	overdue, err := env.sales.Create(&sale.CreateSaleRequest{
		BranchID: 1, CustomerName: "Late Payer", SaleDate: "2025-01-10", DueDate: "2025-01-20",
		Items: []sale.SaleItemRequest{{ProductSkuID: 1, Quantity: 2, UnitPrice: amount("10.00")}},
	})
	require.NoError(t, err)
	_, err = env.sales.Confirm(overdue.ID)
	require.NoError(t, err)

	dashboard, err := env.analytics.Dashboard(&ReportRequest{BranchID: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(1), dashboard.LowStockCount)
	assert.Equal(t, int64(1), dashboard.OutOfStock)
	assert.Equal(t, int64(1), dashboard.OverdueSales)
	assert.Equal(t, int64(1), dashboard.PendingOrders)
	assert.NotEmpty(t, dashboard.LowStock)
}

// internal/domain/analytics/service.go
package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/inventory"
	"github.com/your-org/retail-backend/internal/domain/sale"
	"gorm.io/gorm"
)

// Service computes read-only dashboard rollups. Nothing here mutates state.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ReportRequest scopes a report to a branch and date range. Dates default
// to the last 30 days.
type ReportRequest struct {
	BranchID  uint   `form:"branch_id"`
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`
}

// SalesReport aggregates the sales of one branch and date range
type SalesReport struct {
	TotalSales             decimal.Decimal            `json:"total_sales"`
	TotalSalesCount        int64                      `json:"total_sales_count"`
	TotalPaid              decimal.Decimal            `json:"total_paid"`
	TotalDue               decimal.Decimal            `json:"total_due"`
	OverdueAmount          decimal.Decimal            `json:"overdue_amount"`
	PaymentStatusBreakdown map[string]int             `json:"payment_status_breakdown"`
	PaymentDistribution    map[string]decimal.Decimal `json:"payment_distribution"`
}

// WriteoffReport aggregates write-offs of one branch and date range
type WriteoffReport struct {
	TotalWriteoffs     decimal.Decimal `json:"total_writeoffs"`
	TotalSalesValue    decimal.Decimal `json:"total_sales_value"`
	TotalRecovered     decimal.Decimal `json:"total_recovered"`
	WriteoffPercentage decimal.Decimal `json:"writeoff_percentage"`
	RecoveryRate       decimal.Decimal `json:"recovery_rate"`
	NumberOfWriteoffs  int64           `json:"number_of_writeoffs"`
	AverageWriteoff    decimal.Decimal `json:"average_writeoff"`
	Sales              []sale.Sale     `json:"writeoffs"`
}

// Dashboard bundles the landing-page counters
type Dashboard struct {
	SalesReport    SalesReport               `json:"sales"`
	LowStockCount  int64                     `json:"low_stock_count"`
	OutOfStock     int64                     `json:"out_of_stock_count"`
	OverdueSales   int64                     `json:"overdue_sales_count"`
	PendingOrders  int64                     `json:"pending_purchase_orders"`
	LowStock       []inventory.StockPosition `json:"low_stock,omitempty"`
}

// SalesReport computes sales totals, the payment status breakdown and the
// payment mode distribution for the requested scope
func (s *Service) SalesReport(req *ReportRequest) (*SalesReport, error) {
	start, end := resolveDateRange(req)

	var sales []sale.Sale
	query := s.db.Where("sale_date BETWEEN ? AND ?", start, end)
	if req.BranchID > 0 {
		query = query.Where("branch_id = ?", req.BranchID)
	}
	if err := query.Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to read sales: %w", err)
	}

	report := &SalesReport{
		TotalSales:    decimal.Zero,
		TotalPaid:     decimal.Zero,
		TotalDue:      decimal.Zero,
		OverdueAmount: decimal.Zero,
		PaymentStatusBreakdown: map[string]int{},
	}
	saleIDs := make([]uint, 0, len(sales))
	for i := range sales {
		sl := &sales[i]
		report.TotalSalesCount++
		report.TotalSales = report.TotalSales.Add(sl.FinalAmount)
		report.TotalPaid = report.TotalPaid.Add(sl.PaidAmount)
		report.TotalDue = report.TotalDue.Add(sl.DueAmount)
		if sl.Overdue() {
			report.OverdueAmount = report.OverdueAmount.Add(sl.DueAmount)
		}
		report.PaymentStatusBreakdown[string(sl.PaymentStatus())]++
		saleIDs = append(saleIDs, sl.ID)
	}

	distribution, err := s.paymentDistribution(saleIDs)
	if err != nil {
		return nil, err
	}
	report.PaymentDistribution = distribution
	return report, nil
}

// paymentDistribution sums payment amounts per mode across the given sales
func (s *Service) paymentDistribution(saleIDs []uint) (map[string]decimal.Decimal, error) {
	distribution := map[string]decimal.Decimal{}
	if len(saleIDs) == 0 {
		return distribution, nil
	}

	var payments []sale.Payment
	if err := s.db.Where("sale_id IN ?", saleIDs).Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}
	for _, p := range payments {
		mode := string(p.PaymentMode)
		distribution[mode] = distribution[mode].Add(p.Amount)
	}
	return distribution, nil
}

// WriteoffReport computes write-off totals and lists the affected sales
func (s *Service) WriteoffReport(req *ReportRequest) (*WriteoffReport, error) {
	start, end := resolveDateRange(req)

	var sales []sale.Sale
	query := s.db.Where("status = ? AND writeoff_date BETWEEN ? AND ?", sale.StatusConfirmed, start, end)
	if req.BranchID > 0 {
		query = query.Where("branch_id = ?", req.BranchID)
	}
	if err := query.Order("writeoff_date").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to read written-off sales: %w", err)
	}

	report := &WriteoffReport{
		TotalWriteoffs:  decimal.Zero,
		TotalSalesValue: decimal.Zero,
		TotalRecovered:  decimal.Zero,
		Sales:           sales,
	}
	for i := range sales {
		sl := &sales[i]
		report.NumberOfWriteoffs++
		report.TotalWriteoffs = report.TotalWriteoffs.Add(sl.WriteoffAmount)
		report.TotalSalesValue = report.TotalSalesValue.Add(sl.FinalAmount)
		report.TotalRecovered = report.TotalRecovered.Add(sl.PaidAmount)
	}

	hundred := decimal.NewFromInt(100)
	if report.TotalSalesValue.IsPositive() {
		report.WriteoffPercentage = report.TotalWriteoffs.Div(report.TotalSalesValue).Mul(hundred).Round(2)
		report.RecoveryRate = report.TotalRecovered.Add(report.TotalWriteoffs).Div(report.TotalSalesValue).Mul(hundred).Round(2)
	}
	if report.NumberOfWriteoffs > 0 {
		report.AverageWriteoff = report.TotalWriteoffs.Div(decimal.NewFromInt(report.NumberOfWriteoffs)).Round(2)
	}
	return report, nil
}

// Dashboard computes the landing-page counters for one branch (or all)
func (s *Service) Dashboard(req *ReportRequest) (*Dashboard, error) {
	salesReport, err := s.SalesReport(req)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{SalesReport: *salesReport}

	branchScoped := func(q *gorm.DB) *gorm.DB {
		if req.BranchID > 0 {
			return q.Where("branch_id = ?", req.BranchID)
		}
		return q
	}

	if err := branchScoped(s.db.Model(&inventory.StockPosition{})).
		Where("quantity > 0 AND quantity <= min_stock_level").
		Count(&dashboard.LowStockCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count low stock positions: %w", err)
	}
	if err := branchScoped(s.db.Model(&inventory.StockPosition{})).
		Where("quantity = 0").
		Count(&dashboard.OutOfStock).Error; err != nil {
		return nil, fmt.Errorf("failed to count out-of-stock positions: %w", err)
	}
	if err := branchScoped(s.db.Model(&sale.Sale{})).
		Where("due_amount > 0 AND due_date < ? AND is_closed = ?", todayDate(), false).
		Count(&dashboard.OverdueSales).Error; err != nil {
		return nil, fmt.Errorf("failed to count overdue sales: %w", err)
	}
	if err := branchScoped(s.db.Table("purchase_orders")).
		Where("status = ?", "pending").
		Count(&dashboard.PendingOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending purchase orders: %w", err)
	}

	if err := branchScoped(s.db.Model(&inventory.StockPosition{})).
		Where("quantity <= min_stock_level").
		Order("quantity").Limit(10).
		Find(&dashboard.LowStock).Error; err != nil {
		return nil, fmt.Errorf("failed to list low stock positions: %w", err)
	}
	return dashboard, nil
}

func resolveDateRange(req *ReportRequest) (time.Time, time.Time) {
	end := todayDate()
	start := end.AddDate(0, 0, -30)
	if t, err := time.Parse("2006-01-02", req.StartDate); err == nil {
		start = t
	}
	if t, err := time.Parse("2006-01-02", req.EndDate); err == nil {
		end = t
	}
	return start, end
}

func todayDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

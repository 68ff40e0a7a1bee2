// internal/domain/sale/service.go
package sale

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/catalog"
	"github.com/your-org/retail-backend/internal/domain/inventory"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// invoiceNumberAttempts bounds the retry loop on duplicate invoice numbers
const invoiceNumberAttempts = 3

// Service handles sale business logic
type Service struct {
	db        *gorm.DB
	config    *config.Config
	inventory *inventory.Service
}

// NewService creates a new sale service
func NewService(db *gorm.DB, cfg *config.Config, inventoryService *inventory.Service) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		inventory: inventoryService,
	}
}

// SaleItemRequest represents one item line in a create or update request
type SaleItemRequest struct {
	ProductSkuID       uint            `json:"product_sku_id" binding:"required"`
	Quantity           int             `json:"quantity" binding:"required"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// CreateSaleRequest represents sale creation data
type CreateSaleRequest struct {
	BranchID          uint              `json:"branch_id" binding:"required"`
	CustomerName      string            `json:"customer_name" binding:"required"`
	CustomerAddress   string            `json:"customer_address,omitempty"`
	CustomerPhone     string            `json:"customer_phone,omitempty"`
	CustomerGSTNumber string            `json:"customer_gst_number,omitempty"`
	SaleDate          string            `json:"sale_date" binding:"required"` // YYYY-MM-DD
	DueDate           string            `json:"due_date,omitempty"`
	DiscountAmount    decimal.Decimal   `json:"discount_amount"`
	Notes             string            `json:"notes,omitempty"`
	Items             []SaleItemRequest `json:"items" binding:"required"`
}

// UpdateSaleRequest represents sale update data. A non-nil Items slice
// replaces the whole item set.
type UpdateSaleRequest struct {
	CustomerName      string             `json:"customer_name,omitempty"`
	CustomerAddress   *string            `json:"customer_address,omitempty"`
	CustomerPhone     *string            `json:"customer_phone,omitempty"`
	CustomerGSTNumber *string            `json:"customer_gst_number,omitempty"`
	SaleDate          string             `json:"sale_date,omitempty"`
	DueDate           *string            `json:"due_date,omitempty"`
	DiscountAmount    *decimal.Decimal   `json:"discount_amount,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
	Items             *[]SaleItemRequest `json:"items,omitempty"`
}

// SaleListRequest represents sale list query parameters
type SaleListRequest struct {
	Page          int           `form:"page,default=1"`
	Limit         int           `form:"limit,default=20"`
	BranchID      uint          `form:"branch_id"`
	Customer      string        `form:"customer"`
	PaymentStatus PaymentStatus `form:"payment_status"`
	DateFrom      string        `form:"date_from"`
	DateTo        string        `form:"date_to"`
}

// ListResponse represents sales with pagination
type ListResponse struct {
	Sales      []Sale     `json:"sales"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Create creates a sale in draft status. Stock is validated up front but not
// deducted; only confirmation touches the ledger.
func (s *Service) Create(req *CreateSaleRequest) (*Sale, error) {
	saleDate, err := parseDate(req.SaleDate)
	if err != nil {
		return nil, apperrors.NewValidation("sale date must be in YYYY-MM-DD format")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, apperrors.NewValidation("customer name is required")
	}
	if req.DiscountAmount.IsNegative() {
		return nil, apperrors.NewValidation("discount amount must be zero or greater")
	}

	items, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateStock(req.BranchID, items, nil); err != nil {
		return nil, err
	}

	sale := &Sale{
		BranchID:          req.BranchID,
		Status:            StatusDraft,
		CustomerName:      strings.TrimSpace(req.CustomerName),
		CustomerAddress:   req.CustomerAddress,
		CustomerPhone:     req.CustomerPhone,
		CustomerGSTNumber: req.CustomerGSTNumber,
		SaleDate:          saleDate,
		DiscountAmount:    req.DiscountAmount.Round(2),
		Notes:             req.Notes,
		Items:             items,
	}
	if req.DueDate != "" {
		dueDate, err := parseDate(req.DueDate)
		if err != nil {
			return nil, apperrors.NewValidation("due date must be in YYYY-MM-DD format")
		}
		sale.DueDate = &dueDate
	}
	recomputeAmounts(sale)

	// Invoice numbers carry a per-day sequence; regenerate and retry when
	// a concurrent create takes the same one.
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			number, err := s.nextInvoiceNumber(tx, saleDate)
			if err != nil {
				return err
			}
			sale.InvoiceNumber = number
			return tx.Create(sale).Error
		})
		if err == nil {
			return sale, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create sale: %w", err)
		}
		sale.ID = 0
		for i := range sale.Items {
			sale.Items[i].ID = 0
			sale.Items[i].SaleID = 0
		}
	}
	return nil, fmt.Errorf("failed to allocate a unique invoice number: %w", err)
}

// nextInvoiceNumber generates SALE{yyyymmdd}{NNN}, continuing the sale
// date's sequence from the lexically greatest existing number.
func (s *Service) nextInvoiceNumber(tx *gorm.DB, saleDate time.Time) (string, error) {
	prefix := "SALE" + saleDate.Format("20060102")

	var last Sale
	err := tx.Where("invoice_number LIKE ? AND sale_date = ?", prefix+"%", saleDate).
		Order("invoice_number DESC").
		Select("invoice_number").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return prefix + "001", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last invoice number: %w", err)
	}

	if len(last.InvoiceNumber) < 3 {
		return "", fmt.Errorf("malformed invoice number %q", last.InvoiceNumber)
	}
	seq, err := strconv.Atoi(last.InvoiceNumber[len(last.InvoiceNumber)-3:])
	if err != nil {
		return "", fmt.Errorf("malformed invoice number %q: %w", last.InvoiceNumber, err)
	}
	return fmt.Sprintf("%s%03d", prefix, seq+1), nil
}

// Get retrieves a sale with its items and payments
func (s *Service) Get(id uint) (*Sale, error) {
	var sale Sale
	err := s.db.Preload("Items").Preload("Items.ProductSku").Preload("Payments").First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("sale", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sale: %w", err)
	}
	return &sale, nil
}

// List retrieves sales with filters and pagination, newest first
func (s *Service) List(req *SaleListRequest) (*ListResponse, error) {
	query := s.db.Model(&Sale{})

	if req.BranchID > 0 {
		query = query.Where("branch_id = ?", req.BranchID)
	}
	if req.Customer != "" {
		query = query.Where("LOWER(customer_name) LIKE ?", "%"+strings.ToLower(req.Customer)+"%")
	}
	if req.DateFrom != "" && req.DateTo != "" {
		query = query.Where("sale_date BETWEEN ? AND ?", req.DateFrom, req.DateTo)
	}
	if req.PaymentStatus != "" {
		var err error
		query, err = applyPaymentStatusFilter(query, req.PaymentStatus)
		if err != nil {
			return nil, err
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}

	var sales []Sale
	if err := query.Preload("Items").Preload("Payments").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ListResponse{
		Sales: sales,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// applyPaymentStatusFilter translates the derived settlement state into
// query conditions
func applyPaymentStatusFilter(query *gorm.DB, status PaymentStatus) (*gorm.DB, error) {
	switch status {
	case PaymentStatusClosed:
		return query.Where("is_closed = ?", true), nil
	case PaymentStatusCompleted:
		return query.Where("is_closed = ? AND due_amount <= 0", false), nil
	case PaymentStatusPartial:
		return query.Where("is_closed = ? AND due_amount > 0 AND paid_amount > 0", false), nil
	case PaymentStatusOverdue:
		return query.Where("is_closed = ? AND due_amount > 0 AND paid_amount <= 0 AND due_date < ?", false, today()), nil
	case PaymentStatusPending:
		return query.Where("is_closed = ? AND due_amount > 0 AND paid_amount <= 0 AND (due_date IS NULL OR due_date >= ?)", false, today()), nil
	default:
		return nil, apperrors.Validationf("invalid payment status filter: %s", status)
	}
}

// ListOverdue retrieves open sales whose due date has passed with money owed
func (s *Service) ListOverdue(branchID uint) ([]Sale, error) {
	query := s.db.Where("due_amount > 0 AND due_date < ? AND is_closed = ?", today(), false)
	if branchID > 0 {
		query = query.Where("branch_id = ?", branchID)
	}

	var sales []Sale
	if err := query.Order("due_date").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to list overdue sales: %w", err)
	}
	return sales, nil
}

// Update changes a draft sale. When items are supplied they replace the
// current set; stock validation counts the quantities already on this sale
// as available again.
func (s *Service) Update(id uint, req *UpdateSaleRequest) (*Sale, error) {
	sale, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !sale.CanEdit() {
		return nil, apperrors.NewPolicy("editing", string(sale.Status))
	}

	if req.CustomerName != "" {
		sale.CustomerName = strings.TrimSpace(req.CustomerName)
	}
	if req.CustomerAddress != nil {
		sale.CustomerAddress = *req.CustomerAddress
	}
	if req.CustomerPhone != nil {
		sale.CustomerPhone = *req.CustomerPhone
	}
	if req.CustomerGSTNumber != nil {
		sale.CustomerGSTNumber = *req.CustomerGSTNumber
	}
	if req.SaleDate != "" {
		saleDate, err := parseDate(req.SaleDate)
		if err != nil {
			return nil, apperrors.NewValidation("sale date must be in YYYY-MM-DD format")
		}
		sale.SaleDate = saleDate
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			sale.DueDate = nil
		} else {
			dueDate, err := parseDate(*req.DueDate)
			if err != nil {
				return nil, apperrors.NewValidation("due date must be in YYYY-MM-DD format")
			}
			sale.DueDate = &dueDate
		}
	}
	if req.DiscountAmount != nil {
		if req.DiscountAmount.IsNegative() {
			return nil, apperrors.NewValidation("discount amount must be zero or greater")
		}
		sale.DiscountAmount = req.DiscountAmount.Round(2)
	}
	if req.Notes != nil {
		sale.Notes = *req.Notes
	}

	var newItems []SaleItem
	if req.Items != nil {
		newItems, err = buildItems(*req.Items)
		if err != nil {
			return nil, err
		}
		if err := s.ValidateStock(sale.BranchID, newItems, sale); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.Items != nil {
			if err := tx.Where("sale_id = ?", sale.ID).Delete(&SaleItem{}).Error; err != nil {
				return fmt.Errorf("failed to replace sale items: %w", err)
			}
			for i := range newItems {
				newItems[i].SaleID = sale.ID
			}
			if len(newItems) > 0 {
				if err := tx.Create(&newItems).Error; err != nil {
					return fmt.Errorf("failed to create sale items: %w", err)
				}
			}
			sale.Items = newItems
		}

		recomputeAmounts(sale)
		return tx.Model(&Sale{}).Where("id = ?", sale.ID).Updates(map[string]interface{}{
			"customer_name":       sale.CustomerName,
			"customer_address":    sale.CustomerAddress,
			"customer_phone":      sale.CustomerPhone,
			"customer_gst_number": sale.CustomerGSTNumber,
			"sale_date":           sale.SaleDate,
			"due_date":            sale.DueDate,
			"discount_amount":     sale.DiscountAmount,
			"notes":               sale.Notes,
			"total_amount":        sale.TotalAmount,
			"final_amount":        sale.FinalAmount,
			"due_amount":          sale.DueAmount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a draft sale and its items
func (s *Service) Delete(id uint) error {
	sale, err := s.Get(id)
	if err != nil {
		return err
	}
	if !sale.CanEdit() {
		return apperrors.NewPolicy("deletion", string(sale.Status))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&SaleItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete sale items: %w", err)
		}
		if err := tx.Delete(&Sale{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}
		return nil
	})
}

// ValidateStock checks every item against the branch's current stock and
// collects all shortfalls before failing. When existing is set, quantities
// already committed to that sale for the same product count as available.
func (s *Service) ValidateStock(branchID uint, items []SaleItem, existing *Sale) error {
	var shortfalls []apperrors.StockShortfall

	for _, item := range items {
		var product catalog.ProductSku
		productName := ""
		if err := s.db.First(&product, item.ProductSkuID).Error; err == nil {
			productName = product.SkuName
		}

		available, err := s.inventory.CurrentQuantity(branchID, item.ProductSkuID)
		if err != nil {
			return err
		}
		if existing != nil {
			for _, prev := range existing.Items {
				if prev.ProductSkuID == item.ProductSkuID {
					available += prev.Quantity
				}
			}
		}

		if item.Quantity > available {
			shortfalls = append(shortfalls, apperrors.StockShortfall{
				ProductSkuID: item.ProductSkuID,
				ProductName:  productName,
				Requested:    item.Quantity,
				Available:    available,
			})
		}
	}

	if len(shortfalls) > 0 {
		return apperrors.NewInsufficientStock(shortfalls...)
	}
	return nil
}

// Confirm moves a draft sale to confirmed and debits stock for every item,
// all inside one transaction. The debit floors each position at zero; the
// full requested quantity is still recorded on the transaction. Confirming
// twice fails without touching stock.
func (s *Service) Confirm(id uint) (*Sale, error) {
	sale, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !sale.CanConfirm() {
		if sale.IsDraft() {
			return nil, apperrors.NewValidation("sale has no items to confirm")
		}
		return nil, apperrors.NewPolicy("confirmation", string(sale.Status))
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range sale.Items {
			notes := fmt.Sprintf("Sale %s", sale.InvoiceNumber)
			_, err := s.inventory.PostClamped(tx, sale.BranchID, item.ProductSkuID, inventory.KindSale,
				-item.Quantity, inventory.SaleRef(sale.ID), notes)
			if err != nil {
				return err
			}
		}
		return s.markConfirmed(tx, sale.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// markConfirmed flips a draft sale to confirmed. The status guard means a
// racing Confirm cannot debit stock twice; zero rows means someone else won
// and the surrounding transaction rolls back.
func (s *Service) markConfirmed(tx *gorm.DB, saleID uint) error {
	result := tx.Model(&Sale{}).
		Where("id = ? AND status = ?", saleID, StatusDraft).
		Update("status", StatusConfirmed)
	if result.Error != nil {
		return fmt.Errorf("failed to confirm sale: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewConcurrencyConflict("sale", saleID)
	}
	return nil
}

// buildItems validates and converts item requests, rejecting duplicate
// products within one sale
func buildItems(reqs []SaleItemRequest) ([]SaleItem, error) {
	seen := make(map[uint]bool, len(reqs))
	items := make([]SaleItem, 0, len(reqs))

	for _, req := range reqs {
		if req.Quantity <= 0 {
			return nil, apperrors.NewValidation("item quantity must be greater than zero")
		}
		if req.UnitPrice.IsNegative() {
			return nil, apperrors.NewValidation("unit price must be zero or greater")
		}
		if req.DiscountPercentage.IsNegative() || req.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apperrors.NewValidation("discount percentage must be between 0 and 100")
		}
		if seen[req.ProductSkuID] {
			return nil, apperrors.NewValidation("cannot have duplicate products in the same sale")
		}
		seen[req.ProductSkuID] = true

		item := SaleItem{
			ProductSkuID:       req.ProductSkuID,
			Quantity:           req.Quantity,
			UnitPrice:          req.UnitPrice.Round(2),
			DiscountPercentage: req.DiscountPercentage,
		}
		item.DiscountAmount, item.TotalPrice = item.LineAmounts()
		items = append(items, item)
	}
	return items, nil
}

// recomputeAmounts rewrites the sale's derived amounts from its items,
// discount and payments. Running it twice changes nothing.
func recomputeAmounts(sale *Sale) {
	total := decimal.Zero
	itemsDiscount := decimal.Zero
	for i := range sale.Items {
		item := &sale.Items[i]
		item.DiscountAmount, item.TotalPrice = item.LineAmounts()
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		itemsDiscount = itemsDiscount.Add(item.DiscountAmount)
	}

	sale.TotalAmount = total.Round(2)
	final := total.Sub(itemsDiscount).Sub(sale.DiscountAmount).Round(2)
	if final.IsNegative() {
		final = decimal.Zero
	}
	sale.FinalAmount = final

	due := final.Sub(sale.PaidAmount).Round(2)
	if due.IsNegative() {
		due = decimal.Zero
	}
	sale.DueAmount = due
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

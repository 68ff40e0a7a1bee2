// internal/domain/purchase/service.go
package purchase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/inventory"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// poNumberAttempts bounds the retry loop on duplicate PO numbers
const poNumberAttempts = 3

// Service handles purchase order business logic
type Service struct {
	db        *gorm.DB
	config    *config.Config
	inventory *inventory.Service
}

// NewService creates a new purchase order service
func NewService(db *gorm.DB, cfg *config.Config, inventoryService *inventory.Service) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		inventory: inventoryService,
	}
}

// ItemRequest represents one item line in a create or update request
type ItemRequest struct {
	ProductSkuID  uint            `json:"product_sku_id" binding:"required"`
	Quantity      int             `json:"quantity" binding:"required"`
	UnitCostPrice decimal.Decimal `json:"unit_cost_price"`
}

// CreatePurchaseOrderRequest represents purchase order creation data
type CreatePurchaseOrderRequest struct {
	BranchID           uint          `json:"branch_id" binding:"required"`
	VendorName         string        `json:"vendor_name" binding:"required"`
	VendorAddress      string        `json:"vendor_address,omitempty"`
	VendorMobileNumber string        `json:"vendor_mobile_number,omitempty"`
	VendorGSTNumber    string        `json:"vendor_gst_number,omitempty"`
	PurchaseDate       string        `json:"purchase_date" binding:"required"` // YYYY-MM-DD
	Notes              string        `json:"notes,omitempty"`
	Items              []ItemRequest `json:"items"`
}

// UpdatePurchaseOrderRequest represents header fields that may change while pending
type UpdatePurchaseOrderRequest struct {
	VendorName         string  `json:"vendor_name,omitempty"`
	VendorAddress      *string `json:"vendor_address,omitempty"`
	VendorMobileNumber *string `json:"vendor_mobile_number,omitempty"`
	VendorGSTNumber    *string `json:"vendor_gst_number,omitempty"`
	PurchaseDate       string  `json:"purchase_date,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// ListRequest represents purchase order list query parameters
type ListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	BranchID uint   `form:"branch_id"`
	Vendor   string `form:"vendor"`
	Status   Status `form:"status"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

// ListResponse represents purchase orders with pagination
type ListResponse struct {
	PurchaseOrders []PurchaseOrder `json:"purchase_orders"`
	Pagination     Pagination      `json:"pagination"`
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

// Create creates a purchase order in pending status and assigns a PO number
func (s *Service) Create(req *CreatePurchaseOrderRequest) (*PurchaseOrder, error) {
	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		return nil, apperrors.NewValidation("purchase date must be in YYYY-MM-DD format")
	}
	if strings.TrimSpace(req.VendorName) == "" {
		return nil, apperrors.NewValidation("vendor name is required")
	}

	items := make([]PurchaseOrderItem, 0, len(req.Items))
	for _, ir := range req.Items {
		item, err := buildItem(ir)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	order := &PurchaseOrder{
		BranchID:           req.BranchID,
		VendorName:         req.VendorName,
		VendorAddress:      req.VendorAddress,
		VendorMobileNumber: req.VendorMobileNumber,
		VendorGSTNumber:    req.VendorGSTNumber,
		PurchaseDate:       purchaseDate,
		Status:             StatusPending,
		Notes:              req.Notes,
		Items:              items,
		TotalAmount:        sumItemTotals(items),
	}

	// The PO number carries a per-month sequence, so two concurrent creates
	// can generate the same one. The unique index catches that; regenerate
	// and retry.
	for attempt := 0; attempt < poNumberAttempts; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			number, err := s.nextPONumber(tx)
			if err != nil {
				return err
			}
			order.PONumber = number
			return tx.Create(order).Error
		})
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create purchase order: %w", err)
		}
		order.ID = 0
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].PurchaseOrderID = 0
		}
	}
	return nil, fmt.Errorf("failed to allocate a unique purchase order number: %w", err)
}

// nextPONumber generates PO-YYYYMM-NNNN, continuing the current month's
// sequence from the lexically greatest existing number.
func (s *Service) nextPONumber(tx *gorm.DB) (string, error) {
	prefix := fmt.Sprintf("PO-%s", time.Now().Format("200601"))

	var last PurchaseOrder
	err := tx.Where("po_number LIKE ?", prefix+"%").
		Order("po_number DESC").
		Select("po_number").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Sprintf("%s-0001", prefix), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last purchase order number: %w", err)
	}

	parts := strings.Split(last.PONumber, "-")
	seq, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", fmt.Errorf("malformed purchase order number %q: %w", last.PONumber, err)
	}
	return fmt.Sprintf("%s-%04d", prefix, seq+1), nil
}

// Get retrieves a purchase order with its items
func (s *Service) Get(id uint) (*PurchaseOrder, error) {
	var order PurchaseOrder
	err := s.db.Preload("Items").Preload("Items.ProductSku").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("purchase order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read purchase order: %w", err)
	}
	return &order, nil
}

// List retrieves purchase orders with filters and pagination, newest first
func (s *Service) List(req *ListRequest) (*ListResponse, error) {
	query := s.db.Model(&PurchaseOrder{})

	if req.BranchID > 0 {
		query = query.Where("branch_id = ?", req.BranchID)
	}
	if req.Vendor != "" {
		query = query.Where("LOWER(vendor_name) LIKE ?", "%"+strings.ToLower(req.Vendor)+"%")
	}
	if req.Status != "" {
		if !req.Status.IsValid() {
			return nil, apperrors.Validationf("invalid status filter: %s", req.Status)
		}
		query = query.Where("status = ?", req.Status)
	}
	if req.DateFrom != "" && req.DateTo != "" {
		query = query.Where("purchase_date BETWEEN ? AND ?", req.DateFrom, req.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count purchase orders: %w", err)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}

	var orders []PurchaseOrder
	if err := query.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ListResponse{
		PurchaseOrders: orders,
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

// Update changes header fields of a pending order
func (s *Service) Update(id uint, req *UpdatePurchaseOrderRequest) (*PurchaseOrder, error) {
	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !order.CanBeEdited() {
		return nil, apperrors.NewPolicy("editing", string(order.Status))
	}

	updates := map[string]interface{}{}
	if req.VendorName != "" {
		updates["vendor_name"] = req.VendorName
	}
	if req.VendorAddress != nil {
		updates["vendor_address"] = *req.VendorAddress
	}
	if req.VendorMobileNumber != nil {
		updates["vendor_mobile_number"] = *req.VendorMobileNumber
	}
	if req.VendorGSTNumber != nil {
		updates["vendor_gst_number"] = *req.VendorGSTNumber
	}
	if req.PurchaseDate != "" {
		purchaseDate, err := parseDate(req.PurchaseDate)
		if err != nil {
			return nil, apperrors.NewValidation("purchase date must be in YYYY-MM-DD format")
		}
		updates["purchase_date"] = purchaseDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return order, nil
	}

	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update purchase order: %w", err)
	}
	return s.Get(id)
}

// Delete removes a pending order and its items
func (s *Service) Delete(id uint) error {
	order, err := s.Get(id)
	if err != nil {
		return err
	}
	if !order.CanBeDeleted() {
		return apperrors.NewPolicy("deletion", string(order.Status))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", id).Delete(&PurchaseOrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete purchase order items: %w", err)
		}
		if err := tx.Delete(&PurchaseOrder{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete purchase order: %w", err)
		}
		return nil
	})
}

// AddItem appends an item line to a pending order and recomputes the total
func (s *Service) AddItem(orderID uint, req *ItemRequest) (*PurchaseOrder, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeEdited() {
		return nil, apperrors.NewPolicy("adding items", string(order.Status))
	}

	item, err := buildItem(*req)
	if err != nil {
		return nil, err
	}
	item.PurchaseOrderID = orderID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create purchase order item: %w", err)
		}
		return s.recomputeTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orderID)
}

// UpdateItem changes an item line of a pending order and recomputes the total
func (s *Service) UpdateItem(orderID, itemID uint, req *ItemRequest) (*PurchaseOrder, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeEdited() {
		return nil, apperrors.NewPolicy("updating items", string(order.Status))
	}

	var item PurchaseOrderItem
	err = s.db.Where("id = ? AND purchase_order_id = ?", itemID, orderID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("purchase order item", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read purchase order item: %w", err)
	}

	updated, err := buildItem(*req)
	if err != nil {
		return nil, err
	}
	item.ProductSkuID = updated.ProductSkuID
	item.Quantity = updated.Quantity
	item.UnitCostPrice = updated.UnitCostPrice
	item.TotalPrice = updated.TotalPrice

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&item).Error; err != nil {
			return fmt.Errorf("failed to update purchase order item: %w", err)
		}
		return s.recomputeTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orderID)
}

// RemoveItem deletes an item line of a pending order and recomputes the total
func (s *Service) RemoveItem(orderID, itemID uint) (*PurchaseOrder, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeEdited() {
		return nil, apperrors.NewPolicy("removing items", string(order.Status))
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND purchase_order_id = ?", itemID, orderID).Delete(&PurchaseOrderItem{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete purchase order item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NewNotFound("purchase order item", itemID)
		}
		return s.recomputeTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orderID)
}

// Confirm moves a pending order to confirmed and credits stock for every
// item, all inside one transaction. Re-confirming fails without touching
// stock.
func (s *Service) Confirm(id uint, actor string) (*PurchaseOrder, error) {
	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !order.CanBeConfirmed() {
		if order.IsPending() {
			return nil, apperrors.NewValidation("purchase order has no items to confirm")
		}
		return nil, apperrors.NewPolicy("confirmation", string(order.Status))
	}

	now := time.Now().UTC()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			notes := fmt.Sprintf("Purchase Order %s confirmed", order.PONumber)
			_, err := s.inventory.Post(tx, order.BranchID, item.ProductSkuID, inventory.KindPurchase,
				item.Quantity, inventory.PurchaseOrderRef(order.ID), notes)
			if err != nil {
				return err
			}
		}

		return s.markConfirmed(tx, order.ID, actor, now)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Cancel moves a pending order to cancelled. Stock is never touched.
func (s *Service) Cancel(id uint, actor string) (*PurchaseOrder, error) {
	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCancelled() {
		return nil, apperrors.NewPolicy("cancellation", string(order.Status))
	}

	if err := s.markCancelled(s.db, order.ID, actor); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// markConfirmed flips a pending order to confirmed. The status guard means a
// racing Confirm cannot credit stock twice; zero rows means someone else won
// and the surrounding transaction rolls back.
func (s *Service) markConfirmed(tx *gorm.DB, orderID uint, actor string, now time.Time) error {
	result := tx.Model(&PurchaseOrder{}).
		Where("id = ? AND status = ?", orderID, StatusPending).
		Updates(map[string]interface{}{
			"status":       StatusConfirmed,
			"confirmed_at": now,
			"confirmed_by": actor,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to confirm purchase order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewConcurrencyConflict("purchase order", orderID)
	}
	return nil
}

// markCancelled flips a pending order to cancelled with the same guard
func (s *Service) markCancelled(tx *gorm.DB, orderID uint, actor string) error {
	result := tx.Model(&PurchaseOrder{}).
		Where("id = ? AND status = ?", orderID, StatusPending).
		Updates(map[string]interface{}{
			"status":       StatusCancelled,
			"confirmed_by": actor,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to cancel purchase order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewConcurrencyConflict("purchase order", orderID)
	}
	return nil
}

// recomputeTotal rewrites total_amount as the sum of the current item lines
func (s *Service) recomputeTotal(tx *gorm.DB, orderID uint) error {
	var items []PurchaseOrderItem
	if err := tx.Where("purchase_order_id = ?", orderID).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to read purchase order items: %w", err)
	}
	total := sumItemTotals(items)
	if err := tx.Model(&PurchaseOrder{}).Where("id = ?", orderID).
		Update("total_amount", total).Error; err != nil {
		return fmt.Errorf("failed to update purchase order total: %w", err)
	}
	return nil
}

func buildItem(req ItemRequest) (PurchaseOrderItem, error) {
	if req.Quantity <= 0 {
		return PurchaseOrderItem{}, apperrors.NewValidation("item quantity must be greater than zero")
	}
	if req.UnitCostPrice.IsNegative() {
		return PurchaseOrderItem{}, apperrors.NewValidation("unit cost price must be zero or greater")
	}
	item := PurchaseOrderItem{
		ProductSkuID:  req.ProductSkuID,
		Quantity:      req.Quantity,
		UnitCostPrice: req.UnitCostPrice.Round(2),
	}
	item.TotalPrice = item.LinePrice()
	return item, nil
}

func sumItemTotals(items []PurchaseOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total.Round(2)
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

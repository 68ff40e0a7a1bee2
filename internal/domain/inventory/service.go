// internal/domain/inventory/service.go
package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service is the stock ledger. Every quantity change goes through a posting,
// which updates the position and appends a transaction record in one atomic
// unit of work.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new stock ledger service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// PostTransactionRequest represents a manual stock posting
type PostTransactionRequest struct {
	BranchID      uint            `json:"branch_id" binding:"required"`
	ProductSkuID  uint            `json:"product_sku_id" binding:"required"`
	Kind          TransactionKind `json:"kind" binding:"required"`
	QuantityDelta int             `json:"quantity_delta" binding:"required"`
	Notes         string          `json:"notes,omitempty"`
}

// AdjustStockRequest sets a position to an absolute quantity
type AdjustStockRequest struct {
	BranchID     uint   `json:"branch_id" binding:"required"`
	ProductSkuID uint   `json:"product_sku_id" binding:"required"`
	NewQuantity  *int   `json:"new_quantity" binding:"required"`
	Notes        string `json:"notes,omitempty"`
}

// PositionListRequest represents position list query parameters
type PositionListRequest struct {
	BranchID uint        `form:"branch_id"`
	Status   StockStatus `form:"status"`
	Page     int         `form:"page,default=1"`
	Limit    int         `form:"limit,default=20"`
}

// HistoryRequest represents transaction history query parameters
type HistoryRequest struct {
	Kind     TransactionKind `form:"kind"`
	DateFrom string          `form:"date_from"`
	DateTo   string          `form:"date_to"`
	Limit    int             `form:"limit,default=100"`
}

// PostTransaction posts a manual stock change in its own transaction.
// Outbound deltas that would take the quantity below zero fail with
// InsufficientStockError and leave no trace.
func (s *Service) PostTransaction(req *PostTransactionRequest) (*StockTransaction, error) {
	if !req.Kind.IsValid() {
		return nil, apperrors.Validationf("invalid transaction kind: %s", req.Kind)
	}
	if req.QuantityDelta == 0 {
		return nil, apperrors.NewValidation("quantity delta must not be zero")
	}

	var txn *StockTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.Post(tx, req.BranchID, req.ProductSkuID, req.Kind, req.QuantityDelta, ManualEntry(), req.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Post posts a stock change inside the caller's transaction. The position is
// created on first use. A negative resulting quantity fails with
// InsufficientStockError.
func (s *Service) Post(tx *gorm.DB, branchID, productSkuID uint, kind TransactionKind, delta int, source Source, notes string) (*StockTransaction, error) {
	return s.post(tx, branchID, productSkuID, kind, delta, source, notes, false)
}

// PostClamped posts an outbound stock change that floors the resulting
// quantity at zero instead of failing. The recorded delta is the requested
// one; balance_after carries the clamped quantity. Only the sale
// confirmation path uses this; ValidateStock is the guard that surfaces
// shortages beforehand.
func (s *Service) PostClamped(tx *gorm.DB, branchID, productSkuID uint, kind TransactionKind, delta int, source Source, notes string) (*StockTransaction, error) {
	return s.post(tx, branchID, productSkuID, kind, delta, source, notes, true)
}

func (s *Service) post(tx *gorm.DB, branchID, productSkuID uint, kind TransactionKind, delta int, source Source, notes string, clampToZero bool) (*StockTransaction, error) {
	position, err := s.findOrCreatePosition(tx, branchID, productSkuID)
	if err != nil {
		return nil, err
	}

	newQuantity := position.Quantity + delta
	if newQuantity < 0 {
		if !clampToZero {
			return nil, apperrors.NewInsufficientStock(apperrors.StockShortfall{
				ProductSkuID: productSkuID,
				Requested:    -delta,
				Available:    position.Quantity,
			})
		}
		newQuantity = 0
	}

	now := time.Now().UTC()
	result := tx.Model(&StockPosition{}).
		Where("id = ? AND lock_version = ?", position.ID, position.LockVersion).
		Updates(map[string]interface{}{
			"quantity":        newQuantity,
			"lock_version":    position.LockVersion + 1,
			"last_updated_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update stock position: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Another writer advanced the lock version between our read and write.
		return nil, apperrors.NewConcurrencyConflict("stock position", position.ID)
	}

	txn := &StockTransaction{
		StockPositionID: position.ID,
		Kind:            kind,
		QuantityDelta:   delta,
		BalanceAfter:    newQuantity,
		Notes:           notes,
	}
	if !source.IsManual() {
		sourceID := source.ID
		txn.SourceType = source.Type
		txn.SourceID = &sourceID
	}

	if err := tx.Create(txn).Error; err != nil {
		return nil, fmt.Errorf("failed to append stock transaction: %w", err)
	}

	return txn, nil
}

// findOrCreatePosition resolves the position for (branch, product), creating
// it with zero quantity and the configured minimum stock level on first use.
func (s *Service) findOrCreatePosition(tx *gorm.DB, branchID, productSkuID uint) (*StockPosition, error) {
	var position StockPosition
	err := tx.Where("branch_id = ? AND product_sku_id = ?", branchID, productSkuID).First(&position).Error
	if err == nil {
		return &position, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up stock position: %w", err)
	}

	position = StockPosition{
		BranchID:      branchID,
		ProductSkuID:  productSkuID,
		Quantity:      0,
		MinStockLevel: s.config.Inventory.DefaultMinStockLevel,
		LastUpdatedAt: time.Now().UTC(),
	}
	if err := tx.Create(&position).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the creation race; the winner's row is authoritative.
			if err := tx.Where("branch_id = ? AND product_sku_id = ?", branchID, productSkuID).First(&position).Error; err != nil {
				return nil, fmt.Errorf("failed to re-read stock position: %w", err)
			}
			return &position, nil
		}
		return nil, fmt.Errorf("failed to create stock position: %w", err)
	}
	return &position, nil
}

// AdjustStock sets a position to an absolute quantity and records the signed
// difference as an adjustment transaction.
func (s *Service) AdjustStock(req *AdjustStockRequest) (*StockTransaction, error) {
	if req.NewQuantity == nil || *req.NewQuantity < 0 {
		return nil, apperrors.NewValidation("new quantity must be zero or greater")
	}

	var txn *StockTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		position, err := s.findOrCreatePosition(tx, req.BranchID, req.ProductSkuID)
		if err != nil {
			return err
		}

		delta := *req.NewQuantity - position.Quantity
		notes := req.Notes
		if notes == "" {
			notes = fmt.Sprintf("Stock adjusted from %d to %d", position.Quantity, *req.NewQuantity)
		}

		txn, err = s.post(tx, req.BranchID, req.ProductSkuID, KindAdjustment, delta, ManualEntry(), notes, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// CurrentQuantity returns the quantity on hand, or 0 when no position exists
func (s *Service) CurrentQuantity(branchID, productSkuID uint) (int, error) {
	var position StockPosition
	err := s.db.Where("branch_id = ? AND product_sku_id = ?", branchID, productSkuID).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock position: %w", err)
	}
	return position.Quantity, nil
}

// GetPosition retrieves the position for (branch, product)
func (s *Service) GetPosition(branchID, productSkuID uint) (*StockPosition, error) {
	var position StockPosition
	err := s.db.Where("branch_id = ? AND product_sku_id = ?", branchID, productSkuID).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("stock position", 0)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stock position: %w", err)
	}
	return &position, nil
}

// History returns the transactions of a position, newest first
func (s *Service) History(positionID uint, req *HistoryRequest) ([]StockTransaction, error) {
	var position StockPosition
	if err := s.db.First(&position, positionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("stock position", positionID)
		}
		return nil, fmt.Errorf("failed to read stock position: %w", err)
	}

	query := s.db.Where("stock_position_id = ?", positionID)
	if req != nil {
		if req.Kind != "" {
			query = query.Where("kind = ?", req.Kind)
		}
		if req.DateFrom != "" {
			query = query.Where("created_at >= ?", req.DateFrom)
		}
		if req.DateTo != "" {
			query = query.Where("created_at <= ?", req.DateTo)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}
	}

	var transactions []StockTransaction
	if err := query.Order("created_at DESC, id DESC").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to read transaction history: %w", err)
	}
	return transactions, nil
}

// ListPositions retrieves positions with optional branch and status filters
func (s *Service) ListPositions(req *PositionListRequest) ([]StockPosition, int64, error) {
	query := s.db.Model(&StockPosition{})

	if req.BranchID > 0 {
		query = query.Where("branch_id = ?", req.BranchID)
	}
	switch req.Status {
	case StockStatusOutOfStock:
		query = query.Where("quantity = 0")
	case StockStatusLowStock:
		query = query.Where("quantity > 0 AND quantity <= min_stock_level")
	case StockStatusInStock:
		query = query.Where("quantity > min_stock_level")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stock positions: %w", err)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}

	var positions []StockPosition
	if err := query.Order("branch_id, product_sku_id").
		Offset((page - 1) * limit).Limit(limit).
		Find(&positions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list stock positions: %w", err)
	}
	return positions, total, nil
}

// LowStock returns every position at or below its minimum stock level
func (s *Service) LowStock(branchID uint) ([]StockPosition, error) {
	query := s.db.Where("quantity <= min_stock_level")
	if branchID > 0 {
		query = query.Where("branch_id = ?", branchID)
	}

	var positions []StockPosition
	if err := query.Order("quantity").Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("failed to list low stock positions: %w", err)
	}
	return positions, nil
}

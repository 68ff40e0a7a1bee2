// internal/domain/inventory/entity.go
package inventory

import (
	"fmt"
	"time"
)

// StockStatus classifies a position's quantity against its minimum level
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusInStock    StockStatus = "in_stock"
)

// TransactionKind represents the cause category of a stock transaction
type TransactionKind string

const (
	KindPurchase   TransactionKind = "purchase"
	KindSale       TransactionKind = "sale"
	KindAdjustment TransactionKind = "adjustment"
	KindTransfer   TransactionKind = "transfer"
)

// IsValid reports whether the kind is one of the known transaction kinds
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindPurchase, KindSale, KindAdjustment, KindTransfer:
		return true
	}
	return false
}

// SourceType identifies the document type a transaction originated from
type SourceType string

const (
	SourceTypePurchaseOrder SourceType = "purchase_order"
	SourceTypeSale          SourceType = "sale"
)

// Source is a tagged reference to the document that caused a stock change.
// The zero value means a manual entry with no originating document.
type Source struct {
	Type SourceType
	ID   uint
}

// PurchaseOrderRef references a purchase order as the transaction source
func PurchaseOrderRef(id uint) Source {
	return Source{Type: SourceTypePurchaseOrder, ID: id}
}

// SaleRef references a sale as the transaction source
func SaleRef(id uint) Source {
	return Source{Type: SourceTypeSale, ID: id}
}

// ManualEntry is a source for adjustments with no originating document
func ManualEntry() Source {
	return Source{}
}

// IsManual reports whether the source has no originating document
func (s Source) IsManual() bool {
	return s.Type == ""
}

// StockPosition represents the quantity on hand for one product at one branch.
// Exactly one row exists per (branch, product) pair, enforced by a unique index.
// Quantity is mutated only through the ledger's posting operation.
type StockPosition struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BranchID      uint      `gorm:"not null;uniqueIndex:idx_inventories_branch_sku" json:"branch_id"`
	ProductSkuID  uint      `gorm:"not null;uniqueIndex:idx_inventories_branch_sku" json:"product_sku_id"`
	Quantity      int       `gorm:"not null;default:0" json:"quantity"`
	MinStockLevel int       `gorm:"not null;default:10" json:"min_stock_level"`
	LockVersion   int       `gorm:"not null;default:0" json:"-"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Transactions []StockTransaction `gorm:"foreignKey:StockPositionID;constraint:OnDelete:CASCADE;" json:"transactions,omitempty"`
}

// StockTransaction is an immutable record of one quantity change. Rows are
// appended by ledger postings and never updated afterwards; they only go
// away when the parent position is destroyed.
type StockTransaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	StockPositionID uint            `gorm:"not null;index" json:"stock_position_id"`
	Kind            TransactionKind `gorm:"not null;size:20;index" json:"kind"`
	QuantityDelta   int             `gorm:"not null" json:"quantity_delta"` // positive inbound, negative outbound
	BalanceAfter    int             `gorm:"not null" json:"balance_after"`
	SourceType      SourceType      `gorm:"size:30" json:"source_type,omitempty"`
	SourceID        *uint           `gorm:"index" json:"source_id,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`

	// Relationships
	StockPosition StockPosition `gorm:"foreignKey:StockPositionID" json:"-"`
}

// TableName overrides
func (StockPosition) TableName() string    { return "inventories" }
func (StockTransaction) TableName() string { return "inventory_transactions" }

// Entity methods

// IsOutOfStock checks if the position has no stock left
func (p *StockPosition) IsOutOfStock() bool {
	return p.Quantity <= 0
}

// IsLowStock checks if the position is at or below its minimum stock level
func (p *StockPosition) IsLowStock() bool {
	return p.Quantity > 0 && p.Quantity <= p.MinStockLevel
}

// SufficientStock checks if the position can cover the requested quantity
func (p *StockPosition) SufficientStock(quantity int) bool {
	return p.Quantity >= quantity
}

// Status derives the stock classification for the position
func (p *StockPosition) Status() StockStatus {
	switch {
	case p.Quantity <= 0:
		return StockStatusOutOfStock
	case p.Quantity <= p.MinStockLevel:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// Source returns the tagged source reference of the transaction
func (t *StockTransaction) Source() Source {
	if t.SourceType == "" || t.SourceID == nil {
		return ManualEntry()
	}
	return Source{Type: t.SourceType, ID: *t.SourceID}
}

// SourceInfo describes the transaction's origin for display
func (t *StockTransaction) SourceInfo() string {
	src := t.Source()
	switch src.Type {
	case SourceTypePurchaseOrder:
		return fmt.Sprintf("Purchase Order #%d", src.ID)
	case SourceTypeSale:
		return fmt.Sprintf("Sale #%d", src.ID)
	default:
		return "Manual Entry"
	}
}

// QuantityDisplay formats the signed delta with an explicit plus sign
func (t *StockTransaction) QuantityDisplay() string {
	if t.QuantityDelta > 0 {
		return fmt.Sprintf("+%d", t.QuantityDelta)
	}
	return fmt.Sprintf("%d", t.QuantityDelta)
}

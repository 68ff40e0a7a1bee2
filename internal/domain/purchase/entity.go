// internal/domain/purchase/entity.go
package purchase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/retail-backend/internal/domain/catalog"
)

// Status represents the purchase order status
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether the status is one of the known statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// PurchaseOrder represents an inbound stock document. Orders start pending
// and move exactly once to confirmed or cancelled; both are terminal.
type PurchaseOrder struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	PONumber           string          `gorm:"uniqueIndex;not null;size:30" json:"po_number"`
	BranchID           uint            `gorm:"not null;index" json:"branch_id"`
	VendorName         string          `gorm:"not null;size:255" json:"vendor_name"`
	VendorAddress      string          `gorm:"type:text" json:"vendor_address,omitempty"`
	VendorMobileNumber string          `gorm:"size:20" json:"vendor_mobile_number,omitempty"`
	VendorGSTNumber    string          `gorm:"size:20" json:"vendor_gst_number,omitempty"`
	PurchaseDate       time.Time       `gorm:"not null;type:date" json:"purchase_date"`
	Status             Status          `gorm:"not null;size:20;default:'pending';index" json:"status"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	Notes              string          `gorm:"type:text" json:"notes,omitempty"`
	ConfirmedAt        *time.Time      `json:"confirmed_at,omitempty"`
	ConfirmedBy        string          `gorm:"size:255" json:"confirmed_by,omitempty"` // also records who cancelled
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Relationships
	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE;" json:"items"`
}

// PurchaseOrderItem represents one product line on a purchase order
type PurchaseOrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	PurchaseOrderID uint            `gorm:"not null;index" json:"purchase_order_id"`
	ProductSkuID    uint            `gorm:"not null;index" json:"product_sku_id"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitCostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_cost_price"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relationships
	ProductSku catalog.ProductSku `gorm:"foreignKey:ProductSkuID" json:"product_sku,omitempty"`
}

// TableName overrides
func (PurchaseOrder) TableName() string     { return "purchase_orders" }
func (PurchaseOrderItem) TableName() string { return "purchase_order_items" }

// Status check methods

// IsPending checks if the order is still editable
func (po *PurchaseOrder) IsPending() bool {
	return po.Status == StatusPending
}

// IsConfirmed checks if the order has been confirmed
func (po *PurchaseOrder) IsConfirmed() bool {
	return po.Status == StatusConfirmed
}

// IsCancelled checks if the order has been cancelled
func (po *PurchaseOrder) IsCancelled() bool {
	return po.Status == StatusCancelled
}

// CanBeEdited checks if header or items may still change
func (po *PurchaseOrder) CanBeEdited() bool {
	return po.IsPending()
}

// CanBeDeleted checks if the order may be removed
func (po *PurchaseOrder) CanBeDeleted() bool {
	return po.IsPending()
}

// CanBeConfirmed checks if the order is pending and has at least one item
func (po *PurchaseOrder) CanBeConfirmed() bool {
	return po.IsPending() && len(po.Items) > 0
}

// CanBeCancelled checks if the order may be cancelled
func (po *PurchaseOrder) CanBeCancelled() bool {
	return po.IsPending()
}

// ItemCount returns the number of item lines
func (po *PurchaseOrder) ItemCount() int {
	return len(po.Items)
}

// TotalQuantity sums the quantities across all item lines
func (po *PurchaseOrder) TotalQuantity() int {
	total := 0
	for _, item := range po.Items {
		total += item.Quantity
	}
	return total
}

// LinePrice computes quantity times unit cost, rounded to two decimal places
func (i *PurchaseOrderItem) LinePrice() decimal.Decimal {
	return i.UnitCostPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

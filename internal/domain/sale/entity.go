// internal/domain/sale/entity.go
package sale

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/retail-backend/internal/domain/catalog"
)

// Status represents the sale lifecycle status
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
)

// PaymentStatus is the derived settlement state of a sale
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusOverdue   PaymentStatus = "overdue"
	PaymentStatusClosed    PaymentStatus = "closed"
)

// PaymentMode represents how a payment was made
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeCard         PaymentMode = "card"
	PaymentModeUPI          PaymentMode = "upi"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
	PaymentModeCheque       PaymentMode = "cheque"
)

// IsValid reports whether the mode is one of the accepted payment modes
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCard, PaymentModeUPI, PaymentModeBankTransfer, PaymentModeCheque:
		return true
	}
	return false
}

// Sale represents a customer sale. It moves from draft to confirmed exactly
// once; confirmation debits stock. Orthogonally a confirmed sale is open or
// closed, which gates settlement operations.
type Sale struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	InvoiceNumber string `gorm:"uniqueIndex;not null;size:30" json:"invoice_number"`
	BranchID      uint   `gorm:"not null;index" json:"branch_id"`
	Status        Status `gorm:"not null;size:20;default:'draft';index" json:"sale_status"`

	// Customer details
	CustomerName      string `gorm:"not null;size:255;index" json:"customer_name"`
	CustomerAddress   string `gorm:"type:text" json:"customer_address,omitempty"`
	CustomerPhone     string `gorm:"size:20" json:"customer_phone,omitempty"`
	CustomerGSTNumber string `gorm:"size:30" json:"customer_gst_number,omitempty"`

	// Amounts
	SaleDate       time.Time       `gorm:"not null;type:date;index" json:"sale_date"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"final_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"paid_amount"`
	DueAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"due_amount"`
	DueDate        *time.Time      `gorm:"type:date;index" json:"due_date,omitempty"`

	// Write-off tracking
	WriteoffAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"writeoff_amount"`
	WriteoffReason string          `gorm:"size:255" json:"writeoff_reason,omitempty"`
	WriteoffDate   *time.Time      `gorm:"type:date" json:"writeoff_date,omitempty"`
	WriteoffBy     string          `gorm:"size:255" json:"writeoff_by,omitempty"`

	// Closure tracking
	IsClosed     bool       `gorm:"not null;default:false;index" json:"is_closed"`
	ClosedDate   *time.Time `gorm:"type:date" json:"closed_date,omitempty"`
	ClosureNotes string     `gorm:"type:text" json:"closure_notes,omitempty"`

	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items    []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE;" json:"items"`
	Payments []Payment  `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE;" json:"payments,omitempty"`
}

// SaleItem represents one product line on a sale
type SaleItem struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	SaleID             uint            `gorm:"not null;index" json:"sale_id"`
	ProductSkuID       uint            `gorm:"not null;index" json:"product_sku_id"`
	Quantity           int             `gorm:"not null" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Relationships
	ProductSku catalog.ProductSku `gorm:"foreignKey:ProductSkuID" json:"product_sku,omitempty"`
}

// Payment represents one settlement receipt against a sale
type Payment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	SaleID          uint            `gorm:"not null;index" json:"sale_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentDate     time.Time       `gorm:"not null;type:date" json:"payment_date"`
	PaymentMode     PaymentMode     `gorm:"not null;size:20" json:"payment_mode"`
	ReferenceNumber string          `gorm:"size:100" json:"reference_number,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName overrides
func (Sale) TableName() string     { return "sales" }
func (SaleItem) TableName() string { return "sale_items" }
func (Payment) TableName() string  { return "payments" }

// Status check methods

// IsDraft checks if the sale is still a draft
func (s *Sale) IsDraft() bool {
	return s.Status == StatusDraft
}

// IsConfirmed checks if the sale has been confirmed
func (s *Sale) IsConfirmed() bool {
	return s.Status == StatusConfirmed
}

// CanEdit checks if header or items may still change
func (s *Sale) CanEdit() bool {
	return s.IsDraft()
}

// CanConfirm checks if the sale is a draft with at least one item
func (s *Sale) CanConfirm() bool {
	return s.IsDraft() && len(s.Items) > 0
}

// CanAddPayments checks if the sale accepts settlement receipts
func (s *Sale) CanAddPayments() bool {
	return s.IsConfirmed() && !s.IsClosed
}

// CanWriteoff checks if an unpaid balance can be written off
func (s *Sale) CanWriteoff() bool {
	return s.IsConfirmed() && s.DueAmount.IsPositive() && !s.IsClosed
}

// Overdue checks if the due date has passed with money still owed
func (s *Sale) Overdue() bool {
	return s.DueDate != nil && s.DueDate.Before(today()) && s.DueAmount.IsPositive() && !s.IsClosed
}

// DaysOverdue counts whole days past the due date, zero when not overdue
func (s *Sale) DaysOverdue() int {
	if !s.Overdue() {
		return 0
	}
	return int(today().Sub(*s.DueDate).Hours() / 24)
}

// PaymentStatus derives the settlement state. Closure wins over everything,
// then fully paid, then partly paid, then overdue, then pending.
func (s *Sale) PaymentStatus() PaymentStatus {
	switch {
	case s.IsClosed:
		return PaymentStatusClosed
	case !s.DueAmount.IsPositive():
		return PaymentStatusCompleted
	case s.PaidAmount.IsPositive():
		return PaymentStatusPartial
	case s.Overdue():
		return PaymentStatusOverdue
	default:
		return PaymentStatusPending
	}
}

// CollectionEfficiency is paid as a percentage of the final amount
func (s *Sale) CollectionEfficiency() decimal.Decimal {
	if !s.FinalAmount.IsPositive() {
		return decimal.Zero
	}
	return s.PaidAmount.Div(s.FinalAmount).Mul(decimal.NewFromInt(100)).Round(2)
}

// RecoveryRate is paid plus written-off as a percentage of the final amount.
// A zero final amount counts as fully recovered.
func (s *Sale) RecoveryRate() decimal.Decimal {
	if !s.FinalAmount.IsPositive() {
		return decimal.NewFromInt(100)
	}
	return s.PaidAmount.Add(s.WriteoffAmount).Div(s.FinalAmount).Mul(decimal.NewFromInt(100)).Round(2)
}

// LossPercentage is the written-off share of the final amount
func (s *Sale) LossPercentage() decimal.Decimal {
	if !s.FinalAmount.IsPositive() {
		return decimal.Zero
	}
	return s.WriteoffAmount.Div(s.FinalAmount).Mul(decimal.NewFromInt(100)).Round(2)
}

// FullyRecovered checks if nothing is owed anymore
func (s *Sale) FullyRecovered() bool {
	return !s.DueAmount.IsPositive()
}

// ClosureStatus describes how the sale was closed, for display
func (s *Sale) ClosureStatus() string {
	if !s.IsClosed {
		return "Open"
	}
	switch {
	case !s.DueAmount.IsPositive() && !s.WriteoffAmount.IsPositive():
		return "Closed - Fully Paid"
	case s.WriteoffAmount.IsPositive() && !s.DueAmount.IsPositive():
		return "Closed - Partial Write-off"
	case !s.PaidAmount.IsPositive() && s.WriteoffAmount.IsPositive():
		return "Closed - Full Write-off"
	default:
		return "Closed"
	}
}

// FinancialSummary bundles the derived settlement metrics of one sale
type FinancialSummary struct {
	FinalAmount          decimal.Decimal `json:"final_amount"`
	PaidAmount           decimal.Decimal `json:"paid_amount"`
	DueAmount            decimal.Decimal `json:"due_amount"`
	WriteoffAmount       decimal.Decimal `json:"writeoff_amount"`
	CollectionEfficiency decimal.Decimal `json:"collection_efficiency"`
	RecoveryRate         decimal.Decimal `json:"recovery_rate"`
	LossPercentage       decimal.Decimal `json:"loss_percentage"`
	IsClosed             bool            `json:"is_closed"`
	ClosureStatus        string          `json:"closure_status"`
}

// Summary computes the financial summary of the sale
func (s *Sale) Summary() FinancialSummary {
	return FinancialSummary{
		FinalAmount:          s.FinalAmount,
		PaidAmount:           s.PaidAmount,
		DueAmount:            s.DueAmount,
		WriteoffAmount:       s.WriteoffAmount,
		CollectionEfficiency: s.CollectionEfficiency(),
		RecoveryRate:         s.RecoveryRate(),
		LossPercentage:       s.LossPercentage(),
		IsClosed:             s.IsClosed,
		ClosureStatus:        s.ClosureStatus(),
	}
}

// LineAmounts computes the item's discount amount and total price from
// quantity, unit price and discount percentage, both rounded to two places
func (i *SaleItem) LineAmounts() (discountAmount, totalPrice decimal.Decimal) {
	subtotal := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
	discountAmount = subtotal.Mul(i.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(2)
	totalPrice = subtotal.Sub(discountAmount).Round(2)
	return discountAmount, totalPrice
}

// today returns the current date truncated to midnight UTC
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

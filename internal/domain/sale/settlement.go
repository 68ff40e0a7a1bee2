// internal/domain/sale/settlement.go
package sale

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// AddPaymentRequest represents a settlement receipt
type AddPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate     string          `json:"payment_date,omitempty"` // YYYY-MM-DD, defaults to today
	PaymentMode     PaymentMode     `json:"payment_mode,omitempty"` // defaults to cash
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// WriteoffRequest represents a write-off authorization
type WriteoffRequest struct {
	Amount       decimal.Decimal `json:"amount"` // ignored by full write-off
	Reason       string          `json:"reason" binding:"required"`
	AuthorizedBy string          `json:"authorized_by" binding:"required"`
	Notes        string          `json:"notes,omitempty"`
}

// CloseSaleRequest represents an administrative closure
type CloseSaleRequest struct {
	Reason       string `json:"reason" binding:"required"`
	AuthorizedBy string `json:"authorized_by" binding:"required"`
	Notes        string `json:"notes,omitempty"`
}

// ReopenSaleRequest represents reopening a closed sale
type ReopenSaleRequest struct {
	AuthorizedBy string `json:"authorized_by" binding:"required"`
	Notes        string `json:"notes,omitempty"`
}

// AddPayment records a receipt against a confirmed open sale and recomputes
// paid and due amounts. The amount must be positive and must not exceed the
// current due amount.
func (s *Service) AddPayment(saleID uint, req *AddPaymentRequest) (*Payment, error) {
	sale, err := s.Get(saleID)
	if err != nil {
		return nil, err
	}
	if !sale.CanAddPayments() {
		return nil, apperrors.NewPolicy("adding payments", settlementState(sale))
	}

	if !req.Amount.IsPositive() {
		return nil, apperrors.NewValidation("payment amount must be greater than zero")
	}
	if req.Amount.GreaterThan(sale.DueAmount) {
		return nil, apperrors.Validationf("payment amount cannot exceed due amount of %s", sale.DueAmount)
	}

	mode := req.PaymentMode
	if mode == "" {
		mode = PaymentModeCash
	}
	if !mode.IsValid() {
		return nil, apperrors.Validationf("invalid payment mode: %s", mode)
	}

	paymentDate := today()
	if req.PaymentDate != "" {
		paymentDate, err = parseDate(req.PaymentDate)
		if err != nil {
			return nil, apperrors.NewValidation("payment date must be in YYYY-MM-DD format")
		}
	}

	payment := &Payment{
		SaleID:          sale.ID,
		Amount:          req.Amount.Round(2),
		PaymentDate:     paymentDate,
		PaymentMode:     mode,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return s.settle(tx, sale.ID)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// RemovePayment deletes a receipt and recomputes paid and due amounts
func (s *Service) RemovePayment(saleID, paymentID uint) (*Sale, error) {
	if _, err := s.Get(saleID); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND sale_id = ?", paymentID, saleID).Delete(&Payment{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NewNotFound("payment", paymentID)
		}
		return s.settle(tx, saleID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(saleID)
}

// settle rewrites paid_amount as the sum of the sale's payments and
// due_amount as the remainder against final_amount, floored at zero
func (s *Service) settle(tx *gorm.DB, saleID uint) error {
	var sale Sale
	if err := tx.First(&sale, saleID).Error; err != nil {
		return fmt.Errorf("failed to read sale: %w", err)
	}

	var payments []Payment
	if err := tx.Where("sale_id = ?", saleID).Find(&payments).Error; err != nil {
		return fmt.Errorf("failed to read payments: %w", err)
	}
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	paid = paid.Round(2)

	due := sale.FinalAmount.Sub(paid).Round(2)
	if due.IsNegative() {
		due = decimal.Zero
	}

	return tx.Model(&Sale{}).Where("id = ?", saleID).Updates(map[string]interface{}{
		"paid_amount": paid,
		"due_amount":  due,
	}).Error
}

// WriteoffRemainingBalance writes off the whole due amount and closes the
// sale. The written-off amount accumulates across write-offs.
func (s *Service) WriteoffRemainingBalance(saleID uint, req *WriteoffRequest) (*Sale, error) {
	sale, err := s.Get(saleID)
	if err != nil {
		return nil, err
	}
	if !sale.CanWriteoff() {
		return nil, apperrors.NewPolicy("write-off", settlementState(sale))
	}

	amount := sale.DueAmount
	notes := req.Notes
	if notes == "" {
		notes = fmt.Sprintf("Written off remaining balance of %s", amount)
	}

	now := today()
	err = s.db.Model(&Sale{}).Where("id = ?", sale.ID).Updates(map[string]interface{}{
		"writeoff_amount": sale.WriteoffAmount.Add(amount),
		"writeoff_reason": req.Reason,
		"writeoff_date":   now,
		"writeoff_by":     req.AuthorizedBy,
		"due_amount":      decimal.Zero,
		"is_closed":       true,
		"closed_date":     now,
		"closure_notes":   notes,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to write off sale: %w", err)
	}
	return s.Get(saleID)
}

// PartialWriteoff writes off part of the due amount. The sale closes only
// when the remaining due reaches zero.
func (s *Service) PartialWriteoff(saleID uint, req *WriteoffRequest) (*Sale, error) {
	sale, err := s.Get(saleID)
	if err != nil {
		return nil, err
	}
	if !sale.CanWriteoff() {
		return nil, apperrors.NewPolicy("write-off", settlementState(sale))
	}
	if !req.Amount.IsPositive() || req.Amount.GreaterThan(sale.DueAmount) {
		return nil, apperrors.Validationf("write-off amount must be between 0 and the due amount of %s", sale.DueAmount)
	}

	amount := req.Amount.Round(2)
	newDue := sale.DueAmount.Sub(amount).Round(2)
	closed := !newDue.IsPositive()

	notes := req.Notes
	if notes == "" {
		notes = fmt.Sprintf("Partial write-off of %s", amount)
	}

	now := today()
	updates := map[string]interface{}{
		"writeoff_amount": sale.WriteoffAmount.Add(amount),
		"writeoff_reason": req.Reason,
		"writeoff_date":   now,
		"writeoff_by":     req.AuthorizedBy,
		"due_amount":      newDue,
		"is_closed":       closed,
		"closure_notes":   notes,
	}
	if closed {
		updates["closed_date"] = now
	} else {
		updates["closed_date"] = nil
	}

	if err := s.db.Model(&Sale{}).Where("id = ?", sale.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to write off sale: %w", err)
	}
	return s.Get(saleID)
}

// CloseSale closes a confirmed sale regardless of its due amount
func (s *Service) CloseSale(saleID uint, req *CloseSaleRequest) (*Sale, error) {
	sale, err := s.Get(saleID)
	if err != nil {
		return nil, err
	}
	if !sale.IsConfirmed() {
		return nil, apperrors.NewPolicy("closure", string(sale.Status))
	}

	notes := req.Reason
	if req.Notes != "" {
		notes = req.Reason + ". " + req.Notes
	}

	err = s.db.Model(&Sale{}).Where("id = ?", sale.ID).Updates(map[string]interface{}{
		"is_closed":     true,
		"closed_date":   today(),
		"closure_notes": notes,
		"writeoff_by":   req.AuthorizedBy,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to close sale: %w", err)
	}
	return s.Get(saleID)
}

// ReopenSale reopens a closed sale and clears all write-off state. The due
// amount is left untouched, so a written-off balance stays forgiven even
// though the record of forgiving it is gone.
func (s *Service) ReopenSale(saleID uint, req *ReopenSaleRequest) (*Sale, error) {
	sale, err := s.Get(saleID)
	if err != nil {
		return nil, err
	}
	if !sale.IsClosed {
		return nil, apperrors.NewPolicy("reopening", "open")
	}

	notes := fmt.Sprintf("Reopened by %s", req.AuthorizedBy)
	if req.Notes != "" {
		notes += ". " + req.Notes
	}

	err = s.db.Model(&Sale{}).Where("id = ?", sale.ID).Updates(map[string]interface{}{
		"is_closed":       false,
		"closed_date":     nil,
		"closure_notes":   notes,
		"writeoff_amount": decimal.Zero,
		"writeoff_reason": "",
		"writeoff_date":   nil,
		"writeoff_by":     "",
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reopen sale: %w", err)
	}
	return s.Get(saleID)
}

// settlementState names the state that blocked a settlement operation
func settlementState(sale *Sale) string {
	if !sale.IsConfirmed() {
		return string(sale.Status)
	}
	if sale.IsClosed {
		return "closed"
	}
	if !sale.DueAmount.IsPositive() {
		return "fully paid"
	}
	return "open"
}

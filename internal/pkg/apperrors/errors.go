// internal/pkg/apperrors/errors.go
package apperrors

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed or out-of-range input. Nothing is
// mutated when it is returned.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// NewValidation creates a ValidationError from one or more messages.
func NewValidation(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// Validationf creates a single-message ValidationError.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Messages: []string{fmt.Sprintf(format, args...)}}
}

// PolicyError reports an operation that is not permitted in the entity's
// current state. State always names the state that blocked the operation.
type PolicyError struct {
	Operation string
	State     string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s not permitted: current status is %s", e.Operation, e.State)
}

// NewPolicy creates a PolicyError.
func NewPolicy(operation, state string) *PolicyError {
	return &PolicyError{Operation: operation, State: state}
}

// StockShortfall describes one product whose requested quantity exceeds
// what a branch has on hand.
type StockShortfall struct {
	ProductSkuID uint   `json:"product_sku_id"`
	ProductName  string `json:"product_name,omitempty"`
	Requested    int    `json:"requested"`
	Available    int    `json:"available"`
}

func (s StockShortfall) String() string {
	name := s.ProductName
	if name == "" {
		name = fmt.Sprintf("product %d", s.ProductSkuID)
	}
	if s.Available == 0 && s.Requested > 0 {
		return fmt.Sprintf("%s is not available in this branch", name)
	}
	return fmt.Sprintf("%s: only %d units available, but %d requested", name, s.Available, s.Requested)
}

// InsufficientStockError reports debits that exceed available quantity.
// Validation paths collect every shortfall before returning.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	msgs := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		msgs[i] = s.String()
	}
	return "insufficient stock: " + strings.Join(msgs, "; ")
}

// NewInsufficientStock creates an InsufficientStockError.
func NewInsufficientStock(shortfalls ...StockShortfall) *InsufficientStockError {
	return &InsufficientStockError{Shortfalls: shortfalls}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NewNotFound creates a NotFoundError.
func NewNotFound(entity string, id uint) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConcurrencyConflictError reports a lost optimistic-lock race on a stock
// position. The whole unit of work should be retried by the caller.
type ConcurrencyConflictError struct {
	Entity string
	ID     uint
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent update detected on %s %d, retry the operation", e.Entity, e.ID)
}

// NewConcurrencyConflict creates a ConcurrencyConflictError.
func NewConcurrencyConflict(entity string, id uint) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{Entity: entity, ID: id}
}

// internal/domain/catalog/entity.go
package catalog

import (
	"fmt"
	"time"
)

// ProductSku represents a sellable product. The sku_code is normalized to
// trimmed upper case before every write, so uniqueness is case-insensitive.
type ProductSku struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SkuName     string    `gorm:"not null;size:100" json:"sku_name"`
	SkuCode     string    `gorm:"uniqueIndex;not null;size:50" json:"sku_code"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (ProductSku) TableName() string { return "product_skus" }

// DisplayName combines name and code for display
func (p *ProductSku) DisplayName() string {
	return fmt.Sprintf("%s (%s)", p.SkuName, p.SkuCode)
}

// HasDescription checks if a description is present
func (p *ProductSku) HasDescription() bool {
	return p.Description != ""
}

// internal/domain/branch/entity.go
package branch

import (
	"strings"
	"time"
)

// Branch represents one retail location
type Branch struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Address             string    `gorm:"not null;type:text" json:"address"`
	City                string    `gorm:"size:100" json:"city,omitempty"`
	State               string    `gorm:"size:100" json:"state,omitempty"`
	Pincode             string    `gorm:"size:100" json:"pincode,omitempty"`
	Email               string    `gorm:"size:100" json:"email,omitempty"`
	ManagerName         string    `gorm:"size:100" json:"manager_name,omitempty"`
	ManagerMobileNumber string    `gorm:"size:100" json:"manager_mobile_number,omitempty"`
	IsActive            bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Branch) TableName() string { return "branches" }

// DisplayStatus returns the active flag for display
func (b *Branch) DisplayStatus() string {
	if b.IsActive {
		return "Active"
	}
	return "Inactive"
}

// FullAddress joins the address parts that are present
func (b *Branch) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{b.Address, b.City, b.State, b.Pincode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// ManagerInfo describes the branch manager for display
func (b *Branch) ManagerInfo() string {
	if b.ManagerName == "" {
		return "N/A"
	}
	info := b.ManagerName
	if b.ManagerMobileNumber != "" {
		info += " (" + b.ManagerMobileNumber + ")"
	}
	if b.Email != "" {
		info += " - " + b.Email
	}
	return info
}

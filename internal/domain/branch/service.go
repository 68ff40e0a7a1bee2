// internal/domain/branch/service.go
package branch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

var mobileNumberPattern = regexp.MustCompile(`^\d{10}$`)

// Service handles branch master data
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new branch service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateBranchRequest represents branch creation data
type CreateBranchRequest struct {
	Name                string `json:"name" binding:"required,max=100"`
	Address             string `json:"address" binding:"required"`
	City                string `json:"city,omitempty" binding:"max=100"`
	State               string `json:"state,omitempty" binding:"max=100"`
	Pincode             string `json:"pincode,omitempty" binding:"max=100"`
	Email               string `json:"email,omitempty" binding:"max=100"`
	ManagerName         string `json:"manager_name,omitempty" binding:"max=100"`
	ManagerMobileNumber string `json:"manager_mobile_number,omitempty"`
	IsActive            *bool  `json:"is_active,omitempty"`
}

// UpdateBranchRequest represents branch update data
type UpdateBranchRequest struct {
	Name                string `json:"name,omitempty" binding:"max=100"`
	Address             string `json:"address,omitempty"`
	City                string `json:"city,omitempty" binding:"max=100"`
	State               string `json:"state,omitempty" binding:"max=100"`
	Pincode             string `json:"pincode,omitempty" binding:"max=100"`
	Email               string `json:"email,omitempty" binding:"max=100"`
	ManagerName         string `json:"manager_name,omitempty" binding:"max=100"`
	ManagerMobileNumber string `json:"manager_mobile_number,omitempty"`
	IsActive            *bool  `json:"is_active,omitempty"`
}

// BranchListRequest represents branch list query parameters
type BranchListRequest struct {
	Active string `form:"active"` // "active", "inactive", or empty for all
	Name   string `form:"name"`
	City   string `form:"city"`
	State  string `form:"state"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
}

// Create creates a branch
func (s *Service) Create(req *CreateBranchRequest) (*Branch, error) {
	if req.ManagerMobileNumber != "" && !mobileNumberPattern.MatchString(req.ManagerMobileNumber) {
		return nil, apperrors.NewValidation("manager mobile number must be a valid 10-digit mobile number")
	}

	b := &Branch{
		Name:                strings.TrimSpace(req.Name),
		Address:             req.Address,
		City:                req.City,
		State:               req.State,
		Pincode:             req.Pincode,
		Email:               req.Email,
		ManagerName:         req.ManagerName,
		ManagerMobileNumber: req.ManagerMobileNumber,
		IsActive:            true,
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}

	if err := s.db.Create(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Validationf("branch name %s is already taken", b.Name)
		}
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}
	return b, nil
}

// Get retrieves a branch by ID
func (s *Service) Get(id uint) (*Branch, error) {
	var b Branch
	err := s.db.First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("branch", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read branch: %w", err)
	}
	return &b, nil
}

// List retrieves branches with filters and pagination, ordered by name
func (s *Service) List(req *BranchListRequest) ([]Branch, int64, error) {
	query := s.db.Model(&Branch{})

	switch strings.ToLower(req.Active) {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}
	if req.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(req.Name)+"%")
	}
	if req.City != "" {
		query = query.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(req.City)+"%")
	}
	if req.State != "" {
		query = query.Where("LOWER(state) LIKE ?", "%"+strings.ToLower(req.State)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count branches: %w", err)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}

	var branches []Branch
	if err := query.Order("name").
		Offset((page - 1) * limit).Limit(limit).
		Find(&branches).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, total, nil
}

// Update changes branch fields
func (s *Service) Update(id uint, req *UpdateBranchRequest) (*Branch, error) {
	b, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.ManagerMobileNumber != "" && !mobileNumberPattern.MatchString(req.ManagerMobileNumber) {
		return nil, apperrors.NewValidation("manager mobile number must be a valid 10-digit mobile number")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = strings.TrimSpace(req.Name)
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.City != "" {
		updates["city"] = req.City
	}
	if req.State != "" {
		updates["state"] = req.State
	}
	if req.Pincode != "" {
		updates["pincode"] = req.Pincode
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.ManagerName != "" {
		updates["manager_name"] = req.ManagerName
	}
	if req.ManagerMobileNumber != "" {
		updates["manager_mobile_number"] = req.ManagerMobileNumber
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return b, nil
	}

	if err := s.db.Model(b).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Validationf("branch name is already taken")
		}
		return nil, fmt.Errorf("failed to update branch: %w", err)
	}
	return s.Get(id)
}

// Delete removes a branch with no stock positions or documents
func (s *Service) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	for _, ref := range []struct {
		table  string
		column string
	}{
		{"inventories", "branch_id"},
		{"purchase_orders", "branch_id"},
		{"sales", "branch_id"},
	} {
		var count int64
		if err := s.db.Table(ref.table).Where(ref.column+" = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check branch usage: %w", err)
		}
		if count > 0 {
			return apperrors.Validationf("branch is in use and cannot be deleted (%s)", ref.table)
		}
	}

	if err := s.db.Delete(&Branch{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete branch: %w", err)
	}
	return nil
}

// internal/domain/catalog/service.go
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles product master data
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateProductSkuRequest represents product creation data
type CreateProductSkuRequest struct {
	SkuName     string `json:"sku_name" binding:"required,max=100"`
	SkuCode     string `json:"sku_code" binding:"required,max=50"`
	Description string `json:"description,omitempty" binding:"max=500"`
}

// UpdateProductSkuRequest represents product update data
type UpdateProductSkuRequest struct {
	SkuName     string  `json:"sku_name,omitempty" binding:"max=100"`
	SkuCode     string  `json:"sku_code,omitempty" binding:"max=50"`
	Description *string `json:"description,omitempty"`
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Name  string `form:"name"`
	Code  string `form:"code"`
	Page  int    `form:"page,default=1"`
	Limit int    `form:"limit,default=20"`
}

// NormalizeSkuCode trims and upper-cases a sku code
func NormalizeSkuCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create creates a product
func (s *Service) Create(req *CreateProductSkuRequest) (*ProductSku, error) {
	product := &ProductSku{
		SkuName:     strings.TrimSpace(req.SkuName),
		SkuCode:     NormalizeSkuCode(req.SkuCode),
		Description: req.Description,
	}
	if product.SkuName == "" {
		return nil, apperrors.NewValidation("sku name is required")
	}
	if product.SkuCode == "" {
		return nil, apperrors.NewValidation("sku code is required")
	}

	if err := s.db.Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Validationf("sku code %s is already taken", product.SkuCode)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Get retrieves a product by ID
func (s *Service) Get(id uint) (*ProductSku, error) {
	var product ProductSku
	err := s.db.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read product: %w", err)
	}
	return &product, nil
}

// List retrieves products with name/code filters and pagination
func (s *Service) List(req *ProductListRequest) ([]ProductSku, int64, error) {
	query := s.db.Model(&ProductSku{})

	if req.Name != "" {
		query = query.Where("LOWER(sku_name) LIKE ?", "%"+strings.ToLower(req.Name)+"%")
	}
	if req.Code != "" {
		query = query.Where("LOWER(sku_code) LIKE ?", "%"+strings.ToLower(req.Code)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}

	var products []ProductSku
	if err := query.Order("sku_name").
		Offset((page - 1) * limit).Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Update changes product fields
func (s *Service) Update(id uint, req *UpdateProductSkuRequest) (*ProductSku, error) {
	product, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.SkuName != "" {
		updates["sku_name"] = strings.TrimSpace(req.SkuName)
	}
	if req.SkuCode != "" {
		updates["sku_code"] = NormalizeSkuCode(req.SkuCode)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.Model(product).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Validationf("sku code is already taken")
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.Get(id)
}

// Delete removes a product that is not referenced anywhere. Order items and
// stock positions keep their history, so a referenced product stays.
func (s *Service) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	for _, ref := range []struct {
		table  string
		column string
	}{
		{"purchase_order_items", "product_sku_id"},
		{"sale_items", "product_sku_id"},
		{"inventories", "product_sku_id"},
	} {
		var count int64
		if err := s.db.Table(ref.table).Where(ref.column+" = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check product usage: %w", err)
		}
		if count > 0 {
			return apperrors.Validationf("product is in use and cannot be deleted (%s)", ref.table)
		}
	}

	if err := s.db.Delete(&ProductSku{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

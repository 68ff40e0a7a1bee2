// internal/interfaces/http/handlers/product_sku.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// ProductSkuHandler handles product catalog endpoints
type ProductSkuHandler struct {
	catalogService *catalog.Service
	config         *config.Config
}

// NewProductSkuHandler creates a new product sku handler
func NewProductSkuHandler(db *gorm.DB, cfg *config.Config) *ProductSkuHandler {
	return &ProductSkuHandler{
		catalogService: catalog.NewService(db, cfg),
		config:         cfg,
	}
}

// Create handles POST /products
func (h *ProductSkuHandler) Create(c *gin.Context) {
	var req catalog.CreateProductSkuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalogService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    product,
	})
}

// Get handles GET /products/:id
func (h *ProductSkuHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// List handles GET /products
func (h *ProductSkuHandler) List(c *gin.Context) {
	var req catalog.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	products, total, err := h.catalogService.List(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"products": products,
			"total":    total,
			"page":     req.Page,
			"limit":    req.Limit,
		},
	})
}

// Update handles PUT /products/:id
func (h *ProductSkuHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req catalog.UpdateProductSkuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalogService.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    product,
	})
}

// Delete handles DELETE /products/:id
func (h *ProductSkuHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

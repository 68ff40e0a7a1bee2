// internal/interfaces/http/handlers/sale.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/inventory"
	"github.com/your-org/retail-backend/internal/domain/sale"
	"gorm.io/gorm"
)

// SaleHandler handles sale and settlement endpoints
type SaleHandler struct {
	saleService *sale.Service
	config      *config.Config
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(db *gorm.DB, cfg *config.Config) *SaleHandler {
	inventoryService := inventory.NewService(db, cfg)
	return &SaleHandler{
		saleService: sale.NewService(db, cfg, inventoryService),
		config:      cfg,
	}
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req sale.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	created, err := h.saleService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale created successfully",
		"data":    created,
	})
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sl, err := h.saleService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sl})
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var req sale.SaleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.saleService.List(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ListOverdue handles GET /sales/overdue
func (h *SaleHandler) ListOverdue(c *gin.Context) {
	var branchID uint64
	if v := c.Query("branch_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch_id"})
			return
		}
		branchID = parsed
	}

	sales, err := h.saleService.ListOverdue(uint(branchID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"sales": sales},
	})
}

// Update handles PUT /sales/:id
func (h *SaleHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req sale.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	updated, err := h.saleService.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale updated successfully",
		"data":    updated,
	})
}

// Delete handles DELETE /sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.saleService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted successfully"})
}

// Confirm handles POST /sales/:id/confirm
func (h *SaleHandler) Confirm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sl, err := h.saleService.Confirm(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale confirmed and stock deducted",
		"data":    sl,
	})
}

// AddPayment handles POST /sales/:id/payments
func (h *SaleHandler) AddPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req sale.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	payment, err := h.saleService.AddPayment(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Payment recorded successfully",
		"data":    payment,
	})
}

// RemovePayment handles DELETE /sales/:id/payments/:payment_id
func (h *SaleHandler) RemovePayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	paymentID, ok := parseID(c, "payment_id")
	if !ok {
		return
	}

	sl, err := h.saleService.RemovePayment(id, paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment removed successfully",
		"data":    sl,
	})
}

// Writeoff handles POST /sales/:id/writeoff
func (h *SaleHandler) Writeoff(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req sale.WriteoffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sl, err := h.saleService.WriteoffRemainingBalance(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Remaining balance written off",
		"data":    sl,
	})
}

// PartialWriteoff handles POST /sales/:id/partial-writeoff
func (h *SaleHandler) PartialWriteoff(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req sale.WriteoffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sl, err := h.saleService.PartialWriteoff(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Partial write-off recorded",
		"data":    sl,
	})
}

// Close handles POST /sales/:id/close
func (h *SaleHandler) Close(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req sale.CloseSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sl, err := h.saleService.CloseSale(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale closed successfully",
		"data":    sl,
	})
}

// Reopen handles POST /sales/:id/reopen
func (h *SaleHandler) Reopen(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req sale.ReopenSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sl, err := h.saleService.ReopenSale(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale reopened successfully",
		"data":    sl,
	})
}

// FinancialSummary handles GET /sales/:id/financial-summary
func (h *SaleHandler) FinancialSummary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sl, err := h.saleService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sl.Summary()})
}

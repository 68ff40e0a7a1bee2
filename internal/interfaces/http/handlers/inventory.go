// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// InventoryHandler handles stock position and ledger endpoints
type InventoryHandler struct {
	inventoryService *inventory.Service
	config           *config.Config
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(db *gorm.DB, cfg *config.Config) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventory.NewService(db, cfg),
		config:           cfg,
	}
}

// ListPositions handles GET /inventory/positions
func (h *InventoryHandler) ListPositions(c *gin.Context) {
	var req inventory.PositionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	positions, total, err := h.inventoryService.ListPositions(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"positions": positions,
			"total":     total,
			"page":      req.Page,
			"limit":     req.Limit,
		},
	})
}

// GetPosition handles GET /inventory/position
func (h *InventoryHandler) GetPosition(c *gin.Context) {
	branchID, err := strconv.ParseUint(c.Query("branch_id"), 10, 32)
	if err != nil || branchID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return
	}
	productSkuID, err := strconv.ParseUint(c.Query("product_sku_id"), 10, 32)
	if err != nil || productSkuID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_sku_id is required"})
		return
	}

	position, err := h.inventoryService.GetPosition(uint(branchID), uint(productSkuID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": position})
}

// History handles GET /inventory/positions/:id/transactions
func (h *InventoryHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req inventory.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	transactions, err := h.inventoryService.History(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"transactions": transactions},
	})
}

// PostTransaction handles POST /inventory/transactions
func (h *InventoryHandler) PostTransaction(c *gin.Context) {
	var req inventory.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	txn, err := h.inventoryService.PostTransaction(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Stock transaction recorded",
		"data":    txn,
	})
}

// AdjustStock handles POST /inventory/adjust
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req inventory.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	txn, err := h.inventoryService.AdjustStock(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock adjusted successfully",
		"data":    txn,
	})
}

// LowStock handles GET /inventory/low-stock
func (h *InventoryHandler) LowStock(c *gin.Context) {
	var branchID uint64
	if v := c.Query("branch_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch_id"})
			return
		}
		branchID = parsed
	}

	positions, err := h.inventoryService.LowStock(uint(branchID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"positions": positions},
	})
}

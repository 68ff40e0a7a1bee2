// internal/interfaces/http/handlers/branch.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/branch"
	"gorm.io/gorm"
)

// BranchHandler handles branch endpoints
type BranchHandler struct {
	branchService *branch.Service
	config        *config.Config
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(db *gorm.DB, cfg *config.Config) *BranchHandler {
	return &BranchHandler{
		branchService: branch.NewService(db, cfg),
		config:        cfg,
	}
}

// Create handles POST /branches
func (h *BranchHandler) Create(c *gin.Context) {
	var req branch.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	created, err := h.branchService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Branch created successfully",
		"data":    created,
	})
}

// Get handles GET /branches/:id
func (h *BranchHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	br, err := h.branchService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": br})
}

// List handles GET /branches
func (h *BranchHandler) List(c *gin.Context) {
	var req branch.BranchListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	branches, total, err := h.branchService.List(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"branches": branches,
			"total":    total,
			"page":     req.Page,
			"limit":    req.Limit,
		},
	})
}

// Update handles PUT /branches/:id
func (h *BranchHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req branch.UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	updated, err := h.branchService.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Branch updated successfully",
		"data":    updated,
	})
}

// Delete handles DELETE /branches/:id
func (h *BranchHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.branchService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Branch deleted successfully"})
}

// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/branch"
	"github.com/your-org/retail-backend/internal/domain/inventory"
	"github.com/your-org/retail-backend/internal/domain/sale"
	"github.com/your-org/retail-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// InvoiceHandler renders sale invoices as PDF
type InvoiceHandler struct {
	saleService   *sale.Service
	branchService *branch.Service
	pdfService    *pdf.Service
	config        *config.Config
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(db *gorm.DB, cfg *config.Config) *InvoiceHandler {
	inventoryService := inventory.NewService(db, cfg)
	return &InvoiceHandler{
		saleService:   sale.NewService(db, cfg, inventoryService),
		branchService: branch.NewService(db, cfg),
		pdfService:    pdf.NewService(cfg),
		config:        cfg,
	}
}

// Download handles GET /sales/:id/invoice
func (h *InvoiceHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sl, err := h.saleService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	br, err := h.branchService.Get(sl.BranchID)
	if err != nil {
		respondError(c, err)
		return
	}

	buf, err := h.pdfService.GenerateInvoice(sl, br)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice PDF",
		})
		return
	}

	filename := fmt.Sprintf("invoice-%s.pdf", sl.InvoiceNumber)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

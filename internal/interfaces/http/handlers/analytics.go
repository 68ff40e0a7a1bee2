// internal/interfaces/http/handlers/analytics.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/analytics"
	"gorm.io/gorm"
)

// AnalyticsHandler handles reporting and dashboard endpoints
type AnalyticsHandler struct {
	analyticsService *analytics.Service
	config           *config.Config
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(db *gorm.DB, cfg *config.Config) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analytics.NewService(db, cfg),
		config:           cfg,
	}
}

func bindReportRequest(c *gin.Context) (*analytics.ReportRequest, bool) {
	var req analytics.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return nil, false
	}
	return &req, true
}

// SalesReport handles GET /dashboard/sales-report
func (h *AnalyticsHandler) SalesReport(c *gin.Context) {
	req, ok := bindReportRequest(c)
	if !ok {
		return
	}

	report, err := h.analyticsService.SalesReport(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// WriteoffReport handles GET /dashboard/writeoff-report
func (h *AnalyticsHandler) WriteoffReport(c *gin.Context) {
	req, ok := bindReportRequest(c)
	if !ok {
		return
	}

	report, err := h.analyticsService.WriteoffReport(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// Dashboard handles GET /dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	req, ok := bindReportRequest(c)
	if !ok {
		return
	}

	dashboard, err := h.analyticsService.Dashboard(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dashboard})
}

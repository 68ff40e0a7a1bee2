// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
)

// respondError maps domain errors to HTTP status codes. Unknown errors are
// reported as 500 without leaking their message.
func respondError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"errors":  validationErr.Messages,
		})
		return
	}

	var stockErr *apperrors.InsufficientStockError
	if errors.As(err, &stockErr) {
		messages := make([]string, len(stockErr.Shortfalls))
		for i, s := range stockErr.Shortfalls {
			messages[i] = s.String()
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":    false,
			"errors":     messages,
			"shortfalls": stockErr.Shortfalls,
		})
		return
	}

	var policyErr *apperrors.PolicyError
	if errors.As(err, &policyErr) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"errors":  []string{policyErr.Error()},
		})
		return
	}

	var notFoundErr *apperrors.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"errors":  []string{notFoundErr.Error()},
		})
		return
	}

	var conflictErr *apperrors.ConcurrencyConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"errors":  []string{conflictErr.Error()},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"errors":  []string{"internal server error"},
	})
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"errors":  []string{"invalid " + name},
		})
		return 0, false
	}
	return uint(id), true
}

package handlers

import (
	"log"
	"net/http"

	"tennis-ledger-api/packages/core/apperrors"

	"github.com/gin-gonic/gin"
)

// statusFor maps an engine error to its HTTP status.
func statusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindInsufficientFunds:
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Unclassified errors are logged
// and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

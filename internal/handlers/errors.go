package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"pos-backoffice/internal/catalog"
	"pos-backoffice/internal/idempotency"
	"pos-backoffice/internal/inventory"
	"pos-backoffice/internal/pricing"
	"pos-backoffice/internal/sales"
	"pos-backoffice/internal/tickets"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// writeError maps domain errors to a status and a message safe to show the
// cashier. Anything unrecognised is logged in full and reported generically.
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	var (
		valErr   *sales.ValidationError
		stockErr *inventory.InsufficientStockError
	)

	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
	case errors.Is(err, sales.ErrForeignKeyViolation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "A referenced customer or product does not exist"})
	case errors.Is(err, tickets.ErrInvalidStatus),
		errors.Is(err, pricing.ErrDiscountOutOfRange),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrNegativePrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":       fmt.Sprintf("Insufficient stock for %s", stockErr.ProductName),
			"productId":   stockErr.ProductID,
			"productName": stockErr.ProductName,
			"available":   stockErr.Available,
			"requested":   stockErr.Requested,
		})
	case errors.Is(err, inventory.ErrProductNotFound), errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tickets.ErrNotFound),
		errors.Is(err, tickets.ErrItemNotInCart),
		errors.Is(err, sales.ErrSaleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tickets.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, idempotency.ErrInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, sales.ErrLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stock is busy, please retry"})
	default:
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"pos-backoffice/internal/inventory"
	"pos-backoffice/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxLedgerRows = 500

type LedgerReader interface {
	List(ctx context.Context, f inventory.LedgerFilter) ([]models.InventoryTransaction, error)
}

type LedgerHandler struct {
	ledger LedgerReader
	log    zerolog.Logger
}

func NewLedgerHandler(ledger LedgerReader, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, log: log}
}

// GET /inventory-transactions?productId=&relatedDocumentId=
func (h *LedgerHandler) List(c *gin.Context) {
	f := inventory.LedgerFilter{
		RelatedDocumentID: c.Query("relatedDocumentId"),
		Limit:             maxLedgerRows,
	}
	if raw := c.Query("productId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid Product ID")
			return
		}
		f.ProductID = uint(id)
	}

	rows, err := h.ledger.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"pos-backoffice/internal/idempotency"
	"pos-backoffice/internal/middleware"
	"pos-backoffice/internal/models"
	"pos-backoffice/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const IdempotencyHeader = "Idempotency-Key"

// SaleService is what the sale routes need from the sales package.
type SaleService interface {
	CommitSale(ctx context.Context, req sales.CommitRequest) (models.Sale, error)
	ListSales(ctx context.Context, f sales.SalesFilter) ([]models.Sale, error)
	GetSale(ctx context.Context, id string) (models.Sale, error)
	Summarize(ctx context.Context, f sales.SalesFilter) (sales.Summary, error)
}

// ActivePool keeps at least one open ticket around.
type ActivePool interface {
	EnsureActive(ctx context.Context) (*models.Ticket, error)
}

type SaleHandler struct {
	sales SaleService
	pool  ActivePool
	idem  idempotency.Store
	log   zerolog.Logger
	loc   *time.Location
	now   func() time.Time
}

func NewSaleHandler(svc SaleService, pool ActivePool, idem idempotency.Store, loc *time.Location, log zerolog.Logger) *SaleHandler {
	if idem == nil {
		idem = idempotency.Nop{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &SaleHandler{sales: svc, pool: pool, idem: idem, log: log, loc: loc, now: time.Now}
}

// POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req sales.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	// the token's cashier wins over whatever the client typed
	if id := middleware.CashierID(c); id != "" {
		req.CashierID = id
	}

	ctx := c.Request.Context()

	// 1. Replays of a finished request get the stored sale back
	key := c.GetHeader(IdempotencyHeader)
	if key != "" {
		saleID, err := h.idem.Reserve(ctx, key)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		if saleID != "" {
			sale, err := h.sales.GetSale(ctx, saleID)
			if err != nil {
				writeError(c, h.log, err)
				return
			}
			c.JSON(http.StatusOK, sale)
			return
		}
	}

	// 2. Commit
	sale, err := h.sales.CommitSale(ctx, req)
	if err != nil {
		if key != "" {
			if relErr := h.idem.Release(context.WithoutCancel(ctx), key); relErr != nil {
				h.log.Warn().Err(relErr).Msg("release idempotency key")
			}
		}
		writeError(c, h.log, err)
		return
	}

	// 3. Bookkeeping that must not fail the sale
	if key != "" {
		if err := h.idem.Complete(context.WithoutCancel(ctx), key, sale.ID); err != nil {
			h.log.Warn().Err(err).Str("sale_id", sale.ID).Msg("complete idempotency key")
		}
	}
	if req.TicketID != "" {
		if _, err := h.pool.EnsureActive(ctx); err != nil {
			h.log.Warn().Err(err).Msg("ensure active ticket")
		}
	}

	c.JSON(http.StatusCreated, sale)
}

// GET /sales?period=today|&startDate=&endDate=
func (h *SaleHandler) List(c *gin.Context) {
	f, err := h.filter(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	list, err := h.sales.ListSales(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	sale, err := h.sales.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// GET /sales/summary takes the same filters as List.
func (h *SaleHandler) Summary(c *gin.Context) {
	f, err := h.filter(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	sum, err := h.sales.Summarize(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *SaleHandler) filter(c *gin.Context) (sales.SalesFilter, error) {
	return sales.ParseFilter(c.Query("period"), c.Query("startDate"), c.Query("endDate"), h.now(), h.loc)
}

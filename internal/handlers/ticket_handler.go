package handlers

import (
	"context"
	"net/http"
	"strconv"

	"pos-backoffice/internal/models"
	"pos-backoffice/internal/tickets"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TicketStore is the ticket API the routes drive.
type TicketStore interface {
	Create(ctx context.Context, name string, status models.TicketStatus, items []models.TicketItem) (models.Ticket, error)
	List(ctx context.Context) ([]models.Ticket, error)
	Update(ctx context.Context, id string, u tickets.TicketUpdate) (models.Ticket, error)
	Delete(ctx context.Context, id string) error
	EnsureActive(ctx context.Context) (*models.Ticket, error)
	AddItem(ctx context.Context, id string, version int, productID uint, quantity int) (models.Ticket, error)
	UpdateItem(ctx context.Context, id string, version int, productID uint, quantity *int, pct *float64) (models.Ticket, error)
	RemoveItem(ctx context.Context, id string, version int, productID uint) (models.Ticket, error)
}

type TicketHandler struct {
	store TicketStore
	log   zerolog.Logger
}

func NewTicketHandler(store TicketStore, log zerolog.Logger) *TicketHandler {
	return &TicketHandler{store: store, log: log}
}

type createTicketRequest struct {
	Name      string              `json:"name"`
	CartItems []models.TicketItem `json:"cart_items"`
	Status    models.TicketStatus `json:"status"`
}

type updateTicketRequest struct {
	Name      *string              `json:"name"`
	CartItems *[]models.TicketItem `json:"cart_items"`
	Status    *models.TicketStatus `json:"status"`
	Version   *int                 `json:"version"`
}

type addItemRequest struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
	Version   int  `json:"version" binding:"required"`
}

type updateItemRequest struct {
	Version            int      `json:"version" binding:"required"`
	Quantity           *int     `json:"quantity"`
	DiscountPercentage *float64 `json:"discountPercentage"`
}

type versionRequest struct {
	Version int `json:"version" form:"version" binding:"required"`
}

// POST /sales-tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	t, err := h.store.Create(c.Request.Context(), req.Name, req.Status, req.CartItems)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GET /sales-tickets
func (h *TicketHandler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PUT /sales-tickets/:id
func (h *TicketHandler) Update(c *gin.Context) {
	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	t, err := h.store.Update(c.Request.Context(), c.Param("id"), tickets.TicketUpdate{
		Name:      req.Name,
		CartItems: req.CartItems,
		Status:    req.Status,
		Version:   req.Version,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /sales-tickets/:id closes a ticket. The last one closed is replaced
// by a fresh empty ticket.
func (h *TicketHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.store.Delete(ctx, c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	if _, err := h.store.EnsureActive(ctx); err != nil {
		h.log.Warn().Err(err).Msg("ensure active ticket")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ticket closed successfully"})
}

// POST /sales-tickets/:id/items
func (h *TicketHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	t, err := h.store.AddItem(c.Request.Context(), c.Param("id"), req.Version, req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// PATCH /sales-tickets/:id/items/:productId sets quantity, discount or both.
func (h *TicketHandler) UpdateItem(c *gin.Context) {
	productID, ok := productParam(c)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if req.Quantity == nil && req.DiscountPercentage == nil {
		badRequest(c, "Nothing to update: send quantity or discountPercentage")
		return
	}

	t, err := h.store.UpdateItem(c.Request.Context(), c.Param("id"), req.Version, productID, req.Quantity, req.DiscountPercentage)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /sales-tickets/:id/items/:productId
func (h *TicketHandler) RemoveItem(c *gin.Context) {
	productID, ok := productParam(c)
	if !ok {
		return
	}
	var req versionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	} else if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "version is required")
		return
	}

	t, err := h.store.RemoveItem(c.Request.Context(), c.Param("id"), req.Version, productID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func productParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid Product ID")
		return 0, false
	}
	return uint(id), true
}

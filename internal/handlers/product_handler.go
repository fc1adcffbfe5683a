package handlers

import (
	"context"
	"net/http"
	"strconv"

	"pos-backoffice/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ProductCatalog interface {
	Product(ctx context.Context, id uint) (models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

// ProductHandler is the read-only catalog the cashier screen picks products from.
type ProductHandler struct {
	catalog ProductCatalog
	log     zerolog.Logger
}

func NewProductHandler(catalog ProductCatalog, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, log: log}
}

// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid Product ID")
		return
	}
	p, err := h.catalog.Product(c.Request.Context(), uint(id))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

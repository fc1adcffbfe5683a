package handlers

import (
	"time"

	"pos-backoffice/internal/auth"
	"pos-backoffice/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string
	// Tokens is nil when JWT_SECRET is not configured.
	Tokens *auth.Tokens
	Logger zerolog.Logger
}

type Routes struct {
	Sales    *SaleHandler
	Tickets  *TicketHandler
	Ledger   *LedgerHandler
	Products *ProductHandler
	System   *SystemHandler
}

func NewRouter(cfg RouterConfig, h Routes) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.System.Health)

	api := r.Group("/")
	if cfg.Tokens != nil {
		api.Use(middleware.Identify(cfg.Tokens))
	}
	{
		api.POST("/sales", h.Sales.Create)
		api.GET("/sales", h.Sales.List)
		api.GET("/sales/summary", h.Sales.Summary)
		api.GET("/sales/:id", h.Sales.Get)

		api.POST("/sales-tickets", h.Tickets.Create)
		api.GET("/sales-tickets", h.Tickets.List)
		api.PUT("/sales-tickets/:id", h.Tickets.Update)
		api.DELETE("/sales-tickets/:id", h.Tickets.Delete)
		api.POST("/sales-tickets/:id/items", h.Tickets.AddItem)
		api.PATCH("/sales-tickets/:id/items/:productId", h.Tickets.UpdateItem)
		api.DELETE("/sales-tickets/:id/items/:productId", h.Tickets.RemoveItem)

		api.GET("/products", h.Products.List)
		api.GET("/products/:id", h.Products.Get)
	}

	// the stock audit trail is manager only once tokens are in use
	audit := r.Group("/")
	if cfg.Tokens != nil {
		audit.Use(middleware.RequireAuth(cfg.Tokens), middleware.RequireRole("manager"))
	}
	audit.GET("/inventory-transactions", h.Ledger.List)

	return r
}

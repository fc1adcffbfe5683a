// Package sales turns a cart into a permanent sale and serves sales history.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-backoffice/internal/events"
	"pos-backoffice/internal/inventory"
	"pos-backoffice/internal/models"
	"pos-backoffice/internal/tickets"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	instrumentation      = "pos-backoffice/internal/sales"
	defaultCommitTimeout = 10 * time.Second
)

// TicketSource is the part of the ticket store a checkout touches.
type TicketSource interface {
	Get(ctx context.Context, id string) (models.Ticket, error)
	Discard(tx *gorm.DB, id string, version int) error
}

type CommitItem struct {
	ProductID   uint    `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	CostPrice   float64 `json:"costPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

// CommitRequest describes one checkout. When Items is empty the cart of TicketID
// is sold; either way TicketID, if set, is deleted together with the sale.
type CommitRequest struct {
	Items         []CommitItem         `json:"items"`
	TicketID      string               `json:"ticketId,omitempty"`
	TotalAmount   float64              `json:"totalAmount"`
	CustomerID    *uint                `json:"customerId,omitempty"`
	CustomerName  string               `json:"customerName,omitempty"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	CashierID     string               `json:"cashierId"`
}

type Options struct {
	CommitTimeout time.Duration
	// Producer identifies this terminal on published events.
	Producer  string
	Publisher events.Publisher
	Logger    zerolog.Logger
}

type Service struct {
	db        *gorm.DB
	tickets   TicketSource
	guard     *inventory.StockGuard
	ledger    *inventory.Ledger
	publisher events.Publisher
	log       zerolog.Logger
	producer  string
	timeout   time.Duration
	now       func() time.Time

	tracer   trace.Tracer
	commits  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func NewService(db *gorm.DB, ticketSource TicketSource, opts Options) *Service {
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = defaultCommitTimeout
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}

	s := &Service{
		db:        db,
		tickets:   ticketSource,
		guard:     inventory.NewStockGuard(),
		ledger:    inventory.NewLedger(db),
		publisher: opts.Publisher,
		log:       opts.Logger.With().Str("component", "sales").Logger(),
		producer:  opts.Producer,
		timeout:   opts.CommitTimeout,
		now:       time.Now,
		tracer:    otel.Tracer(instrumentation),
	}

	meter := otel.Meter(instrumentation)
	fallback := noop.NewMeterProvider().Meter(instrumentation)
	var err error
	if s.commits, err = meter.Int64Counter("pos.sales.committed", metric.WithDescription("Sales committed")); err != nil {
		s.commits, _ = fallback.Int64Counter("pos.sales.committed")
	}
	if s.failures, err = meter.Int64Counter("pos.sales.commit_failures", metric.WithDescription("Sale commits rolled back")); err != nil {
		s.failures, _ = fallback.Int64Counter("pos.sales.commit_failures")
	}
	if s.duration, err = meter.Float64Histogram("pos.sales.commit_duration", metric.WithUnit("ms")); err != nil {
		s.duration, _ = fallback.Float64Histogram("pos.sales.commit_duration")
	}
	return s
}

// Ledger exposes the inventory ledger the service writes to.
func (s *Service) Ledger() *inventory.Ledger {
	return s.ledger
}

// CommitSale records the sale, its lines, the stock decrements and one ledger row
// per line in a single transaction. Nothing is visible unless everything succeeds.
func (s *Service) CommitSale(ctx context.Context, req CommitRequest) (models.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "sales.CommitSale")
	defer span.End()
	started := s.now()

	sale, err := s.commit(ctx, req)
	elapsed := float64(s.now().Sub(started).Milliseconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(err))))
		s.duration.Record(ctx, elapsed, metric.WithAttributes(attribute.Bool("ok", false)))
		return models.Sale{}, err
	}

	span.SetAttributes(
		attribute.String("sale.id", sale.ID),
		attribute.Int("sale.items", len(sale.Items)),
	)
	s.commits.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(sale.PaymentMethod))))
	s.duration.Record(ctx, elapsed, metric.WithAttributes(attribute.Bool("ok", true)))
	s.log.Info().
		Str("sale_id", sale.ID).
		Str("cashier_id", sale.CashierID).
		Int("items", len(sale.Items)).
		Float64("total", sale.TotalAmount).
		Msg("sale committed")

	s.publishCompleted(ctx, sale, span)
	return sale, nil
}

func (s *Service) commit(ctx context.Context, req CommitRequest) (models.Sale, error) {
	items, ticketVersion, err := s.resolveItems(ctx, req)
	if err != nil {
		return models.Sale{}, err
	}
	if err := validate(req, items); err != nil {
		return models.Sale{}, err
	}

	total := req.TotalAmount
	if total == 0 {
		total = sumItems(items)
	}

	sale := models.Sale{
		ID:            uuid.NewString(),
		Date:          s.now().UTC(),
		TotalAmount:   total,
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		PaymentMethod: req.PaymentMethod,
		CashierID:     req.CashierID,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Sale header
		if err := tx.Omit(clause.Associations).Create(&sale).Error; err != nil {
			return fmt.Errorf("insert sale header: %w", err)
		}

		// 2. Lines, strictly in the order given
		for i, it := range items {
			row := models.SaleItem{
				SaleID:      sale.ID,
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				CostPrice:   it.CostPrice,
				TotalPrice:  it.TotalPrice,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert sale item %d: %w", i, err)
			}

			change, err := s.guard.ReserveAndDecrement(tx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if row.ProductName == "" {
				if err := tx.Model(&row).Update("product_name", change.ProductName).Error; err != nil {
					return fmt.Errorf("name sale item %d: %w", i, err)
				}
			}

			if _, err := s.ledger.Append(tx, inventory.Entry{
				ProductID:         it.ProductID,
				ProductName:       change.ProductName,
				Type:              models.TransactionSale,
				QuantityChange:    -it.Quantity,
				StockBefore:       change.StockBefore,
				StockAfter:        change.StockAfter,
				RelatedDocumentID: sale.ID,
				Notes:             "Sale " + sale.ID,
			}); err != nil {
				return err
			}
		}

		// 3. Read back what was stored
		byID, err := loadItems(tx, []string{sale.ID})
		if err != nil {
			return err
		}
		sale.Items = byID[sale.ID]

		// 4. The ticket goes with the sale
		if req.TicketID != "" {
			return s.tickets.Discard(tx, req.TicketID, ticketVersion)
		}
		return nil
	})
	if err != nil {
		return models.Sale{}, classify(err)
	}
	return sale, nil
}

// resolveItems also returns the ticket version the lines were read at, or 0 when
// the request carried its own lines.
func (s *Service) resolveItems(ctx context.Context, req CommitRequest) ([]CommitItem, int, error) {
	if len(req.Items) > 0 || req.TicketID == "" {
		return req.Items, 0, nil
	}
	t, err := s.tickets.Get(ctx, req.TicketID)
	if err != nil {
		return nil, 0, err
	}
	items := make([]CommitItem, 0, len(t.CartItems))
	for _, ci := range t.CartItems {
		items = append(items, CommitItem{
			ProductID:   ci.ProductID,
			ProductName: ci.ProductName,
			Quantity:    ci.Quantity,
			UnitPrice:   ci.UnitPrice,
			CostPrice:   ci.CostPrice,
			TotalPrice:  ci.TotalPrice,
		})
	}
	return items, t.Version, nil
}

func validate(req CommitRequest, items []CommitItem) error {
	if len(items) == 0 {
		return invalid("items", "at least one item is required")
	}
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		if it.ProductID == 0 {
			return invalid(field+".productId", "is required")
		}
		if it.Quantity < 1 {
			return invalid(field+".quantity", "must be at least 1, got %d", it.Quantity)
		}
		if it.UnitPrice < 0 || it.CostPrice < 0 || it.TotalPrice < 0 {
			return invalid(field, "prices must not be negative")
		}
	}
	if req.TotalAmount < 0 {
		return invalid("totalAmount", "must not be negative")
	}
	if !req.PaymentMethod.Valid() {
		return invalid("paymentMethod", "unknown payment method %q", req.PaymentMethod)
	}
	if req.CashierID == "" {
		return invalid("cashierId", "is required")
	}
	return nil
}

func sumItems(items []CommitItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.TotalPrice))
	}
	return sum.Round(2).InexactFloat64()
}

func (s *Service) publishCompleted(ctx context.Context, sale models.Sale, span trace.Span) {
	var traceID string
	if sc := span.SpanContext(); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	env, err := events.NewSaleCompleted(sale, s.producer, traceID, sale.Date)
	if err == nil {
		err = s.publisher.Publish(ctx, env)
	}
	if err != nil {
		// the sale is committed; a lost event is logged, never surfaced
		s.log.Warn().Err(err).Str("sale_id", sale.ID).Msg("sale.completed event not published")
	}
}

func failureReason(err error) string {
	var stockErr *inventory.InsufficientStockError
	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		return "validation"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.Is(err, inventory.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrForeignKeyViolation):
		return "foreign_key"
	case errors.Is(err, ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, tickets.ErrVersionConflict):
		return "ticket_conflict"
	}
	return "storage"
}

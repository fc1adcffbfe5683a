package events

import (
	"encoding/json"
	"fmt"
	"time"

	"pos-backoffice/internal/models"

	"github.com/google/uuid"
)

const EventSaleCompleted = "SaleCompleted"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // terminal id
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // sale id
	Payload       json.RawMessage `json:"payload"`
}

type SaleLine struct {
	ProductID uint    `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type SaleCompletedPayload struct {
	SaleID        string     `json:"sale_id"`
	CashierID     string     `json:"cashier_id"`
	PaymentMethod string     `json:"payment_method"`
	TotalAmount   float64    `json:"total_amount"`
	Items         []SaleLine `json:"items"`
}

// NewSaleCompleted wraps a committed sale into an envelope.
func NewSaleCompleted(sale models.Sale, producer, traceID string, at time.Time) (Envelope, error) {
	payload := SaleCompletedPayload{
		SaleID:        sale.ID,
		CashierID:     sale.CashierID,
		PaymentMethod: string(sale.PaymentMethod),
		TotalAmount:   sale.TotalAmount,
		Items:         make([]SaleLine, 0, len(sale.Items)),
	}
	for _, it := range sale.Items {
		payload.Items = append(payload.Items, SaleLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.TotalPrice,
		})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode sale payload: %w", err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventSaleCompleted,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: sale.ID,
		Payload:       raw,
	}, nil
}

// UnwrapPayload decodes an envelope payload into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

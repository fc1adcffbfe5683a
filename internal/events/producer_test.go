package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"pos-backoffice/internal/models"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func testSale() models.Sale {
	return models.Sale{
		ID:            "sale-1",
		TotalAmount:   270,
		PaymentMethod: models.PaymentCash,
		CashierID:     "c-9",
		Items: []models.SaleItem{
			{ProductID: 7, Quantity: 3, UnitPrice: 90, TotalPrice: 270},
		},
	}
}

func TestNewSaleCompleted(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	env, err := NewSaleCompleted(testSale(), "term-1", "trace-1", at)
	require.NoError(t, err)

	assert.Equal(t, EventSaleCompleted, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "sale-1", env.CorrelationID)
	assert.Equal(t, "term-1", env.Producer)
	assert.NotEmpty(t, env.EventID)

	payload, err := UnwrapPayload[SaleCompletedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "c-9", payload.CashierID)
	assert.Equal(t, "Cash", payload.PaymentMethod)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, uint(7), payload.Items[0].ProductID)
	assert.Equal(t, 270.0, payload.Items[0].Total)
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 4, zerolog.Nop())
	p.Start(context.Background())

	env, err := NewSaleCompleted(testSale(), "term-1", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), env))
	require.NoError(t, p.Publish(context.Background(), env))

	p.Close()
	p.WaitClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("sale-1"), w.msgs[0].Key)
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.True(t, w.closed)
}

func TestPublishBufferFull(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1, zerolog.Nop())
	env, err := NewSaleCompleted(testSale(), "term-1", "", time.Now())
	require.NoError(t, err)

	// not started, so nothing drains the buffer
	require.NoError(t, p.Publish(context.Background(), env))
	assert.ErrorIs(t, p.Publish(context.Background(), env), ErrBufferFull)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Envelope{}))
}

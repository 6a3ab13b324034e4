package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/custom-order-service/internal/domain/order"
	"github.com/example/custom-order-service/internal/infrastructure/store"
	"github.com/example/custom-order-service/internal/infrastructure/store/mocks"
	"github.com/example/custom-order-service/internal/readmodel"
)

// ============================================
// Test helpers
// ============================================

type sentMail struct {
	Kind        string
	To          string
	OrderNumber string
	Headline    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendQuoteIssued(to, orderNumber string, total int, deliveryDate string) error {
	f.sent = append(f.sent, sentMail{Kind: "quote", To: to, OrderNumber: orderNumber})
	return f.err
}

func (f *fakeMailer) SendPaymentVerified(to, orderNumber, proofRef string) error {
	f.sent = append(f.sent, sentMail{Kind: "payment", To: to, OrderNumber: orderNumber})
	return f.err
}

func (f *fakeMailer) SendStatusUpdate(to, orderNumber, headline, detail string) error {
	f.sent = append(f.sent, sentMail{Kind: "status", To: to, OrderNumber: orderNumber, Headline: headline})
	return f.err
}

func newTestHandler() (*Handler, *fakeMailer, *mocks.MockReadStore) {
	mailer := &fakeMailer{}
	rs := mocks.NewMockReadStore()
	return NewHandler(mailer, rs, "admin@example.com"), mailer, rs
}

func orderEventValue(t *testing.T, eventType string, data any) []byte {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	value, err := json.Marshal(store.Event{
		ID:            uuid.New().String(),
		AggregateID:   "order-1",
		AggregateType: order.AggregateType,
		EventType:     eventType,
		Data:          payload,
		Timestamp:     time.Now(),
		Version:       2,
	})
	require.NoError(t, err)
	return value
}

// ============================================
// Event-carried recipient
// ============================================

func TestHandleEvent_QuoteSent_SendsWithoutReadModel(t *testing.T) {
	h, mailer, _ := newTestHandler()

	// Read store is empty: the projector has not caught up yet
	err := h.HandleEvent(context.Background(), nil, orderEventValue(t, order.EventQuoteSent, order.QuoteSent{
		OrderID:     "order-1",
		OrderNumber: "CO-20260831-ABC123",
		BuyerEmail:  "ada@example.com",
		Total:       7998,
		SentAt:      time.Now(),
	}))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "quote", mailer.sent[0].Kind)
	assert.Equal(t, "ada@example.com", mailer.sent[0].To)
	assert.Equal(t, "CO-20260831-ABC123", mailer.sent[0].OrderNumber)
}

func TestHandleEvent_Rejected_SendsWithoutReadModel(t *testing.T) {
	h, mailer, _ := newTestHandler()

	err := h.HandleEvent(context.Background(), nil, orderEventValue(t, order.EventOrderRejected, order.OrderRejected{
		OrderID:     "order-1",
		OrderNumber: "CO-20260831-ABC123",
		BuyerEmail:  "ada@example.com",
		Reason:      "design not feasible",
		RejectedAt:  time.Now(),
	}))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "status", mailer.sent[0].Kind)
	assert.Equal(t, "Order rejected", mailer.sent[0].Headline)
	assert.Equal(t, "ada@example.com", mailer.sent[0].To)
}

func TestHandleEvent_PaymentVerified_GoesToAdmin(t *testing.T) {
	h, mailer, _ := newTestHandler()

	err := h.HandleEvent(context.Background(), nil, orderEventValue(t, order.EventPaymentVerified, order.PaymentVerified{
		OrderID:     "order-1",
		OrderNumber: "CO-20260831-ABC123",
		BuyerEmail:  "ada@example.com",
		ProofRef:    "transfer-991",
		VerifiedAt:  time.Now(),
	}))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "payment", mailer.sent[0].Kind)
	assert.Equal(t, "admin@example.com", mailer.sent[0].To)
}

// ============================================
// Read-model fallback and edge cases
// ============================================

func TestHandleEvent_FallsBackToReadModel(t *testing.T) {
	h, mailer, rs := newTestHandler()
	rs.Set("orders", "order-1", &readmodel.OrderReadModel{
		ID:          "order-1",
		OrderNumber: "CO-20260831-ABC123",
		BuyerEmail:  "ada@example.com",
	})

	// Event without the recipient fields
	err := h.HandleEvent(context.Background(), nil, orderEventValue(t, order.EventOrderCompleted, order.OrderCompleted{
		OrderID:     "order-1",
		CompletedAt: time.Now(),
	}))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].To)
	assert.Equal(t, "CO-20260831-ABC123", mailer.sent[0].OrderNumber)
}

func TestHandleEvent_NoRecipientAnywhere_Skips(t *testing.T) {
	h, mailer, _ := newTestHandler()

	err := h.HandleEvent(context.Background(), nil, orderEventValue(t, order.EventOrderCompleted, order.OrderCompleted{
		OrderID:     "order-1",
		CompletedAt: time.Now(),
	}))
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestHandleEvent_MailerErrorIsSwallowed(t *testing.T) {
	h, mailer, _ := newTestHandler()
	mailer.err = errors.New("smtp down")

	err := h.HandleEvent(context.Background(), nil, orderEventValue(t, order.EventQuoteSent, order.QuoteSent{
		OrderID:     "order-1",
		OrderNumber: "CO-20260831-ABC123",
		BuyerEmail:  "ada@example.com",
		SentAt:      time.Now(),
	}))

	assert.NoError(t, err, "delivery failure must not fail the consumer")
	assert.Len(t, mailer.sent, 1)
}

func TestHandleEvent_IgnoresOtherAggregates(t *testing.T) {
	h, mailer, _ := newTestHandler()

	value, err := json.Marshal(store.Event{
		ID:            uuid.New().String(),
		AggregateID:   "user-1",
		AggregateType: "User",
		EventType:     "UserCreated",
		Data:          json.RawMessage(`{}`),
		Timestamp:     time.Now(),
		Version:       1,
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), nil, value))
	assert.Empty(t, mailer.sent)
}

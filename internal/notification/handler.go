package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/custom-order-service/internal/domain/order"
	"github.com/example/custom-order-service/internal/infrastructure/store"
	"github.com/example/custom-order-service/internal/readmodel"
)

// Mailer sends the three notification shapes. Satisfied by email.Service.
type Mailer interface {
	SendQuoteIssued(to, orderNumber string, total int, deliveryDate string) error
	SendPaymentVerified(to, orderNumber, proofRef string) error
	SendStatusUpdate(to, orderNumber, headline, detail string) error
}

// Handler processes order lifecycle events and sends the matching email.
// Each event triggers exactly one send; failures are logged and dropped so
// order state never depends on notification delivery.
//
// Lifecycle events carry the buyer address and order number, so a send does
// not wait on the projector. The read store is a fallback for events that
// predate those fields.
type Handler struct {
	emailService Mailer
	readStore    store.ReadStoreInterface
	adminEmail   string
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc Mailer, readStore store.ReadStoreInterface, adminEmail string) *Handler {
	return &Handler{
		emailService: emailSvc,
		readStore:    readStore,
		adminEmail:   adminEmail,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	if event.AggregateType != order.AggregateType {
		return nil
	}

	switch event.EventType {
	case order.EventQuoteSent:
		var e order.QuoteSent
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		buyerEmail, orderNumber := h.recipient(event.AggregateID, e.BuyerEmail, e.OrderNumber)
		if buyerEmail == "" {
			return nil
		}
		delivery := ""
		if e.DeliveryDate != nil {
			delivery = e.DeliveryDate.Format("2006-01-02")
		}
		h.deliver("quote", orderNumber, func() error {
			return h.emailService.SendQuoteIssued(buyerEmail, orderNumber, e.Total, delivery)
		})

	case order.EventPaymentVerified:
		var e order.PaymentVerified
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if h.adminEmail == "" {
			return nil
		}
		_, orderNumber := h.recipient(event.AggregateID, e.BuyerEmail, e.OrderNumber)
		h.deliver("payment", orderNumber, func() error {
			return h.emailService.SendPaymentVerified(h.adminEmail, orderNumber, e.ProofRef)
		})

	case order.EventOrderApproved:
		var e order.OrderApproved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		h.notifyBuyer(event.AggregateID, e.BuyerEmail, e.OrderNumber, "Order approved",
			"Your payment has been confirmed and your order is approved. Production will begin shortly.")

	case order.EventProductionStarted:
		var e order.ProductionStarted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		h.notifyBuyer(event.AggregateID, e.BuyerEmail, e.OrderNumber, "Production started",
			"Your order is now in production. Expected completion by "+e.DeadlineDate.Format("2006-01-02")+".")

	case order.EventOrderMarkedReady:
		var e order.OrderMarkedReady
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		h.notifyBuyer(event.AggregateID, e.BuyerEmail, e.OrderNumber, "Order ready",
			"Your order is ready and has been handed to our logistics team for delivery.")

	case order.EventOrderCompleted:
		var e order.OrderCompleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		h.notifyBuyer(event.AggregateID, e.BuyerEmail, e.OrderNumber, "Order delivered",
			"Your order has been delivered. Thank you for shopping with us.")

	case order.EventOrderRejected:
		var e order.OrderRejected
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		detail := "Unfortunately your order was rejected."
		if e.Reason != "" {
			detail += " Reason: " + e.Reason
		}
		h.notifyBuyer(event.AggregateID, e.BuyerEmail, e.OrderNumber, "Order rejected", detail)

	case order.EventOrderDeleted:
		var e order.OrderDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		h.notifyBuyer(event.AggregateID, e.BuyerEmail, e.OrderNumber, "Order removed",
			"Your custom order has been removed by our team. Contact support if this is unexpected.")
	}

	return nil
}

func (h *Handler) notifyBuyer(orderID, buyerEmail, orderNumber, headline, detail string) {
	buyerEmail, orderNumber = h.recipient(orderID, buyerEmail, orderNumber)
	if buyerEmail == "" {
		return
	}
	h.deliver(headline, orderNumber, func() error {
		return h.emailService.SendStatusUpdate(buyerEmail, orderNumber, headline, detail)
	})
}

// recipient fills any blank address or order number from the read model.
func (h *Handler) recipient(orderID, buyerEmail, orderNumber string) (string, string) {
	if buyerEmail != "" && orderNumber != "" {
		return buyerEmail, orderNumber
	}
	if o, ok := h.getOrder(orderID); ok {
		if buyerEmail == "" {
			buyerEmail = o.BuyerEmail
		}
		if orderNumber == "" {
			orderNumber = o.OrderNumber
		}
	}
	return buyerEmail, orderNumber
}

// deliver runs a send, logging the outcome. Errors are swallowed: the
// trigger fired once, delivery is the mail system's problem.
func (h *Handler) deliver(kind, orderNumber string, send func() error) {
	start := time.Now()
	if err := send(); err != nil {
		log.Printf("[Notifier] Failed to send %s notification for order %s: %v", kind, orderNumber, err)
		return
	}
	log.Printf("[Notifier] Sent %s notification for order %s in %s", kind, orderNumber, time.Since(start))
}

func (h *Handler) getOrder(orderID string) (*readmodel.OrderReadModel, bool) {
	data, ok := h.readStore.Get("orders", orderID)
	if !ok {
		return nil, false
	}
	o, ok := data.(*readmodel.OrderReadModel)
	return o, ok
}

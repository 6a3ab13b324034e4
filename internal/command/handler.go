package command

import (
	"context"

	"github.com/example/custom-order-service/internal/domain/order"
)

type Handler struct {
	orderSvc *order.Service
}

func NewHandler(orderSvc *order.Service) *Handler {
	return &Handler{orderSvc: orderSvc}
}

// CreateOrder submits a custom-order request (emits OrderRequested)
func (h *Handler) CreateOrder(ctx context.Context, cmd CreateOrder) (*order.Order, error) {
	return h.orderSvc.Request(ctx, cmd.BuyerID, cmd.BuyerName, cmd.BuyerEmail,
		cmd.Description, cmd.Quantity, cmd.DesignImageURL)
}

// SendQuote issues a quote (emits QuoteSent)
func (h *Handler) SendQuote(ctx context.Context, cmd SendQuote) (*order.QuoteSnapshot, error) {
	items := make([]order.LineItem, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = order.LineItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return h.orderSvc.SendQuote(ctx, cmd.OrderID, items, cmd.DeliveryDate, cmd.IsFinalPrice, cmd.ExpectedVersion)
}

// PostMessage appends a text message (emits TextMessageSent)
func (h *Handler) PostMessage(ctx context.Context, cmd PostMessage) (*order.Order, error) {
	return h.orderSvc.SendText(ctx, cmd.OrderID, order.Sender(cmd.Sender), cmd.Body, cmd.ExpectedVersion)
}

// RequestQuantityChange records a quantity request (emits QuantityChangeRequested)
func (h *Handler) RequestQuantityChange(ctx context.Context, cmd RequestQuantityChange) (*order.Order, error) {
	return h.orderSvc.RequestQuantityChange(ctx, cmd.OrderID, order.Sender(cmd.Sender),
		cmd.NewQuantity, cmd.ExpectedVersion)
}

// ConfirmQuantityAndRequote applies the quantity and re-quotes
// (a single QuoteSent carrying the confirmed quantity)
func (h *Handler) ConfirmQuantityAndRequote(ctx context.Context, cmd ConfirmQuantityAndRequote) (*order.QuoteSnapshot, error) {
	return h.orderSvc.ConfirmQuantityAndRequote(ctx, cmd.OrderID, cmd.NewQuantity,
		cmd.UnitPrice, cmd.ExpectedVersion)
}

// AgreeToDeliveryDate flips the agreement flag (emits DeliveryDateAgreed)
func (h *Handler) AgreeToDeliveryDate(ctx context.Context, cmd AgreeToDeliveryDate) (*order.Order, error) {
	return h.orderSvc.AgreeToDeliveryDate(ctx, cmd.OrderID, cmd.ExpectedVersion)
}

// MarkPaymentVerified transitions pending -> paid (emits PaymentVerified)
func (h *Handler) MarkPaymentVerified(ctx context.Context, cmd MarkPaymentVerified) (*order.Order, error) {
	return h.orderSvc.MarkPaymentVerified(ctx, cmd.OrderID, cmd.ProofRef, cmd.ExpectedVersion)
}

// Transition drives the state machine table
func (h *Handler) Transition(ctx context.Context, cmd Transition) (*order.Order, error) {
	return h.orderSvc.Transition(ctx, cmd.OrderID, cmd.Event, cmd.Reason,
		cmd.DurationDays, cmd.ExpectedVersion)
}

// MarkMessagesRead marks the other party's messages read (emits MessagesRead)
func (h *Handler) MarkMessagesRead(ctx context.Context, cmd MarkMessagesRead) (*order.Order, error) {
	return h.orderSvc.MarkMessagesRead(ctx, cmd.OrderID, order.Sender(cmd.Reader), cmd.ExpectedVersion)
}

// DeleteOrder hard-deletes an order (emits OrderDeleted)
func (h *Handler) DeleteOrder(ctx context.Context, cmd DeleteOrder) error {
	return h.orderSvc.Delete(ctx, cmd.OrderID, cmd.ExpectedVersion)
}

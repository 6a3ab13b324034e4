package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/custom-order-service/internal/domain/order"
	"github.com/example/custom-order-service/internal/domain/user"
	"github.com/example/custom-order-service/internal/infrastructure/store"
	"github.com/example/custom-order-service/internal/readmodel"
)

type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)

	switch event.AggregateType {
	case order.AggregateType:
		return p.handleOrderEvent(event)
	case user.AggregateType:
		return p.handleUserEvent(event)
	}

	return nil
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderRequested:
		var e order.OrderRequested
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("orders", e.OrderID, &readmodel.OrderReadModel{
			ID:             e.OrderID,
			OrderNumber:    e.OrderNumber,
			BuyerID:        e.BuyerID,
			BuyerName:      e.BuyerName,
			BuyerEmail:     e.BuyerEmail,
			Description:    e.Description,
			DesignImageURL: e.DesignImageURL,
			Quantity:       e.Quantity,
			Status:         string(order.StatusPending),
			CurrentHandler: string(order.HandlerProduction),
			Messages:       []readmodel.MessageReadModel{},
			Version:        event.Version,
			CreatedAt:      e.RequestedAt,
			UpdatedAt:      e.RequestedAt,
		})

	case order.EventQuoteSent:
		var e order.QuoteSent
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			quote := &readmodel.QuoteView{
				UnitPrice:             e.UnitPrice,
				Quantity:              e.Quantity,
				Subtotal:              e.Subtotal,
				DiscountPercentage:    e.DiscountPercentage,
				DiscountAmount:        e.DiscountAmount,
				SubtotalAfterDiscount: e.SubtotalAfterDiscount,
				VAT:                   e.VAT,
				Total:                 e.Total,
				DeliveryDate:          e.DeliveryDate,
				IsFinalPrice:          e.IsFinalPrice,
			}
			o.QuotedUnitPrice = e.UnitPrice
			o.Quantity = e.Quantity
			o.LineItems = toLineItemViews(e.LineItems)
			o.Quote = quote
			if e.DeliveryDate != nil {
				if o.ProposedDeliveryDate == nil || !o.ProposedDeliveryDate.Equal(*e.DeliveryDate) {
					o.BuyerAgreedToDate = false
				}
				o.ProposedDeliveryDate = e.DeliveryDate
			}
			if e.PreviousQuantity > 0 && e.PreviousQuantity != e.Quantity {
				appendMessage(o, event, readmodel.MessageReadModel{
					ID:      event.ID,
					OrderID: e.OrderID,
					Sender:  string(order.SenderSystem),
					Type:    "system",
					Body:    fmt.Sprintf("Quantity updated from %d to %d", e.PreviousQuantity, e.Quantity),
				}, e.SentAt)
			}
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      e.MessageID,
				OrderID: e.OrderID,
				Sender:  string(order.SenderAdmin),
				Type:    "quote",
				Quote:   quote,
			}, e.SentAt)
		})

	case order.EventTextMessageSent:
		var e order.TextMessageSent
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      e.MessageID,
				OrderID: e.OrderID,
				Sender:  string(e.Sender),
				Type:    "text",
				Body:    e.Body,
			}, e.SentAt)
		})

	case order.EventQuantityChangeRequested:
		var e order.QuantityChangeRequested
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      e.MessageID,
				OrderID: e.OrderID,
				Sender:  string(e.Sender),
				Type:    "quantity-update",
				QuantityChange: &readmodel.QuantityChangeView{
					OldQuantity: e.OldQuantity,
					NewQuantity: e.NewQuantity,
					UnitPrice:   e.UnitPrice,
					NewTotal:    e.NewTotal,
				},
			}, e.RequestedAt)
		})

	case order.EventDeliveryDateAgreed:
		var e order.DeliveryDateAgreed
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			o.BuyerAgreedToDate = true
			d := e.DeliveryDate
			o.DeliveryDate = &d
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      event.ID,
				OrderID: e.OrderID,
				Sender:  string(order.SenderCustomer),
				Type:    "negotiation",
				Body:    fmt.Sprintf("Delivery date %s accepted", e.DeliveryDate.Format("2006-01-02")),
			}, e.AgreedAt)
		})

	case order.EventPaymentVerified:
		var e order.PaymentVerified
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			o.Status = string(order.StatusPaid)
			o.PaymentProofRef = e.ProofRef
			o.PaymentVerified = true
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      event.ID,
				OrderID: e.OrderID,
				Sender:  string(order.SenderSystem),
				Type:    "system",
				Body:    "Payment verified",
			}, e.VerifiedAt)
		})

	case order.EventOrderApproved:
		var e order.OrderApproved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			o.Status = string(order.StatusApproved)
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      event.ID,
				OrderID: e.OrderID,
				Sender:  string(order.SenderSystem),
				Type:    "system",
				Body:    "Order approved",
			}, e.ApprovedAt)
		})

	case order.EventProductionStarted:
		var e order.ProductionStarted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			o.Status = string(order.StatusInProgress)
			started := e.StartedAt
			deadline := e.DeadlineDate
			o.TimerStartedAt = &started
			o.TimerDurationDays = e.DurationDays
			o.DeadlineDate = &deadline
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      event.ID,
				OrderID: e.OrderID,
				Sender:  string(order.SenderSystem),
				Type:    "system",
				Body:    fmt.Sprintf("Production started, due %s", e.DeadlineDate.Format("2006-01-02")),
			}, e.StartedAt)
		})

	case order.EventOrderMarkedReady:
		var e order.OrderMarkedReady
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			o.Status = string(order.StatusReady)
			o.CurrentHandler = string(order.HandlerLogistics)
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      event.ID,
				OrderID: e.OrderID,
				Sender:  string(order.SenderSystem),
				Type:    "system",
				Body:    "Order ready, handed to logistics",
			}, e.ReadyAt)
		})

	case order.EventOrderCompleted:
		var e order.OrderCompleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			o.Status = string(order.StatusCompleted)
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      event.ID,
				OrderID: e.OrderID,
				Sender:  string(order.SenderSystem),
				Type:    "system",
				Body:    "Order delivered",
			}, e.CompletedAt)
		})

	case order.EventOrderRejected:
		var e order.OrderRejected
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			o.Status = string(order.StatusRejected)
			o.RejectionReason = e.Reason
			body := "Order rejected"
			if e.Reason != "" {
				body = "Order rejected: " + e.Reason
			}
			appendMessage(o, event, readmodel.MessageReadModel{
				ID:      event.ID,
				OrderID: e.OrderID,
				Sender:  string(order.SenderSystem),
				Type:    "system",
				Body:    body,
			}, e.RejectedAt)
		})

	case order.EventOrderDeleted:
		var e order.OrderDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Delete("orders", e.OrderID)

	case order.EventMessagesRead:
		var e order.MessagesRead
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateOrder(event, func(o *readmodel.OrderReadModel) {
			for i := range o.Messages {
				if o.Messages[i].Sender != string(e.Reader) && !o.Messages[i].CreatedAt.After(e.ReadAt) {
					o.Messages[i].IsRead = true
				}
			}
		})
	}

	return nil
}

// updateOrder applies fn to the order read model, refreshing derived fields
// and the version afterwards.
func (p *Projector) updateOrder(event store.Event, fn func(o *readmodel.OrderReadModel)) error {
	ok := p.readStore.Update("orders", event.AggregateID, func(current any) any {
		o := current.(*readmodel.OrderReadModel)
		fn(o)
		o.Version = event.Version
		o.UpdatedAt = event.Timestamp
		o.PaymentAvailable = paymentAvailable(o)
		return o
	})
	if !ok {
		log.Printf("[Projector] Order %s not found for event %s", event.AggregateID, event.EventType)
	}
	return nil
}

// paymentAvailable mirrors the buyer-side pay affordance: a quote exists and
// any proposed delivery date has been agreed.
func paymentAvailable(o *readmodel.OrderReadModel) bool {
	if o.Quote == nil || o.Status != string(order.StatusPending) {
		return false
	}
	if o.ProposedDeliveryDate != nil && !o.BuyerAgreedToDate {
		return false
	}
	return true
}

// appendMessage adds a thread entry. Events arrive in version order, so the
// slice stays sorted by (created_at, seq) without resorting.
func appendMessage(o *readmodel.OrderReadModel, event store.Event, msg readmodel.MessageReadModel, createdAt time.Time) {
	msg.CreatedAt = createdAt
	msg.Seq = len(o.Messages) + 1
	o.Messages = append(o.Messages, msg)
}

func toLineItemViews(items []order.LineItem) []readmodel.LineItemReadModel {
	views := make([]readmodel.LineItemReadModel, len(items))
	for i, item := range items {
		views[i] = readmodel.LineItemReadModel{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return views
}

func (p *Projector) handleUserEvent(event store.Event) error {
	switch event.EventType {
	case user.EventUserCreated:
		var e user.UserCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("users", e.UserID, &readmodel.UserReadModel{
			ID:           e.UserID,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Name:         e.Name,
			Role:         e.Role,
			IsActive:     true,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.CreatedAt,
		})

	case user.EventUserUpdated:
		var e user.UserUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.Name = e.Name
			u.UpdatedAt = e.UpdatedAt
			return u
		})

	case user.EventUserPasswordChanged:
		var e user.UserPasswordChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.PasswordHash = e.PasswordHash
			u.UpdatedAt = e.ChangedAt
			return u
		})

	case user.EventUserDeactivated:
		var e user.UserDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = false
			u.UpdatedAt = e.DeactivatedAt
			return u
		})

	case user.EventUserActivated:
		var e user.UserActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = true
			u.UpdatedAt = e.ActivatedAt
			return u
		})
	}

	return nil
}

package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/custom-order-service/internal/infrastructure/store"
)

const AggregateType = "CustomOrder"

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in-progress"
	StatusReady      Status = "ready"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// Handler identifies who currently owns the order operationally.
type Handler string

const (
	HandlerProduction Handler = "production"
	HandlerLogistics  Handler = "logistics"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidRequest    = errors.New("invalid order request")
	ErrInvalidQuote      = errors.New("invalid quote")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrNoDateProposed    = errors.New("no delivery date has been proposed")
	ErrStaleWrite        = errors.New("stale write: order was modified concurrently")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusPaid, StatusRejected},
	StatusPaid:       {StatusApproved, StatusRejected},
	StatusApproved:   {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusReady},
	StatusReady:      {StatusCompleted},
	StatusCompleted:  {}, // terminal state
	StatusRejected:   {}, // terminal state
}

// IsTerminal reports whether no further transitions are accepted.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Order is the custom-order aggregate. It is rebuilt by folding the order's
// event stream; Version is the version of the last applied event.
type Order struct {
	ID             string `json:"id"`
	OrderNumber    string `json:"order_number"`
	BuyerID        string `json:"buyer_id"`
	BuyerName      string `json:"buyer_name"`
	BuyerEmail     string `json:"buyer_email"`
	Description    string `json:"description"`
	DesignImageURL string `json:"design_image_url,omitempty"`
	Quantity       int    `json:"quantity"`
	Status         Status `json:"status"`

	// Negotiation state, mirrored from the latest QuoteSent event
	QuotedUnitPrice int        `json:"quoted_unit_price"`
	QuoteLineItems  []LineItem `json:"quote_line_items,omitempty"`
	QuotedTotal     int        `json:"quoted_total"`
	IsFinalPrice    bool       `json:"is_final_price"`

	// Agreement state
	ProposedDeliveryDate *time.Time `json:"proposed_delivery_date,omitempty"`
	BuyerAgreedToDate    bool       `json:"buyer_agreed_to_date"`
	DeliveryDate         *time.Time `json:"delivery_date,omitempty"`

	// Payment state
	PaymentProofRef string `json:"payment_proof_ref,omitempty"`
	PaymentVerified bool   `json:"payment_verified"`

	// Fulfillment state
	TimerStartedAt    *time.Time `json:"timer_started_at,omitempty"`
	TimerDurationDays int        `json:"timer_duration_days"`
	DeadlineDate      *time.Time `json:"deadline_date,omitempty"`
	CurrentHandler    Handler    `json:"current_handler"`

	RejectionReason string    `json:"rejection_reason,omitempty"`
	Deleted         bool      `json:"deleted"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int       `json:"version"`
}

// Aggregate interface implementation
func (o *Order) GetID() string    { return o.ID }
func (o *Order) GetVersion() int  { return o.Version }
func (o *Order) SetVersion(v int) { o.Version = v }

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// transitionError reports why a transition to target is not allowed,
// naming the current state and the rejected move.
func (o *Order) transitionError(target Status) error {
	if o.Status.IsTerminal() {
		return fmt.Errorf("%w: order is %s (terminal), cannot transition to %s",
			ErrInvalidTransition, o.Status, target)
	}
	return fmt.Errorf("%w: cannot transition from %s to %s",
		ErrInvalidTransition, o.Status, target)
}

// ApplyEvent applies a single event to the order state (implements aggregate.Aggregate)
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderRequested:
		var data OrderRequested
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.OrderNumber = data.OrderNumber
		o.BuyerID = data.BuyerID
		o.BuyerName = data.BuyerName
		o.BuyerEmail = data.BuyerEmail
		o.Description = data.Description
		o.DesignImageURL = data.DesignImageURL
		o.Quantity = data.Quantity
		o.Status = StatusPending
		o.CurrentHandler = HandlerProduction
		o.CreatedAt = data.RequestedAt
		o.UpdatedAt = data.RequestedAt

	case EventQuoteSent:
		var data QuoteSent
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.QuotedUnitPrice = data.UnitPrice
		o.QuoteLineItems = data.LineItems
		o.QuotedTotal = data.Total
		o.Quantity = data.Quantity
		o.IsFinalPrice = data.IsFinalPrice
		if data.DeliveryDate != nil {
			if o.ProposedDeliveryDate == nil || !o.ProposedDeliveryDate.Equal(*data.DeliveryDate) {
				o.BuyerAgreedToDate = false
			}
			o.ProposedDeliveryDate = data.DeliveryDate
		}
		o.UpdatedAt = data.SentAt

	case EventTextMessageSent:
		var data TextMessageSent
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.UpdatedAt = data.SentAt

	case EventQuantityChangeRequested:
		// A request only: the order's quantity and quote are untouched until
		// an admin confirms.
		var data QuantityChangeRequested
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.UpdatedAt = data.RequestedAt

	case EventDeliveryDateAgreed:
		var data DeliveryDateAgreed
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.BuyerAgreedToDate = true
		d := data.DeliveryDate
		o.DeliveryDate = &d
		o.UpdatedAt = data.AgreedAt

	case EventPaymentVerified:
		var data PaymentVerified
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.PaymentProofRef = data.ProofRef
		o.PaymentVerified = true
		o.Status = StatusPaid
		o.UpdatedAt = data.VerifiedAt

	case EventOrderApproved:
		var data OrderApproved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusApproved
		o.UpdatedAt = data.ApprovedAt

	case EventProductionStarted:
		var data ProductionStarted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusInProgress
		started := data.StartedAt
		deadline := data.DeadlineDate
		o.TimerStartedAt = &started
		o.TimerDurationDays = data.DurationDays
		o.DeadlineDate = &deadline
		o.UpdatedAt = data.StartedAt

	case EventOrderMarkedReady:
		var data OrderMarkedReady
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusReady
		o.CurrentHandler = HandlerLogistics
		o.UpdatedAt = data.ReadyAt

	case EventOrderCompleted:
		var data OrderCompleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusCompleted
		o.UpdatedAt = data.CompletedAt

	case EventOrderRejected:
		var data OrderRejected
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusRejected
		o.RejectionReason = data.Reason
		o.UpdatedAt = data.RejectedAt

	case EventOrderDeleted:
		var data OrderDeleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Deleted = true
		o.UpdatedAt = data.DeletedAt

	case EventMessagesRead:
		var data MessagesRead
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.UpdatedAt = data.ReadAt
	}
	o.Version = event.Version
	return nil
}

// HasQuote reports whether an admin has issued at least one quote.
func (o *Order) HasQuote() bool {
	return o.QuotedUnitPrice > 0
}

// PaymentAvailable reports whether the buyer may be offered payment:
// a quote must exist, and a proposed delivery date (if any) must be agreed.
func (o *Order) PaymentAvailable() bool {
	if !o.HasQuote() || o.Status != StatusPending {
		return false
	}
	if o.ProposedDeliveryDate != nil && !o.BuyerAgreedToDate {
		return false
	}
	return true
}

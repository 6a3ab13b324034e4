package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/custom-order-service/internal/domain/aggregate"
	"github.com/example/custom-order-service/internal/infrastructure/store"
	"github.com/example/custom-order-service/internal/pricing"
	"github.com/google/uuid"
)

// DefaultTimerDurationDays is used when production starts without an
// explicit duration.
const DefaultTimerDurationDays = 7

// Transition events accepted by the generic Transition driver.
const (
	TransitionApprove         = "approve"
	TransitionStartProduction = "start-production"
	TransitionMarkReady       = "mark-ready"
	TransitionComplete        = "complete"
	TransitionReject          = "reject"
)

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// loadOrder loads an order by replaying events, using snapshot if available
func (s *Service) loadOrder(ctx context.Context, orderID string) (*Order, error) {
	order, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found || order.Deleted {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// loadForUpdate loads an order and verifies the caller's expected version.
// A mismatch means the caller acted on a stale read.
func (s *Service) loadForUpdate(ctx context.Context, orderID string, expectedVersion int) (*Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if expectedVersion != store.AnyVersion && order.Version != expectedVersion {
		return nil, fmt.Errorf("%w: order %s is at version %d, caller expected %d",
			ErrStaleWrite, orderID, order.Version, expectedVersion)
	}
	return order, nil
}

// append stores an event at the order's current version, applies it to the
// in-memory aggregate and snapshots if due. The conditional append backstops
// any race the loadForUpdate check missed.
func (s *Service) append(ctx context.Context, o *Order, eventType string, data any) error {
	storedEvent, err := s.eventStore.Append(ctx, o.ID, AggregateType, eventType, data, o.Version)
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return fmt.Errorf("%w: %v", ErrStaleWrite, err)
		}
		return err
	}
	if err := o.ApplyEvent(*storedEvent); err != nil {
		return err
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, o, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", o.ID, err)
	}
	return nil
}

// Get returns the current state of an order.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.loadOrder(ctx, orderID)
}

// Request creates a new custom order from a buyer submission.
func (s *Service) Request(ctx context.Context, buyerID, buyerName, buyerEmail, description string, quantity int, designImageURL string) (*Order, error) {
	if strings.TrimSpace(buyerName) == "" || strings.TrimSpace(buyerEmail) == "" {
		return nil, fmt.Errorf("%w: buyer name and email are required", ErrInvalidRequest)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidRequest)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}

	orderID := uuid.New().String()
	now := time.Now()

	event := OrderRequested{
		OrderID:        orderID,
		OrderNumber:    newOrderNumber(now),
		BuyerID:        buyerID,
		BuyerName:      buyerName,
		BuyerEmail:     buyerEmail,
		Description:    description,
		Quantity:       quantity,
		DesignImageURL: designImageURL,
		RequestedAt:    now,
	}

	order := &Order{ID: orderID}
	if err := s.append(ctx, order, EventOrderRequested, event); err != nil {
		return nil, err
	}
	return order, nil
}

// SendQuote issues (or re-issues) a quote for the order. Line items describe
// one unit of the bespoke product; their sum is the quoted unit price.
func (s *Service) SendQuote(ctx context.Context, orderID string, items []LineItem, deliveryDate *time.Time, isFinal bool, expectedVersion int) (*QuoteSnapshot, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one line item is required", ErrInvalidQuote)
	}
	unitPrice := 0
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice <= 0 {
			return nil, fmt.Errorf("%w: line item %q has non-positive quantity or price", ErrInvalidQuote, item.Name)
		}
		unitPrice += item.Quantity * item.UnitPrice
	}

	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusPending {
		return nil, fmt.Errorf("%w: quotes can only be sent while pending, order is %s",
			ErrInvalidTransition, order.Status)
	}

	event := buildQuoteEvent(order, items, unitPrice, order.Quantity, deliveryDate, isFinal)
	if err := s.append(ctx, order, EventQuoteSent, event); err != nil {
		return nil, err
	}
	return DeriveQuoteSnapshot(order), nil
}

// SendText appends a plain chat message to the order thread.
func (s *Service) SendText(ctx context.Context, orderID string, sender Sender, body string, expectedVersion int) (*Order, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrInvalidRequest)
	}

	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order is %s (terminal)", ErrInvalidTransition, order.Status)
	}

	event := TextMessageSent{
		OrderID:   orderID,
		MessageID: uuid.New().String(),
		Sender:    sender,
		Body:      body,
		SentAt:    time.Now(),
	}
	if err := s.append(ctx, order, EventTextMessageSent, event); err != nil {
		return nil, err
	}
	return order, nil
}

// RequestQuantityChange records a quantity-change request from the buyer or
// the cart. It never alters pricing: only ConfirmQuantityAndRequote does.
func (s *Service) RequestQuantityChange(ctx context.Context, orderID string, sender Sender, newQuantity, expectedVersion int) (*Order, error) {
	if newQuantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}

	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order is %s (terminal)", ErrInvalidTransition, order.Status)
	}

	newTotal := 0
	if order.HasQuote() {
		newTotal = pricing.Quote(order.QuotedUnitPrice, newQuantity, pricing.DefaultDiscounts).Total
	}

	event := QuantityChangeRequested{
		OrderID:     orderID,
		MessageID:   uuid.New().String(),
		Sender:      sender,
		OldQuantity: order.Quantity,
		NewQuantity: newQuantity,
		UnitPrice:   order.QuotedUnitPrice,
		NewTotal:    newTotal,
		RequestedAt: time.Now(),
	}
	if err := s.append(ctx, order, EventQuantityChangeRequested, event); err != nil {
		return nil, err
	}
	return order, nil
}

// ConfirmQuantityAndRequote is the admin action that applies a requested
// quantity and re-issues the quote at that quantity. A single QuoteSent
// event carries both, so the quantity can never change without the quote
// message that prices it.
func (s *Service) ConfirmQuantityAndRequote(ctx context.Context, orderID string, newQuantity, unitPrice, expectedVersion int) (*QuoteSnapshot, error) {
	if newQuantity <= 0 || unitPrice <= 0 {
		return nil, fmt.Errorf("%w: quantity and unit price must be positive", ErrInvalidQuote)
	}

	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusPending {
		return nil, fmt.Errorf("%w: quotes can only be revised while pending, order is %s",
			ErrInvalidTransition, order.Status)
	}

	items := order.QuoteLineItems
	if unitPrice != order.QuotedUnitPrice || len(items) == 0 {
		items = []LineItem{{Name: order.Description, Quantity: 1, UnitPrice: unitPrice}}
	}
	quote := buildQuoteEvent(order, items, unitPrice, newQuantity, order.ProposedDeliveryDate, order.IsFinalPrice)
	quote.PreviousQuantity = order.Quantity
	if err := s.append(ctx, order, EventQuoteSent, quote); err != nil {
		return nil, err
	}
	return DeriveQuoteSnapshot(order), nil
}

// AgreeToDeliveryDate records the buyer's acceptance of the proposed date.
// Agreeing twice is a no-op.
func (s *Service) AgreeToDeliveryDate(ctx context.Context, orderID string, expectedVersion int) (*Order, error) {
	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order is %s (terminal)", ErrInvalidTransition, order.Status)
	}
	if order.ProposedDeliveryDate == nil {
		return nil, ErrNoDateProposed
	}
	if order.BuyerAgreedToDate {
		return order, nil
	}

	event := DeliveryDateAgreed{
		OrderID:      orderID,
		DeliveryDate: *order.ProposedDeliveryDate,
		AgreedAt:     time.Now(),
	}
	if err := s.append(ctx, order, EventDeliveryDateAgreed, event); err != nil {
		return nil, err
	}
	return order, nil
}

// MarkPaymentVerified transitions pending -> paid once payment proof has
// been verified. A quote must exist first.
func (s *Service) MarkPaymentVerified(ctx context.Context, orderID, proofRef string, expectedVersion int) (*Order, error) {
	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(StatusPaid) {
		return nil, order.transitionError(StatusPaid)
	}
	if !order.HasQuote() {
		return nil, fmt.Errorf("%w: cannot verify payment before a quote is issued", ErrInvalidTransition)
	}

	event := PaymentVerified{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		BuyerEmail:  order.BuyerEmail,
		ProofRef:    proofRef,
		VerifiedAt:  time.Now(),
	}
	if err := s.append(ctx, order, EventPaymentVerified, event); err != nil {
		return nil, err
	}
	return order, nil
}

// Approve transitions paid -> approved. Payment must have been verified.
func (s *Service) Approve(ctx context.Context, orderID string, expectedVersion int) (*Order, error) {
	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(StatusApproved) {
		return nil, order.transitionError(StatusApproved)
	}
	if !order.PaymentVerified {
		return nil, fmt.Errorf("%w: cannot approve before payment is verified", ErrInvalidTransition)
	}

	event := OrderApproved{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		BuyerEmail:  order.BuyerEmail,
		ApprovedAt:  time.Now(),
	}
	if err := s.append(ctx, order, EventOrderApproved, event); err != nil {
		return nil, err
	}
	return order, nil
}

// StartProduction transitions approved -> in-progress and starts the
// fulfillment timer.
func (s *Service) StartProduction(ctx context.Context, orderID string, durationDays, expectedVersion int) (*Order, error) {
	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(StatusInProgress) {
		return nil, order.transitionError(StatusInProgress)
	}

	if durationDays <= 0 {
		durationDays = DefaultTimerDurationDays
	}
	now := time.Now()
	event := ProductionStarted{
		OrderID:      orderID,
		OrderNumber:  order.OrderNumber,
		BuyerEmail:   order.BuyerEmail,
		DurationDays: durationDays,
		StartedAt:    now,
		DeadlineDate: now.AddDate(0, 0, durationDays),
	}
	if err := s.append(ctx, order, EventProductionStarted, event); err != nil {
		return nil, err
	}
	return order, nil
}

// MarkReady transitions in-progress -> ready and hands the order to logistics.
func (s *Service) MarkReady(ctx context.Context, orderID string, expectedVersion int) (*Order, error) {
	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(StatusReady) {
		return nil, order.transitionError(StatusReady)
	}

	event := OrderMarkedReady{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		BuyerEmail:  order.BuyerEmail,
		ReadyAt:     time.Now(),
	}
	if err := s.append(ctx, order, EventOrderMarkedReady, event); err != nil {
		return nil, err
	}
	return order, nil
}

// Complete transitions ready -> completed. Terminal.
func (s *Service) Complete(ctx context.Context, orderID string, expectedVersion int) (*Order, error) {
	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(StatusCompleted) {
		return nil, order.transitionError(StatusCompleted)
	}

	event := OrderCompleted{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		BuyerEmail:  order.BuyerEmail,
		CompletedAt: time.Now(),
	}
	if err := s.append(ctx, order, EventOrderCompleted, event); err != nil {
		return nil, err
	}
	return order, nil
}

// Reject transitions a pre-production order to rejected. Terminal.
func (s *Service) Reject(ctx context.Context, orderID, reason string, expectedVersion int) (*Order, error) {
	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(StatusRejected) {
		return nil, order.transitionError(StatusRejected)
	}

	event := OrderRejected{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		BuyerEmail:  order.BuyerEmail,
		Reason:      reason,
		RejectedAt:  time.Now(),
	}
	if err := s.append(ctx, order, EventOrderRejected, event); err != nil {
		return nil, err
	}
	return order, nil
}

// Transition is the generic driver for the transition table.
func (s *Service) Transition(ctx context.Context, orderID, event, reason string, durationDays, expectedVersion int) (*Order, error) {
	switch event {
	case TransitionApprove:
		return s.Approve(ctx, orderID, expectedVersion)
	case TransitionStartProduction:
		return s.StartProduction(ctx, orderID, durationDays, expectedVersion)
	case TransitionMarkReady:
		return s.MarkReady(ctx, orderID, expectedVersion)
	case TransitionComplete:
		return s.Complete(ctx, orderID, expectedVersion)
	case TransitionReject:
		return s.Reject(ctx, orderID, reason, expectedVersion)
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, event)
	}
}

// Delete hard-deletes a non-terminal order. The tombstone event removes the
// read model and fires the buyer notification; every later command sees the
// order as not found.
func (s *Service) Delete(ctx context.Context, orderID string, expectedVersion int) error {
	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return err
	}
	if order.Status.IsTerminal() {
		return fmt.Errorf("%w: order is %s (terminal), delete not allowed", ErrInvalidTransition, order.Status)
	}

	event := OrderDeleted{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		BuyerEmail:  order.BuyerEmail,
		DeletedAt:   time.Now(),
	}
	return s.append(ctx, order, EventOrderDeleted, event)
}

// MarkMessagesRead marks everything the other party sent as read.
func (s *Service) MarkMessagesRead(ctx context.Context, orderID string, reader Sender, expectedVersion int) (*Order, error) {
	order, err := s.loadForUpdate(ctx, orderID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order is %s (terminal)", ErrInvalidTransition, order.Status)
	}

	event := MessagesRead{OrderID: orderID, Reader: reader, ReadAt: time.Now()}
	if err := s.append(ctx, order, EventMessagesRead, event); err != nil {
		return nil, err
	}
	return order, nil
}

// buildQuoteEvent prices a quote through the engine and packs the result
// into a QuoteSent event.
func buildQuoteEvent(order *Order, items []LineItem, unitPrice, quantity int, deliveryDate *time.Time, isFinal bool) QuoteSent {
	b := pricing.Quote(unitPrice, quantity, pricing.DefaultDiscounts)
	return QuoteSent{
		OrderID:               order.ID,
		OrderNumber:           order.OrderNumber,
		BuyerEmail:            order.BuyerEmail,
		MessageID:             uuid.New().String(),
		LineItems:             items,
		UnitPrice:             b.UnitPrice,
		Quantity:              b.Quantity,
		Subtotal:              b.Subtotal,
		DiscountPercentage:    b.DiscountPercentage,
		DiscountAmount:        b.DiscountAmount,
		SubtotalAfterDiscount: b.SubtotalAfterDiscount,
		VAT:                   b.VAT,
		Total:                 b.Total,
		DeliveryDate:          deliveryDate,
		IsFinalPrice:          isFinal,
		SentAt:                time.Now(),
	}
}

// newOrderNumber builds the human-readable order number, e.g. CO-20260831-1A2B3C.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("CO-%s-%s", now.Format("20060102"), suffix)
}

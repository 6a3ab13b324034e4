package order

import "time"

const (
	EventOrderRequested          = "OrderRequested"
	EventQuoteSent               = "QuoteSent"
	EventTextMessageSent         = "TextMessageSent"
	EventQuantityChangeRequested = "QuantityChangeRequested"
	EventDeliveryDateAgreed      = "DeliveryDateAgreed"
	EventPaymentVerified         = "PaymentVerified"
	EventOrderApproved           = "OrderApproved"
	EventProductionStarted       = "ProductionStarted"
	EventOrderMarkedReady        = "OrderMarkedReady"
	EventOrderCompleted          = "OrderCompleted"
	EventOrderRejected           = "OrderRejected"
	EventOrderDeleted            = "OrderDeleted"
	EventMessagesRead            = "MessagesRead"
)

// Sender identifies who produced a negotiation message.
type Sender string

const (
	SenderAdmin    Sender = "admin"
	SenderCustomer Sender = "customer"
	SenderSystem   Sender = "system"
)

// LineItem is one component of the quoted unit. The sum of the line item
// amounts is the quoted unit price.
type LineItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// OrderRequested is emitted when a buyer submits a custom order
type OrderRequested struct {
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	BuyerID        string    `json:"buyer_id"`
	BuyerName      string    `json:"buyer_name"`
	BuyerEmail     string    `json:"buyer_email"`
	Description    string    `json:"description"`
	Quantity       int       `json:"quantity"`
	DesignImageURL string    `json:"design_image_url,omitempty"`
	RequestedAt    time.Time `json:"requested_at"`
}

// QuoteSent is emitted when an admin issues (or re-issues) a quote. It carries
// the full priced snapshot so the message log is self-contained.
// PreviousQuantity is nonzero only when the quote also applies a confirmed
// quantity change; quantity and price then change in this one event.
type QuoteSent struct {
	OrderID               string     `json:"order_id"`
	OrderNumber           string     `json:"order_number"`
	BuyerEmail            string     `json:"buyer_email"`
	MessageID             string     `json:"message_id"`
	LineItems             []LineItem `json:"line_items"`
	UnitPrice             int        `json:"unit_price"`
	Quantity              int        `json:"quantity"`
	PreviousQuantity      int        `json:"previous_quantity,omitempty"`
	Subtotal              int        `json:"subtotal"`
	DiscountPercentage    int        `json:"discount_percentage"`
	DiscountAmount        int        `json:"discount_amount"`
	SubtotalAfterDiscount int        `json:"subtotal_after_discount"`
	VAT                   int        `json:"vat"`
	Total                 int        `json:"total"`
	DeliveryDate          *time.Time `json:"delivery_date,omitempty"`
	IsFinalPrice          bool       `json:"is_final_price"`
	SentAt                time.Time  `json:"sent_at"`
}

// TextMessageSent is emitted for a plain chat message on the order thread
type TextMessageSent struct {
	OrderID   string    `json:"order_id"`
	MessageID string    `json:"message_id"`
	Sender    Sender    `json:"sender"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// QuantityChangeRequested is emitted when the buyer (or the cart, as system)
// asks for a different quantity. It is a request only: pricing does not
// change until an admin confirms and re-quotes.
type QuantityChangeRequested struct {
	OrderID     string    `json:"order_id"`
	MessageID   string    `json:"message_id"`
	Sender      Sender    `json:"sender"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	UnitPrice   int       `json:"unit_price"`
	NewTotal    int       `json:"new_total"`
	RequestedAt time.Time `json:"requested_at"`
}

// DeliveryDateAgreed is emitted when the buyer accepts the proposed date
type DeliveryDateAgreed struct {
	OrderID      string    `json:"order_id"`
	DeliveryDate time.Time `json:"delivery_date"`
	AgreedAt     time.Time `json:"agreed_at"`
}

// PaymentVerified is emitted when the payment proof has been checked
type PaymentVerified struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerEmail  string    `json:"buyer_email"`
	ProofRef    string    `json:"proof_ref"`
	VerifiedAt  time.Time `json:"verified_at"`
}

// OrderApproved is emitted when an admin approves a paid order
type OrderApproved struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerEmail  string    `json:"buyer_email"`
	ApprovedAt  time.Time `json:"approved_at"`
}

// ProductionStarted is emitted when production begins; it starts the
// fulfillment timer.
type ProductionStarted struct {
	OrderID      string    `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	BuyerEmail   string    `json:"buyer_email"`
	DurationDays int       `json:"duration_days"`
	StartedAt    time.Time `json:"started_at"`
	DeadlineDate time.Time `json:"deadline_date"`
}

// OrderMarkedReady is emitted when production hands the order to logistics
type OrderMarkedReady struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerEmail  string    `json:"buyer_email"`
	ReadyAt     time.Time `json:"ready_at"`
}

// OrderCompleted is emitted when logistics confirms delivery
type OrderCompleted struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerEmail  string    `json:"buyer_email"`
	CompletedAt time.Time `json:"completed_at"`
}

// OrderRejected is emitted when an admin rejects the order
type OrderRejected struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerEmail  string    `json:"buyer_email"`
	Reason      string    `json:"reason"`
	RejectedAt  time.Time `json:"rejected_at"`
}

// OrderDeleted is the tombstone for an admin hard delete
type OrderDeleted struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerEmail  string    `json:"buyer_email"`
	DeletedAt   time.Time `json:"deleted_at"`
}

// MessagesRead is emitted when one party opens the thread; everything the
// other party sent up to ReadAt counts as read.
type MessagesRead struct {
	OrderID string    `json:"order_id"`
	Reader  Sender    `json:"reader"`
	ReadAt  time.Time `json:"read_at"`
}

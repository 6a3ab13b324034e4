package readmodel

import "time"

// LineItemReadModel is one component of the quoted unit
type LineItemReadModel struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// QuoteView is the priced snapshot carried by quote messages and mirrored as
// the order's current effective quote
type QuoteView struct {
	UnitPrice             int        `json:"unit_price"`
	Quantity              int        `json:"quantity"`
	Subtotal              int        `json:"subtotal"`
	DiscountPercentage    int        `json:"discount_percentage"`
	DiscountAmount        int        `json:"discount_amount"`
	SubtotalAfterDiscount int        `json:"subtotal_after_discount"`
	VAT                   int        `json:"vat"`
	Total                 int        `json:"total"`
	DeliveryDate          *time.Time `json:"delivery_date,omitempty"`
	IsFinalPrice          bool       `json:"is_final_price"`
}

// QuantityChangeView is the payload of a quantity-update message
type QuantityChangeView struct {
	OldQuantity int `json:"old_quantity"`
	NewQuantity int `json:"new_quantity"`
	UnitPrice   int `json:"unit_price"`
	NewTotal    int `json:"new_total"`
}

// MessageReadModel is one entry of the order's negotiation thread.
// Exactly one payload field is set, keyed by Type:
// text, quote, quantity-update, negotiation, system.
type MessageReadModel struct {
	ID             string              `json:"id"`
	OrderID        string              `json:"order_id"`
	Sender         string              `json:"sender"`
	Type           string              `json:"type"`
	Body           string              `json:"body,omitempty"`
	Quote          *QuoteView          `json:"quote,omitempty"`
	QuantityChange *QuantityChangeView `json:"quantity_change,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Seq            int                 `json:"seq"` // insertion order tie-break
	IsRead         bool                `json:"is_read"`
}

// OrderReadModel is the poll-endpoint view of a custom order: the order
// fields, the derived current quote, and the full message thread ordered by
// (created_at, seq).
type OrderReadModel struct {
	ID             string `json:"id"`
	OrderNumber    string `json:"order_number"`
	BuyerID        string `json:"buyer_id"`
	BuyerName      string `json:"buyer_name"`
	BuyerEmail     string `json:"buyer_email"`
	Description    string `json:"description"`
	DesignImageURL string `json:"design_image_url,omitempty"`
	Quantity       int    `json:"quantity"`
	Status         string `json:"status"`

	QuotedUnitPrice int                 `json:"quoted_unit_price"`
	LineItems       []LineItemReadModel `json:"line_items,omitempty"`
	Quote           *QuoteView          `json:"quote,omitempty"`

	ProposedDeliveryDate *time.Time `json:"proposed_delivery_date,omitempty"`
	BuyerAgreedToDate    bool       `json:"buyer_agreed_to_date"`
	DeliveryDate         *time.Time `json:"delivery_date,omitempty"`

	PaymentProofRef  string `json:"payment_proof_ref,omitempty"`
	PaymentVerified  bool   `json:"payment_verified"`
	PaymentAvailable bool   `json:"payment_available"`

	TimerStartedAt    *time.Time `json:"timer_started_at,omitempty"`
	TimerDurationDays int        `json:"timer_duration_days,omitempty"`
	DeadlineDate      *time.Time `json:"deadline_date,omitempty"`
	CurrentHandler    string     `json:"current_handler"`

	RejectionReason string             `json:"rejection_reason,omitempty"`
	Messages        []MessageReadModel `json:"messages"`
	Version         int                `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// UserReadModel is the read model for users
type UserReadModel struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionReadModel is the read model for user sessions
type SessionReadModel struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
}

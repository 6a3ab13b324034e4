package command

import "time"

// LineItemInput is one component of the quoted unit as entered by an admin
type LineItemInput struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// CreateOrder submits a custom-order request
type CreateOrder struct {
	BuyerID        string `json:"buyer_id"`
	BuyerName      string `json:"buyer_name"`
	BuyerEmail     string `json:"buyer_email"`
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	DesignImageURL string `json:"design_image_url"`
}

// SendQuote issues or re-issues a quote
type SendQuote struct {
	OrderID         string          `json:"order_id"`
	Items           []LineItemInput `json:"items"`
	DeliveryDate    *time.Time      `json:"delivery_date"`
	IsFinalPrice    bool            `json:"is_final_price"`
	ExpectedVersion int             `json:"expected_version"`
}

// PostMessage appends a text message to the order thread
type PostMessage struct {
	OrderID         string `json:"order_id"`
	Sender          string `json:"sender"`
	Body            string `json:"body"`
	ExpectedVersion int    `json:"expected_version"`
}

// RequestQuantityChange asks for a different quantity without touching pricing
type RequestQuantityChange struct {
	OrderID         string `json:"order_id"`
	Sender          string `json:"sender"`
	NewQuantity     int    `json:"new_quantity"`
	ExpectedVersion int    `json:"expected_version"`
}

// ConfirmQuantityAndRequote applies a requested quantity and re-issues the quote
type ConfirmQuantityAndRequote struct {
	OrderID         string `json:"order_id"`
	NewQuantity     int    `json:"new_quantity"`
	UnitPrice       int    `json:"unit_price"`
	ExpectedVersion int    `json:"expected_version"`
}

// AgreeToDeliveryDate records the buyer's acceptance of the proposed date
type AgreeToDeliveryDate struct {
	OrderID         string `json:"order_id"`
	ExpectedVersion int    `json:"expected_version"`
}

// MarkPaymentVerified records the verified payment proof
type MarkPaymentVerified struct {
	OrderID         string `json:"order_id"`
	ProofRef        string `json:"proof_ref"`
	ExpectedVersion int    `json:"expected_version"`
}

// Transition drives the state machine: approve, start-production,
// mark-ready, complete, reject
type Transition struct {
	OrderID         string `json:"order_id"`
	Event           string `json:"event"`
	Reason          string `json:"reason"`
	DurationDays    int    `json:"duration_days"`
	ExpectedVersion int    `json:"expected_version"`
}

// MarkMessagesRead marks the other party's messages as read
type MarkMessagesRead struct {
	OrderID         string `json:"order_id"`
	Reader          string `json:"reader"`
	ExpectedVersion int    `json:"expected_version"`
}

// DeleteOrder hard-deletes a non-terminal order
type DeleteOrder struct {
	OrderID         string `json:"order_id"`
	ExpectedVersion int    `json:"expected_version"`
}

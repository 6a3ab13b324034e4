package order

import (
	"time"

	"github.com/example/custom-order-service/internal/pricing"
)

// QuoteSnapshot is the derived pricing view of the latest quote. It is
// recomputed from the order's mirrored quote fields, never stored, so every
// consumer displays the same numbers.
type QuoteSnapshot struct {
	UnitPrice             int        `json:"unit_price"`
	Quantity              int        `json:"quantity"`
	Subtotal              int        `json:"subtotal"`
	DiscountPercentage    int        `json:"discount_percentage"`
	DiscountAmount        int        `json:"discount_amount"`
	SubtotalAfterDiscount int        `json:"subtotal_after_discount"`
	VAT                   int        `json:"vat"`
	Total                 int        `json:"total"`
	DeliveryDate          *time.Time `json:"delivery_date,omitempty"`
	IsFinal               bool       `json:"is_final"`
}

// DeriveQuoteSnapshot computes the current effective quote for an order, or
// nil if no quote has been issued yet.
func DeriveQuoteSnapshot(o *Order) *QuoteSnapshot {
	if !o.HasQuote() {
		return nil
	}
	b := pricing.Quote(o.QuotedUnitPrice, o.Quantity, pricing.DefaultDiscounts)
	return &QuoteSnapshot{
		UnitPrice:             b.UnitPrice,
		Quantity:              b.Quantity,
		Subtotal:              b.Subtotal,
		DiscountPercentage:    b.DiscountPercentage,
		DiscountAmount:        b.DiscountAmount,
		SubtotalAfterDiscount: b.SubtotalAfterDiscount,
		VAT:                   b.VAT,
		Total:                 b.Total,
		DeliveryDate:          o.ProposedDeliveryDate,
		IsFinal:               o.IsFinalPrice,
	}
}

// Package pricing computes quote totals for custom orders.
//
// All amounts are integers in the currency's minor unit. Intermediate values
// are rounded half-up at each step so the stored quote and every re-display
// of it agree digit for digit.
package pricing

// VATPerMille is the VAT rate in permille (7.5%).
const VATPerMille = 75

// Tier maps a minimum quantity to a discount percentage.
type Tier struct {
	MinQuantity int
	Percent     int
}

// DefaultDiscounts is the standard quantity discount table. Tiers are ordered
// by threshold descending; the first qualifying tier applies, no stacking.
var DefaultDiscounts = []Tier{
	{MinQuantity: 10, Percent: 10},
	{MinQuantity: 6, Percent: 7},
	{MinQuantity: 3, Percent: 5},
}

// Breakdown is the full pricing result for a quote.
type Breakdown struct {
	UnitPrice             int `json:"unit_price"`
	Quantity              int `json:"quantity"`
	Subtotal              int `json:"subtotal"`
	DiscountPercentage    int `json:"discount_percentage"`
	DiscountAmount        int `json:"discount_amount"`
	SubtotalAfterDiscount int `json:"subtotal_after_discount"`
	VAT                   int `json:"vat"`
	Total                 int `json:"total"`
}

// DiscountPercent returns the discount percentage for a quantity.
func DiscountPercent(quantity int, tiers []Tier) int {
	best := 0
	for _, t := range tiers {
		if quantity >= t.MinQuantity && t.Percent > best {
			best = t.Percent
		}
	}
	return best
}

// Quote computes the full price breakdown for unitPrice and quantity.
// It is a pure function: identical inputs always yield identical output.
func Quote(unitPrice, quantity int, tiers []Tier) Breakdown {
	subtotal := unitPrice * quantity
	pct := DiscountPercent(quantity, tiers)
	discount := roundHalfUp(subtotal*pct, 100)
	afterDiscount := subtotal - discount
	vat := roundHalfUp(afterDiscount*VATPerMille, 1000)

	return Breakdown{
		UnitPrice:             unitPrice,
		Quantity:              quantity,
		Subtotal:              subtotal,
		DiscountPercentage:    pct,
		DiscountAmount:        discount,
		SubtotalAfterDiscount: afterDiscount,
		VAT:                   vat,
		Total:                 afterDiscount + vat,
	}
}

// roundHalfUp divides numerator by denominator, rounding .5 away from zero.
// Inputs are never negative in practice.
func roundHalfUp(numerator, denominator int) int {
	return (numerator + denominator/2) / denominator
}

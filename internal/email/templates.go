package email

import (
	"fmt"
	"strings"
)

// BuildQuoteIssuedBody builds the HTML body for the quote notification
func BuildQuoteIssuedBody(orderNumber string, total int, deliveryDate string) string {
	delivery := ""
	if deliveryDate != "" {
		delivery = fmt.Sprintf(`<p>Proposed delivery date: <strong>%s</strong>. Please confirm it from your dashboard before paying.</p>`, deliveryDate)
	}
	return wrap("Your quote is ready", fmt.Sprintf(`
		<p>We have priced your custom order.</p>
		%s
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
			<p style="margin: 10px 0 0 0; font-size: 14px; color: #666;">Total</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold;">₦%s</p>
		</div>
		<p>Open the order to review the full breakdown or message us to negotiate.</p>`,
		delivery, orderNumber, formatNumber(total)))
}

// BuildPaymentVerifiedBody builds the HTML body for the admin payment alert
func BuildPaymentVerifiedBody(orderNumber, proofRef string) string {
	return wrap("Payment verified", fmt.Sprintf(`
		<p>Payment for order <strong style="font-family: monospace;">%s</strong> has been verified.</p>
		<p>Proof reference: <span style="font-family: monospace;">%s</span></p>
		<p>The order is waiting for approval.</p>`, orderNumber, proofRef))
}

// BuildStatusUpdateBody builds the HTML body for buyer status notifications
func BuildStatusUpdateBody(orderNumber, headline, detail string) string {
	return wrap(headline, fmt.Sprintf(`
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>
		<p>%s</p>`, orderNumber, detail))
}

func wrap(title, inner string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		%s
		<p style="font-size: 12px; color: #999; margin-top: 30px;">This is an automated message; replies are not monitored.</p>
	</div>
</body>
</html>`, title, inner)
}

// formatNumber adds thousands separators to an amount in minor units
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

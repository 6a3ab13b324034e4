package email

import (
	"fmt"
	"net/smtp"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendQuoteIssued notifies the buyer that a quote is waiting
func (s *Service) SendQuoteIssued(to, orderNumber string, total int, deliveryDate string) error {
	subject := fmt.Sprintf("Quote ready for order %s", orderNumber)
	body := BuildQuoteIssuedBody(orderNumber, total, deliveryDate)
	return s.send(to, subject, body)
}

// SendPaymentVerified notifies the admin inbox that a payment came in
func (s *Service) SendPaymentVerified(to, orderNumber, proofRef string) error {
	subject := fmt.Sprintf("Payment verified for order %s", orderNumber)
	body := BuildPaymentVerifiedBody(orderNumber, proofRef)
	return s.send(to, subject, body)
}

// SendStatusUpdate notifies the buyer of a lifecycle change
func (s *Service) SendStatusUpdate(to, orderNumber, headline, detail string) error {
	subject := fmt.Sprintf("%s - order %s", headline, orderNumber)
	body := BuildStatusUpdateBody(orderNumber, headline, detail)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}

package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/example/velora/internal/models"
	"github.com/example/velora/internal/money"
)

// EmailService sends customer-facing mails over SMTP. When SMTP is not
// configured every send becomes a logged no-op, so local setups work
// without a mail server.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewEmailService(host, port, username, password, from string) *EmailService {
	return &EmailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// SendPaymentConfirmation mails the order summary after payment settles.
func (s *EmailService) SendPaymentConfirmation(ctx context.Context, order *models.Order) error {
	if s.host == "" {
		log.Printf("[Email] SMTP not configured, skipping confirmation for order %s", order.OrderID)
		return nil
	}

	var lines strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&lines, "  %d x %s — %s\n", item.Quantity, item.Name, money.Format(item.LineTotal, order.Currency))
	}

	subject := fmt.Sprintf("Order %s confirmed", order.OrderID)
	body := fmt.Sprintf(
		"Hi %s,\n\nThank you for your order %s. Payment has been received.\n\n%s\nSubtotal: %s\nShipping: %s\nTax (%s%%): %s\nTotal: %s\n\nWe will let you know once it ships.\n",
		order.Customer.FirstName,
		order.OrderID,
		lines.String(),
		money.Format(order.Subtotal, order.Currency),
		money.Format(order.ShippingCost, order.Currency),
		order.TaxPercentage.String(),
		money.Format(order.TaxAmount, order.Currency),
		money.Format(order.Total, order.Currency),
	)

	return s.send(order.Customer.Email, subject, body)
}

func (s *EmailService) send(to, subject, body string) error {
	message := []byte("To: " + to + "\r\n" +
		"From: " + s.from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, message); err != nil {
		log.Printf("[Email] send to %s failed: %v", to, err)
		return err
	}

	log.Printf("[Email] confirmation sent to %s", to)
	return nil
}

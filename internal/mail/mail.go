// Package mail sends transactional email: account verification, password
// reset and order confirmation.
package mail

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Mailer delivers a plain-text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to string, msg Message) error
}

// Message is a rendered email.
type Message struct {
	Subject string
	Body    string
}

// logMailer implements Mailer by logging messages. It is used when no mail
// provider is configured.
type logMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a Mailer that only logs.
func NewLogMailer(logger zerolog.Logger) Mailer {
	return &logMailer{logger: logger.With().Str("component", "log-mailer").Logger()}
}

func (m *logMailer) Send(_ context.Context, to string, msg Message) error {
	m.logger.Info().Str("to", to).Str("subject", msg.Subject).Msg("mail not sent, no provider configured")
	m.logger.Debug().Str("to", to).Msg(msg.Body)
	return nil
}

// VerificationMessage asks a new user to confirm their email address.
func VerificationMessage(name, frontendURL, token string) Message {
	link := strings.TrimSuffix(frontendURL, "/") + "/verify-email/" + token
	return Message{
		Subject: "Verify your email address",
		Body: fmt.Sprintf("Hello %s,\n\n"+
			"Thanks for creating an account. Confirm your email address by opening the link below:\n\n%s\n\n"+
			"The link expires in 24 hours. If you did not sign up, ignore this email.\n", name, link),
	}
}

// PasswordResetMessage carries a single-use password reset link.
func PasswordResetMessage(name, frontendURL, token string) Message {
	link := strings.TrimSuffix(frontendURL, "/") + "/reset-password/" + token
	return Message{
		Subject: "Password Reset Request",
		Body: fmt.Sprintf("Hello %s,\n\n"+
			"You requested to reset your password. Open the link below to choose a new one:\n\n%s\n\n"+
			"The link expires in 10 minutes. If you did not request this, ignore this email.\n", name, link),
	}
}

// OrderConfirmationMessage summarises a placed order.
func OrderConfirmationMessage(order *model.Order, frontendURL string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order!\n\n")
	fmt.Fprintf(&b, "Order ID: %s\n", order.ID)
	fmt.Fprintf(&b, "Order Date: %s\n\n", order.CreatedAt.Format("2006-01-02"))

	addr := order.ShippingAddress
	fmt.Fprintf(&b, "Shipping Address:\n%s\n%s\n%s, %s\n%s\n\n", addr.Name, addr.Address, addr.City, addr.PostalCode, addr.Country)

	fmt.Fprintf(&b, "Order Items:\n")
	for _, item := range order.OrderItems {
		name := item.Name
		if item.Variant != "" {
			name += " (" + item.Variant + ")"
		}
		fmt.Fprintf(&b, "  %s x%d  Rs. %.2f\n", name, item.Quantity, item.Price)
	}

	fmt.Fprintf(&b, "\nSubtotal: Rs. %.2f\n", order.ItemsPrice)
	fmt.Fprintf(&b, "Shipping: Rs. %.2f\n", order.ShippingPrice)
	fmt.Fprintf(&b, "Tax: Rs. %.2f\n", order.TaxPrice)
	fmt.Fprintf(&b, "Total: Rs. %.2f\n\n", order.TotalPrice)
	fmt.Fprintf(&b, "Track your order: %s/order/%s\n", strings.TrimSuffix(frontendURL, "/"), order.ID)

	return Message{
		Subject: fmt.Sprintf("Order Confirmation - #%s", order.ID),
		Body:    b.String(),
	}
}

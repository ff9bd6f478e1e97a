package mail

import (
	"context"
	"fmt"
	"html"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// sendGridMailer implements Mailer with the SendGrid v3 API.
type sendGridMailer struct {
	client sendClient
	from   *sgmail.Email
	logger zerolog.Logger
}

// NewSendGridMailer creates a SendGrid-backed Mailer.
func NewSendGridMailer(apiKey, fromEmail, fromName string, logger zerolog.Logger) Mailer {
	return newSendGridMailer(sendgrid.NewSendClient(apiKey), fromEmail, fromName, logger)
}

func newSendGridMailer(client sendClient, fromEmail, fromName string, logger zerolog.Logger) *sendGridMailer {
	return &sendGridMailer{
		client: client,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger.With().Str("component", "sendgrid-mailer").Logger(),
	}
}

func (m *sendGridMailer) Send(ctx context.Context, to string, msg Message) error {
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	htmlContent := "<pre>" + html.EscapeString(msg.Body) + "</pre>"
	message := sgmail.NewSingleEmail(m.from, msg.Subject, sgmail.NewEmail("", to), msg.Body, htmlContent)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		m.logger.Error().Err(err).Str("to", to).Msg("failed to send mail")
		return fmt.Errorf("failed to send mail: %w", err)
	}
	if response.StatusCode >= 400 {
		m.logger.Error().
			Int("status", response.StatusCode).
			Str("body", response.Body).
			Str("to", to).
			Msg("mail rejected by provider")
		return fmt.Errorf("mail rejected by provider: status=%d", response.StatusCode)
	}

	m.logger.Info().Int("status", response.StatusCode).Str("to", to).Str("subject", msg.Subject).Msg("mail sent")
	return nil
}

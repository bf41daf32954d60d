// Package notify sends operational alerts to the site operator.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer emails the operator when the auth layer sees abuse signals.
// Delivery is best effort; failures are logged and never propagate into the
// auth flow.
type Mailer struct {
	client *sendgrid.Client
	from   *mail.Email
	to     *mail.Email
}

func NewMailer(apiKey, fromEmail, toEmail string) *Mailer {
	if apiKey == "" || fromEmail == "" || toEmail == "" {
		return nil
	}
	return &Mailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("portfolio alerts", fromEmail),
		to:     mail.NewEmail("operator", toEmail),
	}
}

func (m *Mailer) RateLimited(_ context.Context, phone string) {
	subject := "OTP rate limit tripped"
	body := fmt.Sprintf("Phone %s exceeded the hourly code request limit.", phone)
	message := mail.NewSingleEmail(m.from, subject, m.to, body, "")

	resp, err := m.client.Send(message)
	if err != nil {
		log.Printf("[notify] alert mail: %v", err)
		return
	}
	if resp.StatusCode >= 400 {
		log.Printf("[notify] alert mail: status %d", resp.StatusCode)
	}
}

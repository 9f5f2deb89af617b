package services

import (
	"context"
	"fmt"
	"html"

	"github.com/globizora/api-service/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
	to     *mail.Email
}

func NewSendGridNotifier(cfg config.ContactConfig) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail("Globizora API", cfg.FromEmail),
		to:     mail.NewEmail("Globizora Team", cfg.ToEmail),
	}
}

func (n *SendGridNotifier) Notify(ctx context.Context, sub ContactSubmission) error {
	body := contactBody(sub)
	message := mail.NewSingleEmail(n.from, contactSubject(sub), n.to, body, html.EscapeString(body))
	message.SetReplyTo(mail.NewEmail(sub.Name, sub.Email))

	response, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d", response.StatusCode)
	}
	return nil
}

func contactSubject(sub ContactSubmission) string {
	return fmt.Sprintf("New contact request from %s", sub.Name)
}

func contactBody(sub ContactSubmission) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nReceived: %s\n\n%s",
		sub.Name, sub.Email, sub.ReceivedAt.Format("2006-01-02 15:04:05 MST"), sub.Message)
}

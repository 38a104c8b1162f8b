package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	gerr "github.com/klubben/events-manager/internal/errors"
)

// Sender delivers one rendered mail. Kept narrow so tests can swap in a
// recorder.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type sendgridSender struct {
	cli  *sendgrid.Client
	from *mail.Email
}

func newSendgridSender(apiKey string, from *mail.Email) *sendgridSender {
	return &sendgridSender{
		cli:  sendgrid.NewSendClient(apiKey),
		from: from,
	}
}

func (s *sendgridSender) Send(ctx context.Context, to, subject, html string) error {
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), "", html)

	resp, err := s.cli.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return gerr.ErrMailApiLimitReached
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("error sending email bad status code: %s, status code: %d", resp.Body, resp.StatusCode)
	}

	return nil
}

package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// Ensure ResendSender implements Sender.
var _ Sender = (*ResendSender)(nil)

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender constructs a ResendSender sending from the given address.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// Send delivers one message.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{Address(msg.ToName, msg.To)},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: sending to %s: %w", msg.To, err)
	}

	return nil
}

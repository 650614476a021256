package mail

import (
	"context"
	"fmt"
)

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers rendered digests. A failed Send affects only the message
// it was called with; callers decide whether to continue.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Address formats a display name and email address into RFC 5322 form.
func Address(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

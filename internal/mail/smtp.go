package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Ensure SMTPSender implements Sender.
var _ Sender = (*SMTPSender)(nil)

const smtpSessionTimeout = 30 * time.Second

// SMTPSender delivers mail over an authenticated STARTTLS session, one
// connection per message. The sender address doubles as the login username.
type SMTPSender struct {
	host     string
	port     int
	from     string
	password string
}

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(host string, port int, from, password string) *SMTPSender {
	return &SMTPSender{host: host, port: port, from: from, password: password}
}

// Send delivers one message. The connection honors the context deadline
// when one is set and otherwise bounds the whole session at 30 seconds.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp: dialing %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(smtpSessionTimeout))
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp: handshake with %s: %w", addr, err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return errors.New("smtp: server does not support STARTTLS")
	}
	if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
		return fmt.Errorf("smtp: starttls: %w", err)
	}

	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("smtp: auth as %s: %w", s.from, err)
	}

	if err := c.Mail(s.from); err != nil {
		return fmt.Errorf("smtp: mail from %s: %w", s.from, err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp: rcpt to %s: %w", msg.To, err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(buildMessage(s.from, msg)); err != nil {
		return fmt.Errorf("smtp: writing message to %s: %w", msg.To, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: closing message to %s: %w", msg.To, err)
	}

	return c.Quit()
}

// buildMessage assembles the MIME message. The subject is Q-encoded so
// non-ASCII characters survive the SMTP header.
func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", Address(msg.ToName, msg.To))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")
	return []byte(b.String())
}

package mail

import (
	"context"
	"log/slog"
)

// Ensure LogSender implements Sender.
var _ Sender = (*LogSender)(nil)

// LogSender logs messages instead of delivering them. It backs dry runs,
// where the whole pipeline executes except the final handoff.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("dry run, skipping delivery",
		"to", Address(msg.ToName, msg.To),
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML),
	)
	return nil
}

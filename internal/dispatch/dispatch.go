package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rares1928/morning-email/internal/content"
	"github.com/rares1928/morning-email/internal/digest"
	"github.com/rares1928/morning-email/internal/mail"
)

// Recipient is one addressee of the morning digest.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Failure records one recipient a run could not deliver to.
type Failure struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Cause string `json:"cause"`
}

// RunSummary aggregates the outcome of one dispatch pass.
type RunSummary struct {
	RunID    uuid.UUID     `json:"run_id"`
	Date     string        `json:"date"`
	Sent     int           `json:"sent"`
	Failed   int           `json:"failed"`
	Failures []Failure     `json:"failures,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// digestRenderer is the interface satisfied by digest.Renderer.
type digestRenderer interface {
	Render(recipientName string, bundle content.Bundle, runDate time.Time) (digest.Digest, error)
}

// Dispatcher renders and delivers one digest per recipient.
type Dispatcher struct {
	renderer digestRenderer
	sender   mail.Sender
	log      *slog.Logger
}

// New constructs a Dispatcher.
func New(renderer digestRenderer, sender mail.Sender, log *slog.Logger) *Dispatcher {
	return &Dispatcher{renderer: renderer, sender: sender, log: log}
}

// Run delivers the bundle to every recipient in registry order. A render or
// send failure for one recipient never aborts the loop: the summary records
// it and the next recipient is attempted.
func (d *Dispatcher) Run(ctx context.Context, recipients []Recipient, bundle content.Bundle, runDate time.Time) RunSummary {
	summary := RunSummary{
		RunID:   uuid.New(),
		Date:    runDate.Format("2006-01-02"),
		Started: time.Now().UTC(),
	}

	for _, r := range recipients {
		dg, err := d.renderer.Render(r.Name, bundle, runDate)
		if err != nil {
			d.recordFailure(&summary, r, fmt.Errorf("rendering digest: %w", err))
			continue
		}

		msg := mail.Message{To: r.Email, ToName: r.Name, Subject: dg.Subject, HTML: dg.HTML}
		if err := d.sender.Send(ctx, msg); err != nil {
			d.recordFailure(&summary, r, fmt.Errorf("sending digest: %w", err))
			continue
		}

		summary.Sent++
		d.log.Info("digest delivered", "run_id", summary.RunID, "recipient", r.Name, "email", r.Email)
	}

	summary.Duration = time.Since(summary.Started)

	return summary
}

func (d *Dispatcher) recordFailure(summary *RunSummary, r Recipient, err error) {
	summary.Failed++
	summary.Failures = append(summary.Failures, Failure{Name: r.Name, Email: r.Email, Cause: err.Error()})
	d.log.Error("digest delivery failed", "run_id", summary.RunID, "recipient", r.Name, "email", r.Email, "err", err)
}

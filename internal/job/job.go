package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rares1928/morning-email/internal/content"
	"github.com/rares1928/morning-email/internal/dispatch"
)

// ErrRunInProgress is returned when a run is requested while another one
// is still executing.
var ErrRunInProgress = errors.New("a digest run is already in progress")

// bundleFetcher is the interface satisfied by content.Fetcher.
type bundleFetcher interface {
	FetchBundle(ctx context.Context, coord content.Coordinate) content.Bundle
}

// digestDispatcher is the interface satisfied by dispatch.Dispatcher.
type digestDispatcher interface {
	Run(ctx context.Context, recipients []dispatch.Recipient, bundle content.Bundle, runDate time.Time) dispatch.RunSummary
}

// Job composes one full digest run: fetch the shared bundle once, then
// dispatch it to every recipient. At most one run executes at a time;
// the scheduler and the admin trigger share the same guard.
type Job struct {
	fetcher    bundleFetcher
	dispatcher digestDispatcher
	coord      content.Coordinate
	recipients []dispatch.Recipient
	loc        *time.Location
	log        *slog.Logger

	mu      sync.Mutex
	running bool
	last    *dispatch.RunSummary
}

// New constructs a Job. loc is the timezone the run date is computed in,
// matching the forecast location.
func New(fetcher bundleFetcher, dispatcher digestDispatcher, coord content.Coordinate, recipients []dispatch.Recipient, loc *time.Location, log *slog.Logger) *Job {
	return &Job{
		fetcher:    fetcher,
		dispatcher: dispatcher,
		coord:      coord,
		recipients: recipients,
		loc:        loc,
		log:        log,
	}
}

// RunOnce executes one fetch-render-dispatch pass and records its summary.
// It returns ErrRunInProgress when called while another run is executing.
func (j *Job) RunOnce(ctx context.Context) (dispatch.RunSummary, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return dispatch.RunSummary{}, ErrRunInProgress
	}
	j.running = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	runDate := time.Now().In(j.loc)

	j.log.Info("digest run starting", "date", runDate.Format("2006-01-02"), "recipients", len(j.recipients))

	bundle := j.fetcher.FetchBundle(ctx, j.coord)
	summary := j.dispatcher.Run(ctx, j.recipients, bundle, runDate)

	j.mu.Lock()
	j.last = &summary
	j.mu.Unlock()

	j.log.Info("digest run finished",
		"run_id", summary.RunID,
		"sent", summary.Sent,
		"failed", summary.Failed,
		"duration", summary.Duration,
	)

	return summary, nil
}

// Last returns the most recent run summary, or nil before the first run.
func (j *Job) Last() *dispatch.RunSummary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

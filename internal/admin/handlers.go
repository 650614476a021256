package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rares1928/morning-email/internal/dispatch"
	"github.com/rares1928/morning-email/internal/job"
)

// jobRunner is the interface satisfied by job.Job.
type jobRunner interface {
	RunOnce(ctx context.Context) (dispatch.RunSummary, error)
	Last() *dispatch.RunSummary
}

// RedisPinger reports forecast cache connectivity. nil when the cache is disabled.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the dependencies for the admin HTTP endpoints exposed in
// scheduled mode.
type Handlers struct {
	job   jobRunner
	redis RedisPinger
	log   *slog.Logger
}

// NewHandlers constructs Handlers. redis may be nil when no cache is configured.
func NewHandlers(j jobRunner, redis RedisPinger, log *slog.Logger) *Handlers {
	return &Handlers{job: j, redis: redis, log: log}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Health handles GET /healthz. The process serves traffic as long as it is
// up; a failing cache ping only degrades the report, because runs proceed
// without the cache.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cacheStatus := "disabled"
	if h.redis != nil {
		cacheStatus = "ok"
		if err := h.redis.Ping(ctx); err != nil {
			h.log.Warn("health check: redis ping failed", "err", err)
			cacheStatus = "error"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"cache":  cacheStatus,
	})
}

// Status handles GET /status: the summary of the most recent run, or 404
// before the first one.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	last := h.job.Last()
	if last == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no runs completed yet"})
		return
	}

	writeJSON(w, http.StatusOK, last)
}

// TriggerRun handles POST /run: starts a digest run and returns its summary.
// A run already in flight yields 409 rather than a second concurrent run.
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	summary, err := h.job.RunOnce(r.Context())
	if err != nil {
		if errors.Is(err, job.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
			return
		}
		h.log.Error("manual run failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "run failed"})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

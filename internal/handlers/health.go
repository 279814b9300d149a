package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandlers serves the liveness and readiness probes.
type HealthHandlers struct {
	started time.Time
	now     func() time.Time
	// ready reports whether downstream dependencies are reachable. A nil
	// check means the process is ready as soon as it serves traffic.
	ready func(ctx context.Context) error
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs the probe handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		started: time.Now(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithReadinessCheck wires a dependency probe into /readyz.
func WithReadinessCheck(check func(ctx context.Context) error) HealthOption {
	return func(h *HealthHandlers) {
		h.ready = check
	}
}

// WithHealthClock overrides the clock, used by tests.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		h.now = now
		h.started = now()
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    h.now().Sub(h.started).String(),
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Readyz reports whether downstream dependencies are reachable.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"reason": err.Error(),
			})
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}

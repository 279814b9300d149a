package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marketbay/api/internal/platform/auth"
	"github.com/marketbay/api/internal/platform/httpx"
)

const (
	headerKey    = "Idempotency-Key"
	headerReplay = "X-Idempotent-Replay"
)

type middlewareConfig struct {
	ttl    time.Duration
	clock  func() time.Time
	logger *zap.Logger
}

// MiddlewareOption customises middleware behaviour.
type MiddlewareOption func(*middlewareConfig)

// WithTTL configures how long completed records are retained.
func WithTTL(ttl time.Duration) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

// WithLogger injects a logger for persistence failures.
func WithLogger(logger *zap.Logger) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithClock overrides the time source, primarily for testing.
func WithClock(clock func() time.Time) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// Middleware replays stored responses for requests repeating an
// Idempotency-Key. Requests without the header pass through untouched, so
// clients opt in per call.
func Middleware(store Store, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	cfg := middlewareConfig{
		ttl:    DefaultTTL,
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(headerKey))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			body, err := bufferBody(r)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
				return
			}

			requester := requesterID(ctx)
			fingerprint := requestFingerprint(r, body, requester)
			scoped := key + "|" + requester
			now := cfg.clock().UTC()

			reservation, err := store.Reserve(ctx, scoped, fingerprint, now, cfg.ttl)
			if err != nil {
				writeReserveError(ctx, w, cfg.logger, err)
				return
			}

			switch reservation.State {
			case ReservationReplay:
				writeStoredResponse(w, reservation.Record)
				return
			case ReservationInFlight:
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_in_progress",
					"another request is processing this idempotency key", http.StatusConflict))
				return
			}

			recorder := newBufferedResponse(w)
			next.ServeHTTP(recorder, r)

			response := Response{
				Status:  recorder.StatusCode(),
				Headers: recorder.HeaderSnapshot(),
				Body:    recorder.Body(),
			}
			if err := store.SaveResponse(ctx, scoped, fingerprint, response, cfg.clock().UTC(), cfg.ttl); err != nil {
				cfg.logger.Warn("idempotency: persist failed", zap.Error(err))
				if releaseErr := store.Release(ctx, scoped, fingerprint); releaseErr != nil {
					cfg.logger.Warn("idempotency: release failed", zap.Error(releaseErr))
				}
			}
			recorder.Flush()
		})
	}
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if err := r.Body.Close(); err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func requesterID(ctx context.Context) string {
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil && identity.UserID != "" {
		return identity.UserID
	}
	return "anonymous"
}

func requestFingerprint(r *http.Request, body []byte, requester string) string {
	parts := []string{
		strings.ToUpper(r.Method),
		r.URL.Path,
		r.URL.RawQuery,
		r.Header.Get("Content-Type"),
		requester,
	}
	if len(body) > 0 {
		parts = append(parts, hashHex(body))
	}
	return hashHex([]byte(strings.Join(parts, "|")))
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeReserveError(ctx context.Context, w http.ResponseWriter, logger *zap.Logger, err error) {
	if errors.Is(err, ErrFingerprintMismatch) {
		httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_conflict",
			"idempotency key already used for a different request", http.StatusConflict))
		return
	}
	logger.Warn("idempotency: reserve failed", zap.Error(err))
	httpx.WriteError(ctx, w, httpx.NewError("idempotency_store_error",
		"unable to process idempotency key", http.StatusServiceUnavailable))
}

func writeStoredResponse(w http.ResponseWriter, record Record) {
	header := w.Header()
	for name := range header {
		header.Del(name)
	}
	for name, values := range record.ResponseHeaders {
		for _, value := range values {
			header.Add(name, value)
		}
	}
	header.Set(headerReplay, "true")

	status := record.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(record.ResponseBody) > 0 {
		_, _ = w.Write(record.ResponseBody)
	}
}

// bufferedResponse captures the handler's output so it can be stored before
// being flushed to the client.
type bufferedResponse struct {
	parent http.ResponseWriter
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse(parent http.ResponseWriter) *bufferedResponse {
	return &bufferedResponse{parent: parent, header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(status int) {
	if status <= 0 {
		status = http.StatusOK
	}
	b.status = status
}

func (b *bufferedResponse) Write(data []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(data)
}

func (b *bufferedResponse) StatusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

func (b *bufferedResponse) Body() []byte {
	if b.body.Len() == 0 {
		return nil
	}
	return b.body.Bytes()
}

func (b *bufferedResponse) HeaderSnapshot() http.Header {
	snapshot := make(http.Header, len(b.header))
	for name, values := range b.header {
		copied := make([]string, len(values))
		copy(copied, values)
		snapshot[name] = copied
	}
	return snapshot
}

// Flush copies the buffered response to the real writer.
func (b *bufferedResponse) Flush() {
	dst := b.parent.Header()
	for name := range dst {
		dst.Del(name)
	}
	for name, values := range b.header {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
	b.parent.WriteHeader(b.StatusCode())
	if b.body.Len() > 0 {
		_, _ = b.parent.Write(b.body.Bytes())
	}
}

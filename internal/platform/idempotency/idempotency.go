// Package idempotency lets clients retry mutating requests safely. A
// request carrying an Idempotency-Key header is executed once; retries
// with the same key replay the stored response instead of re-running the
// handler. Checkout uses this so a network retry never double-charges.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/marketbay/api/internal/platform/kvstore"
)

// DefaultTTL bounds how long completed records are retained.
const DefaultTTL = 24 * time.Hour

// Status is the lifecycle state of a stored record.
type Status string

const (
	// StatusPending marks a key reserved by an in-flight request.
	StatusPending Status = "pending"
	// StatusCompleted marks a key whose response is stored for replay.
	StatusCompleted Status = "completed"
)

// ReservationState describes the outcome of reserving a key.
type ReservationState int

const (
	// ReservationNew means the caller holds the key and should proceed.
	ReservationNew ReservationState = iota
	// ReservationReplay means a stored response should be replayed.
	ReservationReplay
	// ReservationInFlight means another request holds the key right now.
	ReservationInFlight
)

// Reservation is the result of Reserve, carrying the record when one exists.
type Reservation struct {
	State  ReservationState
	Record Record
}

// Record is the persisted outcome for an idempotency key.
type Record struct {
	Key             string              `json:"key"`
	Fingerprint     string              `json:"fingerprint"`
	Status          Status              `json:"status"`
	ResponseStatus  int                 `json:"responseStatus,omitempty"`
	ResponseHeaders map[string][]string `json:"responseHeaders,omitempty"`
	ResponseBody    []byte              `json:"responseBody,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	ExpiresAt       time.Time           `json:"expiresAt"`
}

// Response is the HTTP outcome stored for future replays.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Store persists reservations and completed responses.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, key, fingerprint string) error
}

var (
	// ErrFingerprintMismatch is returned when a key is reused with a different request.
	ErrFingerprintMismatch = errors.New("idempotency: key reused for a different request")
	// ErrPersist is returned when the backing store rejects a write.
	ErrPersist = errors.New("idempotency: state could not be persisted")
)

const recordKeyPrefix = "idem_"

// KVStore keeps idempotency records in the shared key/value store so they
// survive restarts alongside carts and order history.
type KVStore struct {
	store *kvstore.Store
}

// NewKVStore constructs a store over the shared key/value backend.
func NewKVStore(store *kvstore.Store) (*KVStore, error) {
	if store == nil {
		return nil, errors.New("idempotency: kv store is required")
	}
	return &KVStore{store: store}, nil
}

func recordKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return recordKeyPrefix + hex.EncodeToString(sum[:])
}

// Reserve claims the key for the caller or reports what happened to it before.
func (s *KVStore) Reserve(_ context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	id := recordKey(key)
	record := kvstore.Read(s.store, id, Record{})

	expired := !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt)
	if record.Key == "" || expired {
		record = Record{
			Key:         key,
			Fingerprint: fingerprint,
			Status:      StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		}
		if !kvstore.Write(s.store, id, record) {
			return Reservation{}, ErrPersist
		}
		return Reservation{State: ReservationNew, Record: record}, nil
	}

	if record.Fingerprint != fingerprint {
		return Reservation{}, ErrFingerprintMismatch
	}
	if record.Status == StatusCompleted {
		return Reservation{State: ReservationReplay, Record: record}, nil
	}
	return Reservation{State: ReservationInFlight, Record: record}, nil
}

// SaveResponse marks the key completed and stores the response for replay.
func (s *KVStore) SaveResponse(_ context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	id := recordKey(key)
	record := kvstore.Read(s.store, id, Record{})
	if record.Key != "" && record.Fingerprint != fingerprint {
		return ErrFingerprintMismatch
	}
	if record.Key == "" {
		record = Record{Key: key, Fingerprint: fingerprint, CreatedAt: now}
	}

	record.Status = StatusCompleted
	record.ResponseStatus = resp.Status
	record.ResponseHeaders = sanitizeHeaders(resp.Headers)
	record.ResponseBody = nil
	if len(resp.Body) > 0 {
		record.ResponseBody = append([]byte(nil), resp.Body...)
	}
	record.UpdatedAt = now
	record.ExpiresAt = now.Add(ttl)

	if !kvstore.Write(s.store, id, record) {
		return ErrPersist
	}
	return nil
}

// Release drops the reservation so a later attempt may retry from scratch.
func (s *KVStore) Release(_ context.Context, key, _ string) error {
	if !s.store.Remove(recordKey(key)) {
		return fmt.Errorf("%w: release %s", ErrPersist, recordKey(key))
	}
	return nil
}

func sanitizeHeaders(header http.Header) map[string][]string {
	if len(header) == 0 {
		return nil
	}
	filtered := make(map[string][]string, len(header))
	for name, values := range header {
		canonical := http.CanonicalHeaderKey(name)
		if hopByHopHeader(canonical) {
			continue
		}
		copied := make([]string, len(values))
		copy(copied, values)
		filtered[canonical] = copied
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

func hopByHopHeader(name string) bool {
	switch strings.ToLower(name) {
	case "content-length", "date", "connection", "keep-alive",
		"proxy-authenticate", "proxy-authorization", "te", "trailers",
		"transfer-encoding", "upgrade":
		return true
	default:
		return false
	}
}

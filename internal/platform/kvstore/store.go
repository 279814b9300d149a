// Package kvstore provides a small namespaced key/value store used for
// carts, order history, and session state. Values are stored as JSON so
// the store survives process restarts when backed by the filesystem.
package kvstore

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Backend abstracts the raw byte storage underneath a Store.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}

// Store wraps a Backend with JSON serialisation and failure logging.
// All operations degrade gracefully: reads fall back to a caller-supplied
// default and writes report success or failure without returning errors.
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// New constructs a Store over the provided backend.
func New(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Read loads and decodes the value stored under key, returning def when the
// key is absent or the stored payload cannot be decoded.
func Read[T any](s *Store, key string, def T) T {
	if s == nil || s.backend == nil {
		return def
	}
	raw, ok, err := s.backend.Get(key)
	if err != nil {
		s.logger.Warn("kvstore: read failed", zap.String("key", key), zap.Error(err))
		return def
	}
	if !ok {
		return def
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Warn("kvstore: corrupt payload", zap.String("key", key), zap.Error(err))
		return def
	}
	return value
}

// Write encodes and stores the value under key, reporting whether the write
// was persisted.
func Write[T any](s *Store, key string, value T) bool {
	if s == nil || s.backend == nil {
		return false
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("kvstore: encode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := s.backend.Set(key, raw); err != nil {
		s.logger.Warn("kvstore: write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

const probeKey = "__probe__"

// Probe reports whether the backend is usable by writing and deleting a
// throwaway key.
func (s *Store) Probe() bool {
	if s == nil || s.backend == nil {
		return false
	}
	if err := s.backend.Set(probeKey, []byte("1")); err != nil {
		s.logger.Warn("kvstore: probe write failed", zap.Error(err))
		return false
	}
	if err := s.backend.Delete(probeKey); err != nil {
		s.logger.Warn("kvstore: probe delete failed", zap.Error(err))
		return false
	}
	return true
}

// Has reports whether a value exists under key.
func (s *Store) Has(key string) bool {
	if s == nil || s.backend == nil {
		return false
	}
	_, ok, err := s.backend.Get(key)
	if err != nil {
		s.logger.Warn("kvstore: probe failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

// Remove deletes the value stored under key.
func (s *Store) Remove(key string) bool {
	if s == nil || s.backend == nil {
		return false
	}
	if err := s.backend.Delete(key); err != nil {
		s.logger.Warn("kvstore: delete failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Clear removes every value in the store.
func (s *Store) Clear() bool {
	if s == nil || s.backend == nil {
		return false
	}
	if err := s.backend.Clear(); err != nil {
		s.logger.Warn("kvstore: clear failed", zap.Error(err))
		return false
	}
	return true
}

// Package nonce provides a self-expiring, consume-once key-value store. It
// backs short-lived secrets that must be presented back exactly once: login
// captcha answers and password reset tokens.
package nonce

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store holds values with a per-entry TTL. Get consumes: a value can be read
// at most once, and never after its deadline. Expired entries that are never
// asked for again are removed by Sweep.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	logger  *slog.Logger
}

type entry struct {
	value     string
	expiresAt time.Time
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put inserts a value with a TTL, replacing any previous value for the key.
func (s *Store) Put(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Consume returns the value for key and invalidates it. The second return is
// false when the key is absent, already consumed, or expired; expiry is
// checked lazily here, not only by the sweep.
func (s *Store) Consume(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	delete(s.entries, key)
	if time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

// Len reports the number of live and not-yet-swept entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	swept := 0
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			swept++
		}
	}
	return swept
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled. The
// store works correctly without it; the sweeper only bounds memory held by
// keys that are never consumed.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if swept := s.Sweep(); swept > 0 {
				s.logger.Debug("nonce sweep completed", "entries_swept", swept)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

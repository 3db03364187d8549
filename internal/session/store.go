package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/printdesk/backend-print/internal/checkout"
	"github.com/printdesk/backend-print/internal/document"
	"github.com/printdesk/backend-print/internal/events"
	"github.com/printdesk/backend-print/internal/obs"
	"github.com/printdesk/backend-print/internal/order"
	"github.com/printdesk/backend-print/internal/pricing"
)

// ErrNotFound indicates the requested session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session owns the per-browser-session composition: one document registry,
// one order aggregator subscribed to it, and one checkout bridge. Nothing in
// it survives expiry.
type Session struct {
	ID         uuid.UUID
	Registry   *document.Registry
	Aggregator *order.Aggregator
	Bridge     *checkout.Bridge
	CreatedAt  time.Time

	expiresAt time.Time
}

// Store keeps live sessions in memory with touch-on-access TTL semantics.
type Store struct {
	TTL      time.Duration
	Policy   pricing.Policy
	Validate *validator.Validate
	Events   *events.Bus
	Now      func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewStore constructs an empty session store.
func NewStore(ttl time.Duration, policy pricing.Policy, validate *validator.Validate, bus *events.Bus) *Store {
	return &Store{
		TTL:      ttl,
		Policy:   policy,
		Validate: validate,
		Events:   bus,
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 30 * time.Minute
	}
	return s.TTL
}

func (s *Store) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Ensure loads the session with the given id, creating a fresh one under
// that id when absent or expired. Access extends the TTL.
func (s *Store) Ensure(id uuid.UUID) (*Session, bool) {
	if s == nil {
		return nil, false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok && sess.expiresAt.After(now) {
		sess.expiresAt = now.Add(s.ttl())
		return sess, false
	}
	sess := s.buildLocked(id, now)
	return sess, true
}

// Create opens a fresh session under a new id.
func (s *Store) Create() *Session {
	if s == nil {
		return nil
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildLocked(uuid.New(), now)
}

// Get returns the live session with the given id, extending its TTL.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	if s == nil {
		return nil, errors.New("session store not configured")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || !sess.expiresAt.After(now) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	sess.expiresAt = now.Add(s.ttl())
	return sess, nil
}

// ExpiresAt reports the session's current expiry.
func (s *Store) ExpiresAt(id uuid.UUID) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return time.Time{}, false
	}
	return sess.expiresAt, true
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SessionCount implements the readiness checker.
func (s *Store) SessionCount() int {
	return s.Len()
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	if s == nil {
		return 0
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if !sess.expiresAt.After(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.gaugeLocked()
	return removed
}

// StartJanitor sweeps expired sessions on the given interval until ctx ends.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if s == nil {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *Store) buildLocked(id uuid.UUID, now time.Time) *Session {
	registry := document.NewRegistry(s.Validate)
	aggregator := order.NewAggregator(s.Policy)
	registry.Subscribe(aggregator)
	sess := &Session{
		ID:         id,
		Registry:   registry,
		Aggregator: aggregator,
		Bridge:     checkout.NewBridge(s.Events),
		CreatedAt:  now,
		expiresAt:  now.Add(s.ttl()),
	}
	s.sessions[id] = sess
	s.gaugeLocked()
	return sess
}

func (s *Store) gaugeLocked() {
	if obs.SessionsActive != nil {
		obs.SessionsActive.Set(float64(len(s.sessions)))
	}
}

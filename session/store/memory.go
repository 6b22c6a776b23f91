package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/sweetpotato0/krishimitra/errors"
	"github.com/sweetpotato0/krishimitra/session"
)

var _ session.Store = (*InMemoryStore)(nil)

// sweepInterval is the least time between two scans for expired records.
const sweepInterval = time.Minute

type entry struct {
	record    *session.Record
	expiresAt time.Time
}

// InMemoryStore implements session storage in process memory. Records
// expire ttl after their last save; a zero ttl keeps them forever.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time

	lastSweep time.Time
}

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Save saves a session to the store
func (s *InMemoryStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil: %w", apperrors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{record: record.Clone()}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[record.ID] = e
	s.maybeSweepLocked()
	return nil
}

// Load loads a session from the store
func (s *InMemoryStore) Load(ctx context.Context, id string) (*session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok || s.expired(e) {
		return nil, fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
	}
	return e.record.Clone(), nil
}

// Delete removes a session from the store. Deleting an unknown session is
// not an error.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Exists checks if a live session exists in the store
func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return ok && !s.expired(e), nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close drops every record.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]entry)
	return nil
}

func (s *InMemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

// maybeSweepLocked drops expired records, scanning at most once per
// sweepInterval. Expired records still present are invisible to Load and
// Exists. Callers hold the write lock.
func (s *InMemoryStore) maybeSweepLocked() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	if !s.lastSweep.IsZero() && now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
		}
	}
}

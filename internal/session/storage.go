package session

import (
	"context"
	"sync"
	"time"

	"biasev/domain/dataset"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// entry is one session's state
type entry struct {
	table    *dataset.Table
	lastSeen time.Time
}

// MemoryStore keeps one uploaded table per session in memory. Sessions idle
// for longer than the TTL are evicted on the next write or sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewMemoryStore creates an empty store
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.Named("session"),
	}
}

// NewID returns a fresh session identifier
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidID reports whether s looks like an identifier produced by NewID
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Dataset returns the session's table, or nil
func (s *MemoryStore) Dataset(sessionID string) *dataset.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e) {
		return nil
	}
	return e.table
}

// Replace installs a table for the session, dropping whatever was there
func (s *MemoryStore) Replace(sessionID string, table *dataset.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	s.sessions[sessionID] = &entry{table: table, lastSeen: s.now()}
	s.logger.Debug("Dataset replaced",
		zap.String("session", sessionID),
		zap.Int("rows", table.NumRows()),
		zap.Int("active_sessions", len(s.sessions)))
}

// Clear removes the session's table
func (s *MemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Touch refreshes the session's idle timer
func (s *MemoryStore) Touch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[sessionID]; ok && !s.expired(e) {
		e.lastSeen = s.now()
	}
}

// Len returns the number of live sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.sessions {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

// Sweep evicts expired sessions and returns how many were removed
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.sessions)
	s.evictExpiredLocked()
	return before - len(s.sessions)
}

// RunJanitor sweeps expired sessions every interval until ctx is cancelled
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) error {
	if s.ttl <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (s *MemoryStore) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}

func (s *MemoryStore) evictExpiredLocked() {
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
			s.logger.Debug("Session expired", zap.String("session", id))
		}
	}
}

package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxSessions bounds the registry unless SetMaxSessions overrides it.
const DefaultMaxSessions = 1000

// SessionRegistry holds one Orchestrator per client session. Sessions are
// created on demand and evicted after ttl without access. Once maxSessions
// are live, creating another evicts the least recently used idle session.
type SessionRegistry struct {
	mu          sync.RWMutex
	sessions    map[string]*sessionEntry
	factory     func() *Orchestrator
	ttl         time.Duration
	maxSessions int
	logger      zerolog.Logger
	now         func() time.Time
}

type sessionEntry struct {
	orch     *Orchestrator
	lastSeen time.Time
}

// NewSessionRegistry creates a registry that builds orchestrators with factory.
func NewSessionRegistry(factory func() *Orchestrator, ttl time.Duration, logger zerolog.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[string]*sessionEntry),
		factory:     factory,
		ttl:         ttl,
		maxSessions: DefaultMaxSessions,
		logger:      logger,
		now:         time.Now,
	}
}

// SetMaxSessions changes the session cap. n <= 0 removes it.
func (r *SessionRegistry) SetMaxSessions(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxSessions = n
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id has the shape produced by NewSessionID.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the orchestrator for id, creating it if needed, and marks the
// session as used.
func (r *SessionRegistry) Get(id string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
			r.evictOldestLocked()
		}
		entry = &sessionEntry{orch: r.factory()}
		r.sessions[id] = entry
		r.logger.Debug().Str("session", id).Msg("session created")
	}
	entry.lastSeen = r.now()
	return entry.orch
}

// evictOldestLocked drops the least recently used session that has no
// translation in flight. When every session is translating none is dropped
// and the registry briefly exceeds its cap.
func (r *SessionRegistry) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, entry := range r.sessions {
		if entry.orch.State().IsTranslating {
			continue
		}
		if oldestID == "" || entry.lastSeen.Before(oldest) {
			oldestID, oldest = id, entry.lastSeen
		}
	}
	if oldestID == "" {
		r.logger.Warn().Int("sessions", len(r.sessions)).Msg("session cap reached with every session translating")
		return
	}
	delete(r.sessions, oldestID)
	r.logger.Debug().Str("session", oldestID).Msg("session evicted at capacity")
}

// Lookup returns the orchestrator for id without creating one.
func (r *SessionRegistry) Lookup(id string) (*Orchestrator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return entry.orch, true
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the ttl. Sessions with a
// translation in flight are kept. It returns the number evicted.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	evicted := 0
	for id, entry := range r.sessions {
		if entry.lastSeen.After(cutoff) || entry.orch.State().IsTranslating {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	if evicted > 0 {
		r.logger.Info().Int("evicted", evicted).Int("remaining", len(r.sessions)).Msg("idle sessions swept")
	}
	return evicted
}

// Run sweeps on the given interval until ctx is canceled.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("session sweeper stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Wait blocks until every session's in-flight translations have finished.
func (r *SessionRegistry) Wait() {
	r.mu.RLock()
	orchs := make([]*Orchestrator, 0, len(r.sessions))
	for _, entry := range r.sessions {
		orchs = append(orchs, entry.orch)
	}
	r.mu.RUnlock()

	for _, o := range orchs {
		o.Wait()
	}
}

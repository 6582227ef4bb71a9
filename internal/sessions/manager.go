// Package sessions keeps live wizard sessions addressable by ID and discards
// the ones that have been idle too long.
package sessions

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rendis/vetassist/internal/diagnosis"
	"github.com/rendis/vetassist/internal/logging"
	"github.com/rendis/vetassist/internal/wizard"
	"github.com/rendis/vetassist/pkg/schema"
)

// DefaultTTL is how long a session may stay idle before the sweeper discards it.
const DefaultTTL = 30 * time.Minute

// Config configures a Manager.
type Config struct {
	Engine  diagnosis.Engine
	Options []wizard.Option // applied to every new session
	TTL     time.Duration   // <= 0 means DefaultTTL
	Logger  *slog.Logger
	Now     func() time.Time
}

// Manager owns the set of live sessions. Safe for concurrent use.
type Manager struct {
	engine diagnosis.Engine
	opts   []wizard.Option
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*wizard.Session
}

// NewManager creates an empty Manager.
func NewManager(cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		engine:   cfg.Engine,
		opts:     append([]wizard.Option(nil), cfg.Options...),
		ttl:      cfg.TTL,
		logger:   cfg.Logger,
		now:      cfg.Now,
		sessions: make(map[string]*wizard.Session),
	}
}

// TTL returns the idle timeout.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a new session. Extra options are applied after the manager's.
func (m *Manager) Create(opts ...wizard.Option) *wizard.Session {
	all := make([]wizard.Option, 0, len(m.opts)+len(opts)+2)
	all = append(all, wizard.WithClock(m.now), wizard.WithLogger(m.logger))
	all = append(all, m.opts...)
	all = append(all, opts...)

	s := wizard.NewSession(m.engine, all...)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created", slog.String("session_id", s.ID()), slog.Int("live", n))
	return s
}

// Get returns the live session with the given ID.
func (m *Manager) Get(id string) (*wizard.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "session %q not found", id)
	}
	return s, nil
}

// List returns snapshots of every live session ordered by ID.
func (m *Manager) List() []wizard.Snapshot {
	m.mu.RLock()
	live := make([]*wizard.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.RUnlock()

	out := make([]wizard.Snapshot, len(live))
	for i, s := range live {
		out[i] = s.Snapshot()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Discard cancels any analysis of the session and forgets it.
func (m *Manager) Discard(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "session %q not found", id)
	}

	s.Close()
	m.logger.Info("session discarded", slog.String("session_id", id))
	return nil
}

// Sweep discards every session idle for longer than the TTL and returns their IDs.
func (m *Manager) Sweep(ctx context.Context) []string {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*wizard.Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, len(expired))
	for i, s := range expired {
		s.Close()
		ids[i] = s.ID()
	}
	sort.Strings(ids)

	if len(ids) > 0 {
		m.logger.InfoContext(ctx, "swept idle sessions", slog.Int("count", len(ids)), slog.Duration("ttl", m.ttl))
	}
	return ids
}

// CloseAll discards every live session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	live := m.sessions
	m.sessions = make(map[string]*wizard.Session)
	m.mu.Unlock()

	for _, s := range live {
		s.Close()
	}
}

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"inkline/utils"
)

// Dialer creates the backend client for a new or resumed session.
type Dialer func() (Backend, error)

type managed struct {
	s        *Session
	lastSeen time.Time
}

// Manager owns the sessions of this process. Idle sessions are dropped from
// memory after ttl; their credentials stay in the store until they expire
// there too.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managed
	dial     Dialer
	store    CredentialStore
	ttl      time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewManager(dial Dialer, store CredentialStore, ttl time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*managed),
		dial:     dial,
		store:    store,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Create starts an anonymous session.
func (m *Manager) Create() (*Session, error) {
	api, err := m.dial()
	if err != nil {
		return nil, err
	}
	s := New(utils.GenerateUUID(), api, WithLogger(m.log))
	m.mu.Lock()
	m.sessions[s.ID] = &managed{s: s, lastSeen: m.now()}
	m.mu.Unlock()
	sessionsActive.Inc()
	return s, nil
}

// Get returns session id, resuming it from the credential store if this
// process no longer holds it.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = m.now()
		m.mu.Unlock()
		return e.s, nil
	}
	m.mu.Unlock()

	cookies, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	api, err := m.dial()
	if err != nil {
		return nil, err
	}
	api.SetCookies(cookies)
	s := New(id, api, WithLogger(m.log))
	if _, err := s.Bootstrap(ctx); err != nil {
		m.log.Warn("resumed session without viewer", "session", id, "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		// resumed concurrently by another request
		e.lastSeen = m.now()
		return e.s, nil
	}
	m.sessions[id] = &managed{s: s, lastSeen: m.now()}
	sessionsActive.Inc()
	m.log.Info("session resumed", "session", id, "signed_in", s.Viewer() != nil)
	return s, nil
}

// Persist saves the session's backend credentials.
func (m *Manager) Persist(ctx context.Context, s *Session) error {
	return m.store.Save(ctx, s.ID, s.Credentials(), m.ttl)
}

// Remove forgets session id and its stored backend credentials.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		sessionsActive.Dec()
	}
	m.mu.Unlock()
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	return nil
}

// Sweep drops sessions idle for longer than the ttl and returns their ids.
func (m *Manager) Sweep() []string {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	var dropped []string
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			dropped = append(dropped, id)
		}
	}
	sessionsActive.Sub(float64(len(dropped)))
	return dropped
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := m.Sweep()
			for _, id := range dropped {
				if err := m.Remove(ctx, id); err != nil {
					m.log.Warn("drop stored credentials", "session", id, "error", err)
				}
			}
			if len(dropped) > 0 {
				m.log.Debug("idle sessions dropped", "count", len(dropped))
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

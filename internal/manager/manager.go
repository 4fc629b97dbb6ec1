// Package manager implements a ttl-keyed pool of live Sessions indexed by
// conversation id, grounded 1:1 on original_source/kaml/src/manager.rs.
package manager

import (
	"sync"
	"time"

	"github.com/lashdev/lash/internal/session"
)

type managedSession struct {
	session *session.Session
	timer   *time.Timer
}

// Manager pools Sessions across requests that share a conversation id,
// dropping idle ones after idleTimeout.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*managedSession
	idleTimeout time.Duration
}

// New returns a Manager whose idle Sessions are dropped after idleTimeout.
func New(idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*managedSession),
		idleTimeout: idleTimeout,
	}
}

// Take removes and returns the live Session for id, cancelling its idle
// timer. Returns nil, false if no live Session is pooled under id.
func (m *Manager) Take(id string) (*session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	delete(m.sessions, id)
	if ms.timer != nil {
		ms.timer.Stop()
	}
	return ms.session, true
}

// Put re-inserts sess under id and starts an idle timer that drops it
// after idleTimeout. take/put calls must bracket each run.
func (m *Manager) Put(id string, sess *session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer := time.AfterFunc(m.idleTimeout, func() {
		m.mu.Lock()
		ms, ok := m.sessions[id]
		if ok {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		if ok {
			ms.session.Close()
		}
	})

	m.sessions[id] = &managedSession{session: sess, timer: timer}
}

// Destroy eagerly removes and closes the Session pooled under id, if any.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if ok {
		if ms.timer != nil {
			ms.timer.Stop()
		}
		ms.session.Close()
	}
}

// Len reports the number of currently pooled Sessions, for tests/metrics.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

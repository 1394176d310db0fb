package reconcile

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

// SessionStore holds sessions in memory and expires them after a TTL of inactivity.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

func NewSessionStore(ttl time.Duration, logger *slog.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Create registers a new Idle session for userID.
func (st *SessionStore) Create(userID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()

	now := st.now()
	s := NewSession(uuid.New().String(), userID, now)
	st.sessions[s.ID] = &entry{session: s, lastSeen: now}
	return s
}

// Get returns the session if it exists, has not expired and belongs to userID.
func (st *SessionStore) Get(id, userID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()

	e, ok := st.sessions[id]
	if !ok || e.session.UserID != userID {
		return nil, common.ErrNotFound
	}
	e.lastSeen = st.now()
	return e.session, nil
}

// Delete removes a session. Sessions that are mid-commit are kept.
func (st *SessionStore) Delete(id, userID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok || e.session.UserID != userID {
		return common.ErrNotFound
	}
	if err := e.session.Reset(); err != nil {
		return err
	}
	delete(st.sessions, id)
	return nil
}

// Len reports the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	return len(st.sessions)
}

func (st *SessionStore) sweepLocked() {
	cutoff := st.now().Add(-st.ttl)
	for id, e := range st.sessions {
		if e.lastSeen.Before(cutoff) && e.session.State() != constants.ImportCommitting {
			delete(st.sessions, id)
			st.logger.Debug("reconcile.session.expired", "session_id", id)
		}
	}
}

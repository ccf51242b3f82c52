package game

import (
	"sync"

	"github.com/triviad/quizgame/internal/domain"
)

// Store owns every live game session. Sessions exist only in process memory;
// a restart discards them. Each id maps to exactly one session for the life
// of the process and mutations to one session are serialized, while sessions
// with different ids never block each other.
type Store struct {
	mu       sync.RWMutex
	nextID   int
	sessions map[int]*sessionEntry
}

type sessionEntry struct {
	mu sync.Mutex
	s  domain.GameSession
}

func NewStore() *Store {
	return &Store{sessions: make(map[int]*sessionEntry)}
}

// Create registers the session and assigns the next monotonically increasing
// id. It returns a snapshot of the stored session.
func (st *Store) Create(s domain.GameSession) domain.GameSession {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.nextID++
	s.ID = st.nextID
	st.sessions[s.ID] = &sessionEntry{s: s}

	return s.Clone()
}

// Get returns a snapshot of the session, or domain.ErrSessionNotFound.
func (st *Store) Get(id int) (domain.GameSession, error) {
	e, err := st.lookup(id)
	if err != nil {
		return domain.GameSession{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Clone(), nil
}

// Mutate applies fn to the session under its lock and returns the updated
// snapshot. fn receives a working copy; the copy replaces the stored session
// only when fn returns nil, so a failed mutation leaves the session exactly
// as it was.
func (st *Store) Mutate(id int, fn func(*domain.GameSession) error) (domain.GameSession, error) {
	e, err := st.lookup(id)
	if err != nil {
		return domain.GameSession{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.s.Clone()
	if err := fn(&draft); err != nil {
		return domain.GameSession{}, err
	}

	e.s = draft
	return draft.Clone(), nil
}

func (st *Store) lookup(id int) (*sessionEntry, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	e, ok := st.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return e, nil
}

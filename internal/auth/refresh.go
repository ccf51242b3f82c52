package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRefreshTokenInvalid is returned for unknown, revoked, or expired refresh
// tokens.
var ErrRefreshTokenInvalid = errors.New("invalid or expired refresh token")

const defaultRefreshTTL = 7 * 24 * time.Hour

// RefreshToken is a long-lived opaque credential bound to one player.
type RefreshToken struct {
	Token     string
	PlayerID  int
	ExpiresAt time.Time
	Revoked   bool
}

// RefreshStore keeps issued refresh tokens in process memory; a restart
// invalidates them all, which just forces a fresh login.
type RefreshStore struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func NewRefreshStore(ttl time.Duration) *RefreshStore {
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	return &RefreshStore{
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]*RefreshToken),
	}
}

// Issue creates and records a refresh token for the player.
func (s *RefreshStore) Issue(playerID int) RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &RefreshToken{
		Token:     uuid.NewString(),
		PlayerID:  playerID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.tokens[t.Token] = t
	return *t
}

// Validate returns the token record if it is known, unrevoked, and unexpired.
func (s *RefreshStore) Validate(token string) (RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok || t.Revoked || !t.ExpiresAt.After(s.now()) {
		return RefreshToken{}, ErrRefreshTokenInvalid
	}
	return *t, nil
}

// Revoke marks the token unusable. Revoking an unknown token is a no-op.
func (s *RefreshStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[token]; ok {
		t.Revoked = true
	}
}

package player

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/triviad/quizgame/internal/domain"
)

// ErrInvalidCredentials is returned when the username is unknown or the
// password does not match.
var ErrInvalidCredentials = errors.New("invalid username or password")

type Config struct {
	Repository Repository
	NowFunc    func() time.Time
}

// Service covers the CRUD-ish player operations: listing, lookup, and
// credential verification for login.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{repo: c.Repository, now: c.NowFunc}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// List returns every player aggregate in id order.
func (s *Service) List(ctx context.Context) ([]domain.Player, error) {
	slog.InfoContext(ctx, "player: fetching all players")
	return s.repo.GetAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int) (domain.Player, error) {
	return s.repo.GetByID(ctx, id)
}

// Login verifies the credentials and stamps the login time. Token issuance is
// the caller's concern.
func (s *Service) Login(ctx context.Context, username, password string) (domain.Player, error) {
	p, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.Player{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.Player{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "player: failed login attempt", "username", username)
		return domain.Player{}, ErrInvalidCredentials
	}

	now := s.now()
	err = s.repo.UpdateFunc(ctx, p.ID, func(rec *domain.Player) error {
		rec.LastLoginAt = &now
		p = *rec
		return nil
	})
	if err != nil {
		return domain.Player{}, err
	}

	slog.InfoContext(ctx, "player: login", "player_id", p.ID, "username", p.Username)
	return p, nil
}

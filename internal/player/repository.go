package player

import (
	"context"

	"github.com/triviad/quizgame/internal/domain"
)

// Repository is the player aggregate collection. Writes go through the
// closure-taking methods so every read-modify-write runs under the
// collection's write lock: UpdateFunc for one player, UpdateAll for a full
// pass such as the rank recompute. No other writer can interleave while
// either closure runs.
type Repository interface {
	GetByID(ctx context.Context, id int) (domain.Player, error)
	GetByUsername(ctx context.Context, username string) (domain.Player, error)
	GetAll(ctx context.Context) ([]domain.Player, error)
	UpdateFunc(ctx context.Context, id int, fn func(p *domain.Player) error) error
	UpdateAll(ctx context.Context, fn func(players []domain.Player) ([]domain.Player, error)) error
}

package question

import (
	"context"

	"github.com/triviad/quizgame/internal/domain"
)

// Repository supplies the authoritative question catalog: the full pool, no
// filtering, no pagination.
type Repository interface {
	GetAll(ctx context.Context) ([]domain.Question, error)
}

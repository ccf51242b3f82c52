package question

import (
	"context"
	"log/slog"

	"github.com/triviad/quizgame/internal/domain"
)

type Config struct {
	Repository Repository
}

// Service exposes read-only catalog queries.
type Service struct {
	repo Repository
}

func NewService(c Config) *Service {
	return &Service{repo: c.Repository}
}

// List returns every question in the catalog.
func (s *Service) List(ctx context.Context) ([]domain.Question, error) {
	questions, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "question: fetched catalog", "count", len(questions))
	return questions, nil
}

package question

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triviad/quizgame/internal/domain"
)

// PostgresRepository serves the question catalog from postgres. Selected over
// the file repository when a database is configured.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]domain.Question, error) {
	const questionStmt = `
SELECT question_id, text, category, difficulty, points, correct_answer_id
FROM questions
ORDER BY question_id;`

	rows, err := r.db.Query(ctx, questionStmt)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}

	questions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Question, error) {
		var q domain.Question
		var difficulty string
		if err := row.Scan(&q.ID, &q.Text, &q.Category, &difficulty, &q.Points, &q.CorrectAnswerID); err != nil {
			return domain.Question{}, err
		}
		q.Difficulty = domain.Difficulty(difficulty)
		return q, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect questions: %w", err)
	}

	const answerStmt = `
SELECT question_id, answer_id, text
FROM answers
ORDER BY question_id, answer_id;`

	rows, err = r.db.Query(ctx, answerStmt)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}

	type answerRow struct {
		questionID int
		answer     domain.Answer
	}
	answers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (answerRow, error) {
		var a answerRow
		if err := row.Scan(&a.questionID, &a.answer.ID, &a.answer.Text); err != nil {
			return answerRow{}, err
		}
		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect answers: %w", err)
	}

	byQuestion := make(map[int][]domain.Answer, len(questions))
	for _, a := range answers {
		byQuestion[a.questionID] = append(byQuestion[a.questionID], a.answer)
	}
	for i := range questions {
		questions[i].Answers = byQuestion[questions[i].ID]
	}

	return questions, nil
}

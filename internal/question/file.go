package question

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/triviad/quizgame/internal/domain"
)

// FileRepository reads the question catalog from a JSON file. The file is
// re-read on every call, so edits to it show up on the next draw or
// evaluation without a restart.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

type questionRecord struct {
	ID              int            `json:"id"`
	Text            string         `json:"text"`
	Category        string         `json:"category"`
	Difficulty      string         `json:"difficulty"`
	Points          int            `json:"points"`
	Answers         []answerRecord `json:"answers"`
	CorrectAnswerID int            `json:"correctAnswerId"`
}

type answerRecord struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func (r *FileRepository) GetAll(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read question file %s: %w", r.path, err)
	}

	var records []questionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse question file %s: %w", r.path, err)
	}

	questions := make([]domain.Question, 0, len(records))
	for _, rec := range records {
		answers := make([]domain.Answer, 0, len(rec.Answers))
		for _, a := range rec.Answers {
			answers = append(answers, domain.Answer{ID: a.ID, Text: a.Text})
		}

		questions = append(questions, domain.Question{
			ID:              rec.ID,
			Text:            rec.Text,
			Category:        rec.Category,
			Difficulty:      domain.Difficulty(rec.Difficulty),
			Points:          rec.Points,
			Answers:         answers,
			CorrectAnswerID: rec.CorrectAnswerID,
		})
	}

	return questions, nil
}

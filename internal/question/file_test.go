package question_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/triviad/quizgame/internal/domain"
	"github.com/triviad/quizgame/internal/question"
)

const questionsFixture = `[
  {
    "id": 1,
    "text": "What is the capital of France?",
    "category": "Geography",
    "difficulty": "Easy",
    "points": 10,
    "answers": [
      {"id": 1, "text": "Paris"},
      {"id": 2, "text": "Lyon"}
    ],
    "correctAnswerId": 1
  },
  {
    "id": 2,
    "text": "Which planet is known as the Red Planet?",
    "category": "Science",
    "difficulty": "medium",
    "points": 20,
    "answers": [
      {"id": 1, "text": "Venus"},
      {"id": 2, "text": "Mars"}
    ],
    "correctAnswerId": 2
  }
]`

func writeQuestionsFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileRepository_GetAll(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions.json")
	writeQuestionsFile(t, path, questionsFixture)

	repo := question.NewFileRepository(path)

	questions, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 2)

	first := questions[0]
	require.Equal(t, 1, first.ID)
	require.Equal(t, "What is the capital of France?", first.Text)
	require.Equal(t, "Geography", first.Category)
	require.Equal(t, domain.DifficultyEasy, first.Difficulty)
	require.Equal(t, 10, first.Points)
	require.Equal(t, 1, first.CorrectAnswerID)
	require.Equal(t, []domain.Answer{{ID: 1, Text: "Paris"}, {ID: 2, Text: "Lyon"}}, first.Answers)

	// Difficulty casing passes through untouched; matching happens at draw time.
	require.Equal(t, domain.Difficulty("medium"), questions[1].Difficulty)
}

func TestFileRepository_RereadsFileEveryCall(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions.json")
	writeQuestionsFile(t, path, questionsFixture)

	repo := question.NewFileRepository(path)

	questions, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 2)

	writeQuestionsFile(t, path, `[]`)

	questions, err = repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, questions)
}

func TestFileRepository_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	repo := question.NewFileRepository(filepath.Join(t.TempDir(), "absent.json"))

	questions, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, questions)
}

func TestFileRepository_MalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions.json")
	writeQuestionsFile(t, path, `{"oops"`)

	repo := question.NewFileRepository(path)

	_, err := repo.GetAll(context.Background())
	require.Error(t, err)
}

func TestService_List(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions.json")
	writeQuestionsFile(t, path, questionsFixture)

	svc := question.NewService(question.Config{Repository: question.NewFileRepository(path)})

	questions, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 2)
}

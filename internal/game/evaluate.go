package game

import "github.com/triviad/quizgame/internal/domain"

// evaluateAnswer compares a submission against the authoritative question
// data: correct iff the submitted answer id equals the catalog's correct
// answer id, awarding the question's configured points. Pure, no side effects.
func evaluateAnswer(pool []domain.Question, questionID, answerID int) (isCorrect bool, points int, err error) {
	for _, q := range pool {
		if q.ID != questionID {
			continue
		}

		if answerID == q.CorrectAnswerID {
			return true, q.Points, nil
		}
		return false, 0, nil
	}

	return false, 0, domain.ErrQuestionNotFound
}

package domain

import "errors"

var (
	// ErrInsufficientQuestions means the pool cannot satisfy the stratified draw.
	ErrInsufficientQuestions = errors.New("not enough questions to start game")
	// ErrSessionNotFound is returned for an unknown game session id.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionNotActive is returned when mutating a Completed or Abandoned session.
	ErrSessionNotActive = errors.New("game session is not active")
	// ErrQuestionNotInSession is returned when the question id is not part of the session's set.
	ErrQuestionNotInSession = errors.New("question not found in this session")
	// ErrQuestionAlreadyAnswered is returned on a duplicate submission for a question.
	ErrQuestionAlreadyAnswered = errors.New("question has already been answered")
	// ErrQuestionNotFound means the question id is absent from the catalog.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrPlayerNotFound means the player aggregate could not be located.
	ErrPlayerNotFound = errors.New("player not found")
)

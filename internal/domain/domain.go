package domain

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Question is one entry of the authoritative question catalog. The catalog
// guarantees that CorrectAnswerID references one of Answers.
type Question struct {
	ID              int
	Text            string
	Category        string
	Difficulty      Difficulty
	Points          int
	Answers         []Answer
	CorrectAnswerID int
}

type Answer struct {
	ID   int
	Text string
}

// Player is the aggregate record for one registered player.
type Player struct {
	ID           int
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	TotalScore   int
	GamesPlayed  int
	GamesWon     int
	CurrentRank  int
	Level        int
}

type SessionStatus string

const (
	StatusInProgress SessionStatus = "InProgress"
	StatusCompleted  SessionStatus = "Completed"
	// StatusAbandoned is a reserved terminal state; no transition reaches it yet.
	StatusAbandoned SessionStatus = "Abandoned"
)

// GameQuestion tracks one question within a session. Once TimeTaken is
// recorded the entry counts as answered and must not change again.
type GameQuestion struct {
	QuestionID        int
	QuestionStartTime time.Time
	SelectedAnswerID  *int
	IsCorrect         bool
	TimeTaken         *time.Duration
}

func (q GameQuestion) Answered() bool {
	return q.TimeTaken != nil
}

// GameSession is one timed attempt by a player at a fixed set of questions.
// The question set is chosen at creation and never changes afterwards.
type GameSession struct {
	ID               int
	PlayerID         int
	StartTime        time.Time
	EndTime          *time.Time
	Score            int
	Status           SessionStatus
	TotalQuestions   int
	TimeLimitSeconds int
	Questions        []GameQuestion
}

// QuestionIDs returns the session's question ids in draw order.
func (s GameSession) QuestionIDs() []int {
	ids := make([]int, 0, len(s.Questions))
	for _, q := range s.Questions {
		ids = append(ids, q.QuestionID)
	}
	return ids
}

// Clone returns a deep copy, so callers can hold a snapshot without aliasing
// the stored session.
func (s GameSession) Clone() GameSession {
	c := s
	if s.EndTime != nil {
		end := *s.EndTime
		c.EndTime = &end
	}
	c.Questions = make([]GameQuestion, len(s.Questions))
	for i, q := range s.Questions {
		cq := q
		if q.SelectedAnswerID != nil {
			sel := *q.SelectedAnswerID
			cq.SelectedAnswerID = &sel
		}
		if q.TimeTaken != nil {
			taken := *q.TimeTaken
			cq.TimeTaken = &taken
		}
		c.Questions[i] = cq
	}
	return c
}

// Leaderboard is the ordered scoreboard over all players, rank 1 first.
type Leaderboard struct {
	Entries   []LeaderboardEntry
	UpdatedAt time.Time
}

type LeaderboardEntry struct {
	Rank       int
	Username   string
	TotalScore int
}

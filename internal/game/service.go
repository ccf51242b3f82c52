package game

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/triviad/quizgame/internal/domain"
	"github.com/triviad/quizgame/internal/event"
	"github.com/triviad/quizgame/internal/player"
	"github.com/triviad/quizgame/internal/telemetry"
)

const sessionTimeLimitSeconds = 10

// QuestionPool supplies the full current question catalog on demand.
type QuestionPool interface {
	GetAll(ctx context.Context) ([]domain.Question, error)
}

// PlayerAggregates writes player aggregate records. UpdateFunc must apply fn
// as one atomic read-modify-write under the collection's write lock.
type PlayerAggregates interface {
	UpdateFunc(ctx context.Context, id int, fn func(p *domain.Player) error) error
}

// Ranker recomputes every player's leaderboard position.
type Ranker interface {
	Recalculate(ctx context.Context) error
}

type Config struct {
	Pool     QuestionPool
	Players  PlayerAggregates
	Ranker   Ranker
	EventBus *event.Bus
	Selector *Selector
	Store    *Store
	NowFunc  func() time.Time
}

// Service drives a session through its lifecycle: start, answer, complete.
type Service struct {
	pool     QuestionPool
	players  PlayerAggregates
	ranker   Ranker
	eb       *event.Bus
	selector *Selector
	store    *Store
	now      func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		pool:     c.Pool,
		players:  c.Players,
		ranker:   c.Ranker,
		eb:       c.EventBus,
		selector: c.Selector,
		store:    c.Store,
		now:      c.NowFunc,
	}

	if s.selector == nil {
		s.selector = NewSelector(nil)
	}
	if s.store == nil {
		s.store = NewStore()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

type StartSessionRequest struct {
	PlayerID int
}

type StartSessionResponse struct {
	SessionID        int
	PlayerID         int
	StartTime        time.Time
	TotalQuestions   int
	TimeLimitSeconds int
	QuestionIDs      []int
}

// StartSession draws the stratified question set and creates a new InProgress
// session for the player. The response carries the selected question ids but
// never the correct answers.
func (s *Service) StartSession(ctx context.Context, req StartSessionRequest) (*StartSessionResponse, error) {
	slog.InfoContext(ctx, "game: starting new session", "player_id", req.PlayerID)

	pool, err := s.pool.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}

	ids, err := s.selector.Select(pool)
	if err != nil {
		slog.WarnContext(ctx, "game: cannot satisfy stratified draw", "pool_size", len(pool))
		return nil, err
	}

	now := s.now()
	questions := make([]domain.GameQuestion, 0, len(ids))
	for _, id := range ids {
		questions = append(questions, domain.GameQuestion{
			QuestionID:        id,
			QuestionStartTime: now,
		})
	}

	ss := s.store.Create(domain.GameSession{
		PlayerID:         req.PlayerID,
		StartTime:        now,
		Score:            0,
		Status:           domain.StatusInProgress,
		TotalQuestions:   sessionQuestions,
		TimeLimitSeconds: sessionTimeLimitSeconds,
		Questions:        questions,
	})

	telemetry.SessionsStarted.Inc()
	slog.InfoContext(ctx, "game: session created", "session_id", ss.ID, "player_id", ss.PlayerID)

	return &StartSessionResponse{
		SessionID:        ss.ID,
		PlayerID:         ss.PlayerID,
		StartTime:        ss.StartTime,
		TotalQuestions:   ss.TotalQuestions,
		TimeLimitSeconds: ss.TimeLimitSeconds,
		QuestionIDs:      ss.QuestionIDs(),
	}, nil
}

type GetSessionRequest struct {
	SessionID int
}

// GetSession returns a read-only snapshot of the session.
func (s *Service) GetSession(ctx context.Context, req GetSessionRequest) (*domain.GameSession, error) {
	ss, err := s.store.Get(req.SessionID)
	if err != nil {
		slog.WarnContext(ctx, "game: session not found", "session_id", req.SessionID)
		return nil, err
	}
	return &ss, nil
}

type SubmitAnswerRequest struct {
	SessionID  int
	QuestionID int
	AnswerID   int
}

type SubmitAnswerResponse struct {
	IsCorrect       bool
	PointsEarned    int
	TotalScore      int
	IsGameCompleted bool
}

// SubmitAnswer records one answer on an InProgress session. The submission is
// scored against the current question catalog, not a snapshot taken at start.
// The check-then-record sequence runs as one critical section per session, so
// racing submissions for the same session serialize and a failed call leaves
// the session untouched. Recording the last unanswered question transitions
// the session to Completed and applies the completion side effects.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	pool, err := s.pool.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}

	var resp SubmitAnswerResponse
	updated, err := s.store.Mutate(req.SessionID, func(ss *domain.GameSession) error {
		if ss.Status != domain.StatusInProgress {
			return domain.ErrSessionNotActive
		}

		var gq *domain.GameQuestion
		for i := range ss.Questions {
			if ss.Questions[i].QuestionID == req.QuestionID {
				gq = &ss.Questions[i]
				break
			}
		}
		if gq == nil {
			return domain.ErrQuestionNotInSession
		}
		if gq.Answered() {
			return domain.ErrQuestionAlreadyAnswered
		}

		isCorrect, points, err := evaluateAnswer(pool, req.QuestionID, req.AnswerID)
		if err != nil {
			return err
		}

		now := s.now()
		taken := now.Sub(gq.QuestionStartTime)
		selected := req.AnswerID
		gq.SelectedAnswerID = &selected
		gq.IsCorrect = isCorrect
		gq.TimeTaken = &taken
		ss.Score += points

		resp = SubmitAnswerResponse{
			IsCorrect:    isCorrect,
			PointsEarned: points,
			TotalScore:   ss.Score,
		}

		if allAnswered(*ss) {
			ss.Status = domain.StatusCompleted
			end := now
			ss.EndTime = &end
			resp.IsGameCompleted = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.AnswersSubmitted.WithLabelValues(strconv.FormatBool(resp.IsCorrect)).Inc()

	if resp.IsGameCompleted {
		if err := s.completeSession(ctx, updated); err != nil {
			return nil, err
		}
	}

	return &resp, nil
}

// allAnswered reports whether every question has an elapsed time recorded. A
// recorded zero duration still counts as answered; requiring a strictly
// positive duration would make an instant answer unanswerable forever.
func allAnswered(ss domain.GameSession) bool {
	for _, q := range ss.Questions {
		if !q.Answered() {
			return false
		}
	}
	return true
}

// completeSession applies the completion side effects in order: player stats
// first, then the full rank recompute. Both run as atomic passes over the
// player collection, so concurrent completions and logins cannot interleave
// with either write. The session itself is already Completed at this point;
// the caller gets any side-effect failure verbatim.
func (s *Service) completeSession(ctx context.Context, ss domain.GameSession) error {
	err := s.players.UpdateFunc(ctx, ss.PlayerID, func(p *domain.Player) error {
		p.TotalScore += ss.Score
		p.GamesPlayed++
		p.Level = player.LevelForScore(p.TotalScore)
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.ranker.Recalculate(ctx); err != nil {
		return fmt.Errorf("recalculate ranks: %w", err)
	}

	telemetry.SessionsCompleted.Inc()
	slog.InfoContext(ctx, "game: session completed",
		"session_id", ss.ID,
		"player_id", ss.PlayerID,
		"score", ss.Score,
	)

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventSessionCompleted{Session: ss})
	}

	return nil
}

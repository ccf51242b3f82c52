package api

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/triviad/quizgame/internal/auth"
	"github.com/triviad/quizgame/internal/domain"
	"github.com/triviad/quizgame/internal/errors"
	"github.com/triviad/quizgame/internal/event"
	"github.com/triviad/quizgame/internal/game"
	"github.com/triviad/quizgame/internal/leaderboard"
	"github.com/triviad/quizgame/internal/player"
	"github.com/triviad/quizgame/internal/question"
)

type Config struct {
	Game         *game.Service
	Players      *player.Service
	Questions    *question.Service
	Leaderboard  *leaderboard.Service
	Tokens       *auth.TokenService
	Refresh      *auth.RefreshStore
	EventBus     *event.Bus
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	gs *game.Service
	ps *player.Service
	qs *question.Service
	ls *leaderboard.Service

	tokens  *auth.TokenService
	refresh *auth.RefreshStore

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		gs:      c.Game,
		ps:      c.Players,
		qs:      c.Questions,
		ls:      c.Leaderboard,
		tokens:  c.Tokens,
		refresh: c.Refresh,
		redis:   c.Redis,
		prefix:  c.PubsubPrefix,
	}

	if c.EventBus != nil && a.redis != nil {
		c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
			return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
		})
		c.EventBus.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
			return a.PublishSessionCompleted(ctx, e.(domain.EventSessionCompleted))
		})
	}

	return a
}

// Register wires the HTTP routes onto the gin engine.
func (a *API) Register(r *gin.Engine) {
	g := r.Group("/api")

	g.POST("/auth/login", a.login)
	g.POST("/auth/refresh-token", a.refreshToken)
	g.GET("/players", a.listPlayers)

	authed := g.Group("", a.requireAuth())
	authed.GET("/questions", a.listQuestions)
	authed.GET("/leaderboard", a.getLeaderboard)
	authed.POST("/game/start", a.startGame)
	authed.GET("/game/:gameSessionId", a.getGameSession)
	authed.POST("/game/submitAnswer", a.submitAnswer)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	UserID       int    `json:"userId"`
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	p, err := a.ps.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	token, err := a.tokens.Generate(p)
	if err != nil {
		abortWithError(c, err)
		return
	}
	refresh := a.refresh.Issue(p.ID)

	c.JSON(http.StatusOK, loginResponse{
		Token:        token,
		RefreshToken: refresh.Token,
		Username:     p.Username,
		UserID:       p.ID,
	})
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (a *API) refreshToken(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Refresh token is required"})
		return
	}

	t, err := a.refresh.Validate(req.RefreshToken)
	if err != nil {
		abortWithError(c, err)
		return
	}

	p, err := a.ps.GetByID(c.Request.Context(), t.PlayerID)
	if err != nil {
		abortWithError(c, auth.ErrRefreshTokenInvalid)
		return
	}

	token, err := a.tokens.Generate(p)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:        token,
		RefreshToken: t.Token,
		Username:     p.Username,
		UserID:       p.ID,
	})
}

type playerResponse struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	TotalScore  int    `json:"totalScore"`
	GamesPlayed int    `json:"gamesPlayed"`
	GamesWon    int    `json:"gamesWon"`
	CurrentRank int    `json:"currentRank"`
	Level       int    `json:"level"`
}

func (a *API) listPlayers(c *gin.Context) {
	players, err := a.ps.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := make([]playerResponse, 0, len(players))
	for _, p := range players {
		resp = append(resp, playerResponse{
			ID:          p.ID,
			Username:    p.Username,
			TotalScore:  p.TotalScore,
			GamesPlayed: p.GamesPlayed,
			GamesWon:    p.GamesWon,
			CurrentRank: p.CurrentRank,
			Level:       p.Level,
		})
	}
	c.JSON(http.StatusOK, resp)
}

type answerResponse struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type questionResponse struct {
	ID              int              `json:"id"`
	Text            string           `json:"text"`
	Category        string           `json:"category"`
	Difficulty      string           `json:"difficulty"`
	Points          int              `json:"points"`
	Answers         []answerResponse `json:"answers"`
	CorrectAnswerID int              `json:"correctAnswerId"`
}

func (a *API) listQuestions(c *gin.Context) {
	questions, err := a.qs.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		answers := make([]answerResponse, 0, len(q.Answers))
		for _, ans := range q.Answers {
			answers = append(answers, answerResponse{ID: ans.ID, Text: ans.Text})
		}
		resp = append(resp, questionResponse{
			ID:              q.ID,
			Text:            q.Text,
			Category:        q.Category,
			Difficulty:      string(q.Difficulty),
			Points:          q.Points,
			Answers:         answers,
			CorrectAnswerID: q.CorrectAnswerID,
		})
	}
	c.JSON(http.StatusOK, resp)
}

type startGameResponse struct {
	GameSessionID    int       `json:"gameSessionId"`
	PlayerID         int       `json:"playerId"`
	StartTime        time.Time `json:"startTime"`
	TotalQuestions   int       `json:"totalQuestions"`
	TimeLimitSeconds int       `json:"timeLimitSeconds"`
	QuestionIDs      []int     `json:"questionIds"`
}

func (a *API) startGame(c *gin.Context) {
	playerID := authedPlayerID(c)

	resp, err := a.gs.StartSession(c.Request.Context(), game.StartSessionRequest{PlayerID: playerID})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, startGameResponse{
		GameSessionID:    resp.SessionID,
		PlayerID:         resp.PlayerID,
		StartTime:        resp.StartTime,
		TotalQuestions:   resp.TotalQuestions,
		TimeLimitSeconds: resp.TimeLimitSeconds,
		QuestionIDs:      resp.QuestionIDs,
	})
}

type gameSessionResponse struct {
	ID               int        `json:"id"`
	PlayerID         int        `json:"playerId"`
	StartTime        time.Time  `json:"startTime"`
	EndTime          *time.Time `json:"endTime,omitempty"`
	Score            int        `json:"score"`
	Status           string     `json:"status"`
	TotalQuestions   int        `json:"totalQuestions"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"`
	QuestionIDs      []int      `json:"questionIds"`
}

func (a *API) getGameSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("gameSessionId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid game session id"})
		return
	}

	ss, err := a.gs.GetSession(c.Request.Context(), game.GetSessionRequest{SessionID: id})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gameSessionResponse{
		ID:               ss.ID,
		PlayerID:         ss.PlayerID,
		StartTime:        ss.StartTime,
		EndTime:          ss.EndTime,
		Score:            ss.Score,
		Status:           string(ss.Status),
		TotalQuestions:   ss.TotalQuestions,
		TimeLimitSeconds: ss.TimeLimitSeconds,
		QuestionIDs:      ss.QuestionIDs(),
	})
}

type submitAnswerRequest struct {
	GameSessionID int `json:"gameSessionId"`
	QuestionID    int `json:"questionId"`
	AnswerID      int `json:"answerId"`
}

type submitAnswerResponse struct {
	IsCorrect       bool `json:"isCorrect"`
	PointsEarned    int  `json:"pointsEarned"`
	TotalScore      int  `json:"totalScore"`
	IsGameCompleted bool `json:"isGameCompleted"`
}

func (a *API) submitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid submit answer request"})
		return
	}

	resp, err := a.gs.SubmitAnswer(c.Request.Context(), game.SubmitAnswerRequest{
		SessionID:  req.GameSessionID,
		QuestionID: req.QuestionID,
		AnswerID:   req.AnswerID,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, submitAnswerResponse{
		IsCorrect:       resp.IsCorrect,
		PointsEarned:    resp.PointsEarned,
		TotalScore:      resp.TotalScore,
		IsGameCompleted: resp.IsGameCompleted,
	})
}

type leaderboardResponse struct {
	Entries   []leaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type leaderboardEntry struct {
	Rank       int    `json:"rank"`
	Username   string `json:"username"`
	TotalScore int    `json:"totalScore"`
}

func (a *API) getLeaderboard(c *gin.Context) {
	lb, err := a.ls.GetLeaderboard(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := leaderboardResponse{
		Entries:   make([]leaderboardEntry, 0, len(lb.Entries)),
		UpdatedAt: lb.UpdatedAt,
	}
	for _, e := range lb.Entries {
		resp.Entries = append(resp.Entries, leaderboardEntry{
			Rank:       e.Rank,
			Username:   e.Username,
			TotalScore: e.TotalScore,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// abortWithError converts service failures into HTTP responses through the
// coded errors package.
func abortWithError(c *gin.Context, err error) {
	e := errors.Convert(coded(err))
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: internal error", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "An unexpected error occurred."})
		return
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{"message": e.Message})
}

func coded(err error) error {
	switch {
	case stderrors.Is(err, domain.ErrSessionNotFound),
		stderrors.Is(err, domain.ErrQuestionNotInSession),
		stderrors.Is(err, domain.ErrQuestionNotFound),
		stderrors.Is(err, domain.ErrPlayerNotFound):
		return errors.New(errors.CodeNotFound, errors.WithMessagef("%s", err), errors.WithCause(err))

	case stderrors.Is(err, domain.ErrInsufficientQuestions),
		stderrors.Is(err, domain.ErrSessionNotActive),
		stderrors.Is(err, domain.ErrQuestionAlreadyAnswered):
		return errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("%s", err), errors.WithCause(err))

	case stderrors.Is(err, player.ErrInvalidCredentials),
		stderrors.Is(err, auth.ErrInvalidToken),
		stderrors.Is(err, auth.ErrRefreshTokenInvalid):
		return errors.New(errors.CodeUnauthenticated, errors.WithMessagef("%s", err), errors.WithCause(err))
	}

	return err
}

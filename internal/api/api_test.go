package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/triviad/quizgame/internal/api"
	"github.com/triviad/quizgame/internal/auth"
	"github.com/triviad/quizgame/internal/domain"
	"github.com/triviad/quizgame/internal/game"
	"github.com/triviad/quizgame/internal/leaderboard"
	"github.com/triviad/quizgame/internal/player"
	"github.com/triviad/quizgame/internal/question"
)

const questionsFixture = `[
  {"id": 1, "text": "Q1", "category": "General", "difficulty": "Easy", "points": 10,
   "answers": [{"id": 1, "text": "right"}, {"id": 2, "text": "wrong"}], "correctAnswerId": 1},
  {"id": 2, "text": "Q2", "category": "General", "difficulty": "Easy", "points": 10,
   "answers": [{"id": 1, "text": "right"}, {"id": 2, "text": "wrong"}], "correctAnswerId": 1},
  {"id": 3, "text": "Q3", "category": "General", "difficulty": "Medium", "points": 20,
   "answers": [{"id": 1, "text": "right"}, {"id": 2, "text": "wrong"}], "correctAnswerId": 1},
  {"id": 4, "text": "Q4", "category": "General", "difficulty": "Medium", "points": 20,
   "answers": [{"id": 1, "text": "right"}, {"id": 2, "text": "wrong"}], "correctAnswerId": 1},
  {"id": 5, "text": "Q5", "category": "General", "difficulty": "Hard", "points": 30,
   "answers": [{"id": 1, "text": "right"}, {"id": 2, "text": "wrong"}], "correctAnswerId": 1}
]`

type testServer struct {
	engine  *gin.Engine
	players *player.MemoryRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	questionsPath := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(questionsPath, []byte(questionsFixture), 0o644))

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	players := player.NewMemoryRepository(
		domain.Player{ID: 1, Username: "alice", PasswordHash: string(hash)},
		domain.Player{ID: 2, Username: "bob", PasswordHash: string(hash)},
	)

	questionRepo := question.NewFileRepository(questionsPath)
	lbs := leaderboard.NewService(leaderboard.Config{Players: players})
	gs := game.NewService(game.Config{
		Pool:    questionRepo,
		Players: players,
		Ranker:  lbs,
	})

	a := api.New(api.Config{
		Game:        gs,
		Players:     player.NewService(player.Config{Repository: players}),
		Questions:   question.NewService(question.Config{Repository: questionRepo}),
		Leaderboard: lbs,
		Tokens:      auth.NewTokenService("test-secret", time.Hour),
		Refresh:     auth.NewRefreshStore(time.Hour),
	})

	engine := gin.New()
	a.Register(engine)

	return &testServer{engine: engine, players: players}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

type loginBody struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	UserID       int    `json:"userId"`
}

func (s *testServer) login(t *testing.T, username string) loginBody {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": "s3cret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[loginBody](t, w)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body       any
		wantStatus int
	}{
		"valid credentials": {
			body:       gin.H{"username": "alice", "password": "s3cret"},
			wantStatus: http.StatusOK,
		},
		"wrong password": {
			body:       gin.H{"username": "alice", "password": "nope"},
			wantStatus: http.StatusUnauthorized,
		},
		"unknown user": {
			body:       gin.H{"username": "mallory", "password": "s3cret"},
			wantStatus: http.StatusUnauthorized,
		},
		"missing password": {
			body:       gin.H{"username": "alice"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)

			w := s.do(t, http.MethodPost, "/api/auth/login", "", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus == http.StatusOK {
				body := decode[loginBody](t, w)
				require.NotEmpty(t, body.Token)
				require.NotEmpty(t, body.RefreshToken)
				require.Equal(t, "alice", body.Username)
				require.Equal(t, 1, body.UserID)
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	login := s.login(t, "alice")

	w := s.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	refreshed := decode[loginBody](t, w)
	require.NotEmpty(t, refreshed.Token)
	require.Equal(t, 1, refreshed.UserID)

	// The re-issued access token must be accepted by protected routes.
	w = s.do(t, http.MethodGet, "/api/questions", refreshed.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshToken_Invalid(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{"refreshToken": "bogus"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	paths := []string{"/api/questions", "/api/leaderboard", "/api/game/1"}
	for _, path := range paths {
		w := s.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)

		w = s.do(t, http.MethodGet, path, "not-a-token", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestListPlayersIsPublic(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/players", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	players := decode[[]map[string]any](t, w)
	require.Len(t, players, 2)
	require.Equal(t, "alice", players[0]["username"])
	require.NotContains(t, players[0], "passwordHash")
}

func TestListQuestions(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	login := s.login(t, "alice")

	w := s.do(t, http.MethodGet, "/api/questions", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	questions := decode[[]map[string]any](t, w)
	require.Len(t, questions, 5)
}

type startBody struct {
	GameSessionID    int   `json:"gameSessionId"`
	PlayerID         int   `json:"playerId"`
	TotalQuestions   int   `json:"totalQuestions"`
	TimeLimitSeconds int   `json:"timeLimitSeconds"`
	QuestionIDs      []int `json:"questionIds"`
}

type submitBody struct {
	IsCorrect       bool `json:"isCorrect"`
	PointsEarned    int  `json:"pointsEarned"`
	TotalScore      int  `json:"totalScore"`
	IsGameCompleted bool `json:"isGameCompleted"`
}

func TestGameFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	login := s.login(t, "alice")

	w := s.do(t, http.MethodPost, "/api/game/start", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	start := decode[startBody](t, w)
	require.Equal(t, 1, start.PlayerID)
	require.Equal(t, 5, start.TotalQuestions)
	require.Equal(t, 10, start.TimeLimitSeconds)
	require.ElementsMatch(t, []int{1, 2, 3, 4, 5}, start.QuestionIDs)

	var last submitBody
	for _, qid := range start.QuestionIDs {
		w = s.do(t, http.MethodPost, "/api/game/submitAnswer", login.Token, gin.H{
			"gameSessionId": start.GameSessionID,
			"questionId":    qid,
			"answerId":      1,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		last = decode[submitBody](t, w)
		require.True(t, last.IsCorrect)
	}
	require.True(t, last.IsGameCompleted)
	require.Equal(t, 90, last.TotalScore)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/game/%d", start.GameSessionID), login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	session := decode[map[string]any](t, w)
	require.Equal(t, "Completed", session["status"])
	require.Equal(t, float64(90), session["score"])
	require.NotNil(t, session["endTime"])

	w = s.do(t, http.MethodGet, "/api/leaderboard", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	lb := decode[map[string]any](t, w)
	entries := lb["entries"].([]any)
	require.Len(t, entries, 2)
	top := entries[0].(map[string]any)
	require.Equal(t, "alice", top["username"])
	require.Equal(t, float64(1), top["rank"])
	require.Equal(t, float64(90), top["totalScore"])
}

func TestGameErrors(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	login := s.login(t, "alice")

	tests := map[string]struct {
		request    func(t *testing.T) *httptest.ResponseRecorder
		wantStatus int
	}{
		"get unknown session": {
			request: func(t *testing.T) *httptest.ResponseRecorder {
				return s.do(t, http.MethodGet, "/api/game/999", login.Token, nil)
			},
			wantStatus: http.StatusNotFound,
		},

		"get malformed session id": {
			request: func(t *testing.T) *httptest.ResponseRecorder {
				return s.do(t, http.MethodGet, "/api/game/abc", login.Token, nil)
			},
			wantStatus: http.StatusBadRequest,
		},

		"submit to unknown session": {
			request: func(t *testing.T) *httptest.ResponseRecorder {
				return s.do(t, http.MethodPost, "/api/game/submitAnswer", login.Token, gin.H{
					"gameSessionId": 999, "questionId": 1, "answerId": 1,
				})
			},
			wantStatus: http.StatusNotFound,
		},

		"submit duplicate answer": {
			request: func(t *testing.T) *httptest.ResponseRecorder {
				w := s.do(t, http.MethodPost, "/api/game/start", login.Token, nil)
				require.Equal(t, http.StatusOK, w.Code)
				start := decode[startBody](t, w)

				body := gin.H{"gameSessionId": start.GameSessionID, "questionId": start.QuestionIDs[0], "answerId": 1}
				w = s.do(t, http.MethodPost, "/api/game/submitAnswer", login.Token, body)
				require.Equal(t, http.StatusOK, w.Code)

				return s.do(t, http.MethodPost, "/api/game/submitAnswer", login.Token, body)
			},
			wantStatus: http.StatusBadRequest,
		},

		"submit question outside session": {
			request: func(t *testing.T) *httptest.ResponseRecorder {
				w := s.do(t, http.MethodPost, "/api/game/start", login.Token, nil)
				require.Equal(t, http.StatusOK, w.Code)
				start := decode[startBody](t, w)

				return s.do(t, http.MethodPost, "/api/game/submitAnswer", login.Token, gin.H{
					"gameSessionId": start.GameSessionID, "questionId": 42, "answerId": 1,
				})
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			w := tt.request(t)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/triviad/quizgame/internal/api"
	"github.com/triviad/quizgame/internal/auth"
	"github.com/triviad/quizgame/internal/event"
	"github.com/triviad/quizgame/internal/game"
	"github.com/triviad/quizgame/internal/leaderboard"
	"github.com/triviad/quizgame/internal/player"
	"github.com/triviad/quizgame/internal/question"
	"github.com/triviad/quizgame/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
		RefreshTTLHours int
	}

	Data struct {
		QuestionsFile string
		PlayersFile   string
	}

	// Redis is optional; without it the leaderboard mirror and pubsub
	// notifications are disabled.
	Redis struct {
		Addrs  []string
		Pass   string
		Prefix string
	}

	// Postgres is optional; without it the question catalog comes from the
	// questions file.
	Postgres struct {
		Addr string
		User string
		Pass string
		Name string
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
	}

	service struct {
		game        *game.Service
		player      *player.Service
		question    *question.Service
		leaderboard *leaderboard.Service
	}

	authn struct {
		tokens  *auth.TokenService
		refresh *auth.RefreshStore
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	if c.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("server: JWT secret not configured")
	}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	if len(s.c.Redis.Addrs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Addrs,
		Password: s.c.Redis.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return err
	}

	s.infra.redis = r
	return nil
}

func (s *Server) initPostgres() error {
	if s.c.Postgres.Addr == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s",
		s.c.Postgres.User, s.c.Postgres.Pass, s.c.Postgres.Addr, s.c.Postgres.Name))
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		return err
	}

	s.infra.postgres = db
	return nil
}

func (s *Server) initService() error {
	players, err := player.NewFileRepository(s.c.Data.PlayersFile)
	if err != nil {
		return fmt.Errorf("player repository: %w", err)
	}

	var pool question.Repository = question.NewFileRepository(s.c.Data.QuestionsFile)
	if s.infra.postgres != nil {
		pool = question.NewPostgresRepository(s.infra.postgres)
	}

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		EventBus: s.eb,
		Players:  players,
		Redis:    s.infra.redis,
		Prefix:   s.c.Redis.Prefix,
	})

	s.service.game = game.NewService(game.Config{
		Pool:     pool,
		Players:  players,
		Ranker:   s.service.leaderboard,
		EventBus: s.eb,
		Selector: game.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano()))),
		Store:    game.NewStore(),
	})

	s.service.player = player.NewService(player.Config{Repository: players})
	s.service.question = question.NewService(question.Config{Repository: pool})

	s.authn.tokens = auth.NewTokenService(s.c.Auth.JWTSecret, time.Duration(s.c.Auth.TokenTTLMinutes)*time.Minute)
	s.authn.refresh = auth.NewRefreshStore(time.Duration(s.c.Auth.RefreshTTLHours) * time.Hour)

	return nil
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	var rc api.Redis
	if s.infra.redis != nil {
		rc = s.infra.redis
	}

	api.New(api.Config{
		Game:         s.service.game,
		Players:      s.service.player,
		Questions:    s.service.question,
		Leaderboard:  s.service.leaderboard,
		Tokens:       s.authn.tokens,
		Refresh:      s.authn.refresh,
		EventBus:     s.eb,
		Redis:        rc,
		PubsubPrefix: s.c.Redis.Prefix,
	}).Register(e)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	if s.infra.redis != nil {
		if err := s.infra.redis.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "error", err)
		}
	}
	if s.infra.postgres != nil {
		s.infra.postgres.Close()
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}

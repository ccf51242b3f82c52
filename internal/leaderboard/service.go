package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/triviad/quizgame/internal/domain"
	"github.com/triviad/quizgame/internal/event"
	"github.com/triviad/quizgame/internal/telemetry"
)

// PlayerSource is the slice of the player repository the recompute needs.
// UpdateAll must run its closure under the collection's write lock, so the
// whole recompute pass excludes every other aggregate writer.
type PlayerSource interface {
	GetAll(ctx context.Context) ([]domain.Player, error)
	UpdateAll(ctx context.Context, fn func(players []domain.Player) ([]domain.Player, error)) error
}

type Config struct {
	EventBus *event.Bus
	Players  PlayerSource
	// Redis, when set, receives a ZSET mirror of the scoreboard after each
	// recompute. The authoritative ranks always live on the player records.
	Redis   redis.UniversalClient
	Prefix  string
	NowFunc func() time.Time
}

// Service owns the full leaderboard recompute and the read model over it.
type Service struct {
	eb      *event.Bus
	players PlayerSource
	redis   redis.UniversalClient
	prefix  string
	now     func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		eb:      c.EventBus,
		players: c.Players,
		redis:   c.Redis,
		prefix:  c.Prefix,
		now:     c.NowFunc,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Recalculate rewrites every player's rank from current total scores:
// descending score, ascending player id on ties, via a stable sort, so ranks
// are deterministic and reproducible. The full O(N log N) pass runs inside
// one UpdateAll, holding the collection's write lock from read to write
// back; a concurrent profile write can never land inside the pass and be
// overwritten by its snapshot.
func (s *Service) Recalculate(ctx context.Context) error {
	var lb domain.Leaderboard
	err := s.players.UpdateAll(ctx, func(players []domain.Player) ([]domain.Player, error) {
		sortByScore(players)
		for i := range players {
			players[i].CurrentRank = i + 1
		}
		lb = s.toLeaderboard(players)
		return players, nil
	})
	if err != nil {
		return fmt.Errorf("recalculate ranks: %w", err)
	}

	telemetry.RankRecomputes.Inc()
	if err := s.mirrorToRedis(ctx, lb); err != nil {
		// The mirror is a read-model convenience; ranks are already persisted.
		slog.WarnContext(ctx, "leaderboard: redis mirror failed", "error", err)
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventLeaderboardUpdated{Leaderboard: lb})
	}

	return nil
}

// GetLeaderboard returns the current scoreboard, rank 1 first.
func (s *Service) GetLeaderboard(ctx context.Context) (*domain.Leaderboard, error) {
	players, err := s.players.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}

	sortByScore(players)

	lb := s.toLeaderboard(players)
	return &lb, nil
}

func sortByScore(players []domain.Player) {
	slices.SortStableFunc(players, func(a, b domain.Player) int {
		if a.TotalScore != b.TotalScore {
			return b.TotalScore - a.TotalScore
		}
		return a.ID - b.ID
	})
}

func (s *Service) toLeaderboard(sorted []domain.Player) domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(sorted))
	for i, p := range sorted {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:       i + 1,
			Username:   p.Username,
			TotalScore: p.TotalScore,
		})
	}

	return domain.Leaderboard{
		Entries:   entries,
		UpdatedAt: s.now(),
	}
}

func (s *Service) mirrorToRedis(ctx context.Context, lb domain.Leaderboard) error {
	if s.redis == nil {
		return nil
	}

	members := make([]redis.Z, 0, len(lb.Entries))
	for _, e := range lb.Entries {
		members = append(members, redis.Z{
			Score:  float64(e.TotalScore),
			Member: e.Username,
		})
	}

	key := s.leaderboardKey()
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror leaderboard: %w", err)
	}

	return nil
}

func (s *Service) leaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard", s.prefix)
}

package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/triviad/quizgame/internal/domain"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	leaderboardNotification struct {
		Entries   []leaderboardEntry `json:"entries"`
		UpdatedAt string             `json:"updated_at"`
	}

	sessionCompletedNotification struct {
		GameSessionID int    `json:"gameSessionId"`
		Score         int    `json:"score"`
		CompletedAt   string `json:"completedAt,omitempty"`
	}
)

// PublishLeaderboardUpdated fans the fresh leaderboard out to every ranked
// player's notification channel.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	lb := e.Leaderboard

	data := leaderboardNotification{
		Entries:   make([]leaderboardEntry, 0, len(lb.Entries)),
		UpdatedAt: lb.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}

	for _, entry := range lb.Entries {
		data.Entries = append(data.Entries, leaderboardEntry{
			Rank:       entry.Rank,
			Username:   entry.Username,
			TotalScore: entry.TotalScore,
		})
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, entry := range data.Entries {
		entry := entry
		eg.Go(func() error {
			return a.publishNotification(ctx, entry.Username, e.Name(), data)
		})
	}

	return eg.Wait()
}

// PublishSessionCompleted sends the final session result to the completing
// player's notification channel.
func (a *API) PublishSessionCompleted(ctx context.Context, e domain.EventSessionCompleted) error {
	ss := e.Session

	p, err := a.ps.GetByID(ctx, ss.PlayerID)
	if err != nil {
		return fmt.Errorf("pubsub: resolve player %d: %w", ss.PlayerID, err)
	}

	data := sessionCompletedNotification{
		GameSessionID: ss.ID,
		Score:         ss.Score,
	}
	if ss.EndTime != nil {
		data.CompletedAt = ss.EndTime.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}

	return a.publishNotification(ctx, p.Username, e.Name(), data)
}

func (a *API) publishNotification(ctx context.Context, user, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:user:%s", a.prefix, user), b).Err()
}

package player_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/triviad/quizgame/internal/domain"
	"github.com/triviad/quizgame/internal/player"
)

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		username string
		password string
		wantErr  error
	}{
		"valid credentials": {
			username: "alice",
			password: "s3cret",
		},
		"wrong password": {
			username: "alice",
			password: "wrong",
			wantErr:  player.ErrInvalidCredentials,
		},
		"unknown username": {
			username: "nobody",
			password: "s3cret",
			wantErr:  player.ErrInvalidCredentials,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			repo := player.NewMemoryRepository(domain.Player{
				ID:           1,
				Username:     "alice",
				PasswordHash: hashPassword(t, "s3cret"),
			})
			svc := player.NewService(player.Config{
				Repository: repo,
				NowFunc:    func() time.Time { return now },
			})

			p, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, 1, p.ID)
			require.NotNil(t, p.LastLoginAt)
			require.Equal(t, now, *p.LastLoginAt)

			// The login stamp must be persisted, not just returned.
			stored, err := repo.GetByID(context.Background(), 1)
			require.NoError(t, err)
			require.NotNil(t, stored.LastLoginAt)
			require.Equal(t, now, *stored.LastLoginAt)
		})
	}
}

func TestService_List(t *testing.T) {
	t.Parallel()

	repo := player.NewMemoryRepository(
		domain.Player{ID: 2, Username: "bob"},
		domain.Player{ID: 1, Username: "alice"},
	)
	svc := player.NewService(player.Config{Repository: repo})

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "alice", all[0].Username)
	require.Equal(t, "bob", all[1].Username)
}

func TestService_GetByID(t *testing.T) {
	t.Parallel()

	svc := player.NewService(player.Config{
		Repository: player.NewMemoryRepository(domain.Player{ID: 1, Username: "alice"}),
	})

	p, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "alice", p.Username)

	_, err = svc.GetByID(context.Background(), 9)
	require.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

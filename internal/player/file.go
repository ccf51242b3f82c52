package player

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/triviad/quizgame/internal/domain"
)

// FileRepository persists player aggregates in a JSON file, rewriting the
// whole file on every update. A single in-process mutex keeps writes from
// interleaving.
type FileRepository struct {
	path string

	mu      sync.RWMutex
	players map[int]domain.Player
}

type playerRecord struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"passwordHash"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	TotalScore   int        `json:"totalScore"`
	GamesPlayed  int        `json:"gamesPlayed"`
	GamesWon     int        `json:"gamesWon"`
	CurrentRank  int        `json:"currentRank"`
	Level        int        `json:"level"`
}

// NewFileRepository loads the player file once at startup. A missing file is
// an empty collection, not an error.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		path:    path,
		players: make(map[int]domain.Player),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read player file %s: %w", path, err)
	}

	var records []playerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse player file %s: %w", path, err)
	}

	for _, rec := range records {
		r.players[rec.ID] = domain.Player{
			ID:           rec.ID,
			Username:     rec.Username,
			PasswordHash: rec.PasswordHash,
			Role:         rec.Role,
			CreatedAt:    rec.CreatedAt,
			LastLoginAt:  rec.LastLoginAt,
			TotalScore:   rec.TotalScore,
			GamesPlayed:  rec.GamesPlayed,
			GamesWon:     rec.GamesWon,
			CurrentRank:  rec.CurrentRank,
			Level:        rec.Level,
		}
	}

	return r, nil
}

func (r *FileRepository) GetByID(_ context.Context, id int) (domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return p, nil
}

func (r *FileRepository) GetByUsername(_ context.Context, username string) (domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.players {
		if p.Username == username {
			return p, nil
		}
	}
	return domain.Player{}, domain.ErrPlayerNotFound
}

func (r *FileRepository) GetAll(_ context.Context) ([]domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		all = append(all, p)
	}
	slices.SortFunc(all, func(a, b domain.Player) int { return a.ID - b.ID })
	return all, nil
}

// UpdateFunc applies fn to one player and persists, all under the
// collection's write lock. A failed fn leaves the record and file untouched.
func (r *FileRepository) UpdateFunc(_ context.Context, id int, fn func(p *domain.Player) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if err := fn(&p); err != nil {
		return err
	}
	r.players[id] = p

	return r.persistLocked()
}

// UpdateAll runs fn over every player in id order, writes the returned
// records back and persists them as one pass under the collection's write
// lock. Writers block until the pass finishes.
func (r *FileRepository) UpdateAll(_ context.Context, fn func(players []domain.Player) ([]domain.Player, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		all = append(all, p)
	}
	slices.SortFunc(all, func(a, b domain.Player) int { return a.ID - b.ID })

	updated, err := fn(all)
	if err != nil {
		return err
	}
	for _, p := range updated {
		r.players[p.ID] = p
	}

	return r.persistLocked()
}

func (r *FileRepository) persistLocked() error {
	records := make([]playerRecord, 0, len(r.players))
	for _, p := range r.players {
		records = append(records, playerRecord{
			ID:           p.ID,
			Username:     p.Username,
			PasswordHash: p.PasswordHash,
			Role:         p.Role,
			CreatedAt:    p.CreatedAt,
			LastLoginAt:  p.LastLoginAt,
			TotalScore:   p.TotalScore,
			GamesPlayed:  p.GamesPlayed,
			GamesWon:     p.GamesWon,
			CurrentRank:  p.CurrentRank,
			Level:        p.Level,
		})
	}
	slices.SortFunc(records, func(a, b playerRecord) int { return a.ID - b.ID })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write player file: %w", err)
	}
	return os.Rename(tmp, r.path)
}

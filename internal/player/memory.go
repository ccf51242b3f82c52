package player

import (
	"context"
	"slices"
	"sync"

	"github.com/triviad/quizgame/internal/domain"
)

// MemoryRepository keeps player aggregates in process memory. Used in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	players map[int]domain.Player
}

func NewMemoryRepository(seed ...domain.Player) *MemoryRepository {
	r := &MemoryRepository{players: make(map[int]domain.Player, len(seed))}
	for _, p := range seed {
		r.players[p.ID] = p
	}
	return r
}

func (r *MemoryRepository) GetByID(_ context.Context, id int) (domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return p, nil
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.players {
		if p.Username == username {
			return p, nil
		}
	}
	return domain.Player{}, domain.ErrPlayerNotFound
}

func (r *MemoryRepository) GetAll(_ context.Context) ([]domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		all = append(all, p)
	}
	slices.SortFunc(all, func(a, b domain.Player) int { return a.ID - b.ID })
	return all, nil
}

// UpdateFunc applies fn to one player under the collection's write lock. The
// record fn sees is current; no other writer can interleave before the write
// back. A failed fn leaves the record untouched.
func (r *MemoryRepository) UpdateFunc(_ context.Context, id int, fn func(p *domain.Player) error) error {
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
	return nil
}

// UpdateAll runs fn over a snapshot of every player, in id order, and writes
// the returned records back, all under the collection's write lock. Writers
// block for the whole pass, so fn never works from a stale view.
func (r *MemoryRepository) UpdateAll(_ context.Context, fn func(players []domain.Player) ([]domain.Player, error)) error {
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
	return nil
}

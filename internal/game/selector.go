package game

import (
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/triviad/quizgame/internal/domain"
)

// Per-session stratified draw quotas.
const (
	easyQuota   = 2
	mediumQuota = 2
	hardQuota   = 1

	sessionQuestions = easyQuota + mediumQuota + hardQuota
)

// Selector draws the fixed stratified question set for a new session.
type Selector struct {
	rnd *rand.Rand
}

// NewSelector creates a selector around the given random source. Passing nil
// falls back to a time-seeded source; tests inject a fixed seed.
func NewSelector(rnd *rand.Rand) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rnd: rnd}
}

// Select draws 2 easy, 2 medium and 1 hard question id, each uniformly at
// random within its stratum and without replacement. The draw fails with
// domain.ErrInsufficientQuestions when the pool is empty or any stratum
// cannot fill its quota.
func (s *Selector) Select(pool []domain.Question) ([]int, error) {
	if len(pool) == 0 {
		return nil, domain.ErrInsufficientQuestions
	}

	strata := make(map[domain.Difficulty][]int)
	for _, q := range pool {
		d := normalizeDifficulty(q.Difficulty)
		strata[d] = append(strata[d], q.ID)
	}

	ids := make([]int, 0, sessionQuestions)
	for _, draw := range []struct {
		difficulty domain.Difficulty
		quota      int
	}{
		{domain.DifficultyEasy, easyQuota},
		{domain.DifficultyMedium, mediumQuota},
		{domain.DifficultyHard, hardQuota},
	} {
		ids = append(ids, s.draw(strata[draw.difficulty], draw.quota)...)
	}

	if len(ids) < sessionQuestions {
		return nil, domain.ErrInsufficientQuestions
	}

	return ids, nil
}

func (s *Selector) draw(ids []int, quota int) []int {
	drawn := slices.Clone(ids)
	s.rnd.Shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})

	if len(drawn) > quota {
		drawn = drawn[:quota]
	}
	return drawn
}

// normalizeDifficulty keeps the catalog's difficulty matching case-insensitive.
func normalizeDifficulty(d domain.Difficulty) domain.Difficulty {
	for _, known := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		if strings.EqualFold(string(d), string(known)) {
			return known
		}
	}
	return d
}

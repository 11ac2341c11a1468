package highscore

import (
	"context"
	"sync"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
)

type MemoryStore struct {
	mu     sync.RWMutex
	scores map[string]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scores: make(map[string]float64)}
}

func (s *MemoryStore) Get(_ context.Context, mode engine.Mode) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[Key(mode)], nil
}

func (s *MemoryStore) Record(_ context.Context, mode engine.Mode, score float64) (float64, bool, error) {
	if score < 0 {
		return 0, false, ErrNegativeScore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	best, improved := ratchet(s.scores[Key(mode)], score)
	s.scores[Key(mode)] = best
	return best, improved, nil
}

func (s *MemoryStore) Reset(_ context.Context, mode engine.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scores, Key(mode))
	return nil
}

package storage

import (
	"context"
	"errors"
	"sync"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Run
	history     map[string][]GenerationRecord
	champions   map[string]ChampionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]Run)
	s.history = make(map[string][]GenerationRecord)
	s.champions = make(map[string]ChampionRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	run.Config = append([]byte(nil), run.Config...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return Run{}, false, errNotInitialized
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

// AppendGeneration replaces an existing record for the same generation
func (s *MemoryStore) AppendGeneration(_ context.Context, runID string, rec GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	hist := s.history[runID]
	for i := range hist {
		if hist[i].Generation == rec.Generation {
			hist[i] = rec
			return nil
		}
	}
	s.history[runID] = append(hist, rec)
	return nil
}

func (s *MemoryStore) GenerationHistory(_ context.Context, runID string) ([]GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	return append([]GenerationRecord(nil), s.history[runID]...), nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, champ ChampionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	champ.Network = append([]byte(nil), champ.Network...)
	s.champions[champ.RunID] = champ
	return nil
}

func (s *MemoryStore) GetChampion(_ context.Context, runID string) (ChampionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return ChampionRecord{}, false, errNotInitialized
	}
	champ, ok := s.champions[runID]
	return champ, ok, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

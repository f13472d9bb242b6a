package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run identifies one training session
type Run struct {
	ID        string
	Seed      int64
	StartedAt time.Time
	Config    []byte // the config as loaded, for reproduction
}

// GenerationRecord is the summary of one evaluated generation
type GenerationRecord struct {
	Generation   int
	Best         float64
	Mean         float64
	Std          float64
	Disqualified int
}

// ChampionRecord is the best network of a run so far
type ChampionRecord struct {
	RunID      string
	Generation int
	Fitness    float64
	Network    []byte // nn binary encoding
}

// Store persists training runs, their history and champions.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	AppendGeneration(ctx context.Context, runID string, rec GenerationRecord) error
	GenerationHistory(ctx context.Context, runID string) ([]GenerationRecord, error)
	SaveChampion(ctx context.Context, champ ChampionRecord) error
	GetChampion(ctx context.Context, runID string) (ChampionRecord, bool, error)
	Close() error
}

// NewRunID returns a fresh random run id
func NewRunID() string {
	return uuid.NewString()
}

// NewStore opens the backend named by kind
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "db", "runs.db")),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))
			defer store.Close()

			runID := NewRunID()
			started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			require.NoError(t, store.SaveRun(ctx, Run{ID: runID, Seed: 1337, StartedAt: started, Config: []byte("seed: 1337")}))

			run, ok, err := store.GetRun(ctx, runID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, int64(1337), run.Seed)
			assert.True(t, started.Equal(run.StartedAt))
			assert.Equal(t, []byte("seed: 1337"), run.Config)

			for gen := 0; gen < 3; gen++ {
				require.NoError(t, store.AppendGeneration(ctx, runID, GenerationRecord{
					Generation: gen, Best: float64(gen) * 2, Mean: float64(gen), Disqualified: 3 - gen,
				}))
			}
			// rewriting a generation replaces it
			require.NoError(t, store.AppendGeneration(ctx, runID, GenerationRecord{Generation: 1, Best: 9}))

			hist, err := store.GenerationHistory(ctx, runID)
			require.NoError(t, err)
			require.Len(t, hist, 3)
			assert.Equal(t, 0, hist[0].Generation)
			assert.Equal(t, 9.0, hist[1].Best)
			assert.Equal(t, 1, hist[2].Disqualified)

			_, ok, err = store.GetChampion(ctx, runID)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.SaveChampion(ctx, ChampionRecord{RunID: runID, Generation: 1, Fitness: 3, Network: []byte{1, 2}}))
			require.NoError(t, store.SaveChampion(ctx, ChampionRecord{RunID: runID, Generation: 2, Fitness: 5, Network: []byte{3}}))
			champ, ok, err := store.GetChampion(ctx, runID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 2, champ.Generation)
			assert.Equal(t, 5.0, champ.Fitness)
			assert.Equal(t, []byte{3}, champ.Network)

			_, ok, err = store.GetRun(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, store.SaveRun(ctx, Run{ID: "x"}))
			_, err := store.GenerationHistory(ctx, "x")
			assert.Error(t, err)
		})
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStore("sqlite", filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = NewStore("postgres", "")
	assert.Error(t, err)

	assert.Error(t, NewSQLiteStore("").Init(context.Background()))
}

func TestNewRunIDUnique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
	assert.Len(t, NewRunID(), 36)
}

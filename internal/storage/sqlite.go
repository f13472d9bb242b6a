package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, started_at, config)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seed = excluded.seed,
			started_at = excluded.started_at,
			config = excluded.config
	`, run.ID, run.Seed, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Config)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var (
		run     Run
		started string
	)
	err = db.QueryRowContext(ctx, `SELECT id, seed, started_at, config FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.Seed, &started, &run.Config)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, false, fmt.Errorf("decode run %s start time: %w", id, err)
	}
	return run, true, nil
}

func (s *SQLiteStore) AppendGeneration(ctx context.Context, runID string, rec GenerationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, best, mean, std, disqualified)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			best = excluded.best,
			mean = excluded.mean,
			std = excluded.std,
			disqualified = excluded.disqualified
	`, runID, rec.Generation, rec.Best, rec.Mean, rec.Std, rec.Disqualified)
	return err
}

func (s *SQLiteStore) GenerationHistory(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, best, mean, std, disqualified
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []GenerationRecord
	for rows.Next() {
		var rec GenerationRecord
		if err := rows.Scan(&rec.Generation, &rec.Best, &rec.Mean, &rec.Std, &rec.Disqualified); err != nil {
			return nil, err
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

func (s *SQLiteStore) SaveChampion(ctx context.Context, champ ChampionRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (run_id, generation, fitness, network)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			generation = excluded.generation,
			fitness = excluded.fitness,
			network = excluded.network
	`, champ.RunID, champ.Generation, champ.Fitness, champ.Network)
	return err
}

func (s *SQLiteStore) GetChampion(ctx context.Context, runID string) (ChampionRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return ChampionRecord{}, false, err
	}

	champ := ChampionRecord{RunID: runID}
	err = db.QueryRowContext(ctx, `SELECT generation, fitness, network FROM champions WHERE run_id = ?`, runID).
		Scan(&champ.Generation, &champ.Fitness, &champ.Network)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ChampionRecord{}, false, nil
		}
		return ChampionRecord{}, false, err
	}
	return champ, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			config BLOB
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			best REAL NOT NULL,
			mean REAL NOT NULL,
			std REAL NOT NULL,
			disqualified INTEGER NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS champions (
			run_id TEXT PRIMARY KEY,
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			network BLOB NOT NULL
		);
	`)
	return err
}

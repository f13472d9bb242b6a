package env

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Replay stores a deterministic action trace for playback
type Replay struct {
	Seed       uint32       `json:"seed"`
	Actions    []Action     `json:"actions"`
	FinalStats EpisodeStats `json:"final_stats"`
	Settings   Settings     `json:"settings"`
}

// NewReplay creates a new replay recorder
func NewReplay(seed uint32, s Settings) *Replay {
	return &Replay{
		Seed:     seed,
		Actions:  make([]Action, 0, 256),
		Settings: s,
	}
}

// Record adds an action to the replay
func (r *Replay) Record(action Action) {
	r.Actions = append(r.Actions, action)
}

// SetFinalStats sets the final episode statistics
func (r *Replay) SetFinalStats(stats EpisodeStats) {
	r.FinalStats = stats
}

// Save writes the replay to a file
func (r *Replay) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadReplay loads a replay from a file
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Playback recreates the starting game for the replay
func (r *Replay) Playback() *Game {
	return NewGame(r.Settings, r.Seed)
}

// PlaybackStep runs the replay up to step n
func (r *Replay) PlaybackStep(g *Game, step int) {
	if step > len(r.Actions) {
		step = len(r.Actions)
	}
	for i := 0; i < step && g.Alive; i++ {
		g.Step(r.Actions[i])
	}
}

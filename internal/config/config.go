package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"asteroidsai/internal/env"
	"asteroidsai/internal/ga"
	"asteroidsai/internal/nn"
)

// Config is the root configuration structure
type Config struct {
	Seed    int64         `yaml:"seed" ini:"seed"`
	Env     EnvConfig     `yaml:"env"`
	NN      NNConfig      `yaml:"nn"`
	GA      GAConfig      `yaml:"ga"`
	Eval    EvalConfig    `yaml:"eval"`
	Fitness FitnessConfig `yaml:"fitness"`
	Logging LogConfig     `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
}

// EnvConfig defines the asteroid arena
type EnvConfig struct {
	Width         float64 `yaml:"width" ini:"width"`
	Height        float64 `yaml:"height" ini:"height"`
	Dt            float64 `yaml:"dt" ini:"dt"`
	TickCap       int     `yaml:"tick_cap" ini:"tick_cap"`
	Lives         int     `yaml:"lives" ini:"lives"`
	SpawnInterval float64 `yaml:"spawn_interval" ini:"spawn_interval"`
	MaxAsteroids  int     `yaml:"max_asteroids" ini:"max_asteroids"`
}

// NNConfig defines neural network architecture
type NNConfig struct {
	Hidden      []int    `yaml:"hidden" ini:"hidden"`
	Activations []string `yaml:"activations" ini:"activations"` // one per layer, output last
}

// GAConfig defines genetic algorithm parameters
type GAConfig struct {
	Population       int     `yaml:"population" ini:"population"`
	Elites           int     `yaml:"elites" ini:"elites"`
	TournamentK      int     `yaml:"tournament_k" ini:"tournament_k"`
	MaxTournament    int     `yaml:"max_tournament" ini:"max_tournament"`
	CrossoverJitter  float64 `yaml:"crossover_jitter" ini:"crossover_jitter"`
	MutationRate     float64 `yaml:"mutation_rate" ini:"mutation_rate"`
	MutationStrength float64 `yaml:"mutation_strength" ini:"mutation_strength"`
	RateDecay        float64 `yaml:"rate_decay" ini:"rate_decay"`
	StrengthDecay    float64 `yaml:"strength_decay" ini:"strength_decay"`
	MutationFloor    float64 `yaml:"mutation_floor" ini:"mutation_floor"`
}

// EvalConfig defines evaluation parameters
type EvalConfig struct {
	Workers        int   `yaml:"workers" ini:"workers"`
	BenchmarkEvery int   `yaml:"benchmark_every" ini:"benchmark_every"`
	BenchmarkSeeds []int `yaml:"benchmark_seeds" ini:"benchmark_seeds"`
}

// FitnessConfig defines fitness function parameters
type FitnessConfig struct {
	ScoreW             float64 `yaml:"score_w" ini:"score_w"`
	SurvivalW          float64 `yaml:"survival_w" ini:"survival_w"`
	MinDistinctActions int     `yaml:"min_distinct_actions" ini:"min_distinct_actions"`
}

// LogConfig defines logging parameters
type LogConfig struct {
	EveryGenSummary   bool   `yaml:"every_gen_summary" ini:"every_gen_summary"`
	TopNDebug         int    `yaml:"topn_debug" ini:"topn_debug"`
	SaveChampionEvery int    `yaml:"save_champion_every" ini:"save_champion_every"`
	ReplayEvery       int    `yaml:"replay_every" ini:"replay_every"`
	CSVPath           string `yaml:"csv_path" ini:"csv_path"`
	JSONPath          string `yaml:"json_path" ini:"json_path"`
	ArtifactsDir      string `yaml:"artifacts_dir" ini:"artifacts_dir"`
}

// StorageConfig selects where run history and champions are persisted
type StorageConfig struct {
	Backend    string `yaml:"backend" ini:"backend"` // memory|sqlite
	SQLitePath string `yaml:"sqlite_path" ini:"sqlite_path"`
}

// Load reads a YAML or INI config file and returns a Config
func Load(path string) (*Config, error) {
	cfg := presets()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		if err := loadINI(path, cfg); err != nil {
			return nil, err
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// Apply defaults
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func loadINI(path string, cfg *Config) error {
	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", path, err)
	}
	if err := file.Section(ini.DefaultSection).MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map default section: %w", err)
	}
	sections := []struct {
		name string
		dst  any
	}{
		{"env", &cfg.Env},
		{"nn", &cfg.NN},
		{"ga", &cfg.GA},
		{"eval", &cfg.Eval},
		{"fitness", &cfg.Fitness},
		{"logging", &cfg.Logging},
		{"storage", &cfg.Storage},
	}
	for _, s := range sections {
		if err := file.Section(s.name).MapTo(s.dst); err != nil {
			return fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}
	return nil
}

// Default returns a config with every default applied
func Default() *Config {
	cfg := presets()
	applyDefaults(cfg)
	return cfg
}

// presets holds the defaults for fields where zero is a meaningful setting.
// They are filled in before parsing, so only an absent key keeps them.
func presets() *Config {
	return &Config{
		GA: GAConfig{Elites: ga.DefaultParams().Elites},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}
	arena := env.DefaultSettings()
	if cfg.Env.Width == 0 {
		cfg.Env.Width = arena.Width
	}
	if cfg.Env.Height == 0 {
		cfg.Env.Height = arena.Height
	}
	if cfg.Env.Dt == 0 {
		cfg.Env.Dt = arena.Dt
	}
	if cfg.Env.TickCap == 0 {
		cfg.Env.TickCap = arena.TickCap
	}
	if cfg.Env.Lives == 0 {
		cfg.Env.Lives = arena.Lives
	}
	if cfg.Env.SpawnInterval == 0 {
		cfg.Env.SpawnInterval = arena.SpawnInterval
	}
	if cfg.Env.MaxAsteroids == 0 {
		cfg.Env.MaxAsteroids = arena.MaxAsteroids
	}
	if len(cfg.NN.Hidden) == 0 {
		cfg.NN.Hidden = []int{12, 8}
	}
	if len(cfg.NN.Activations) == 0 {
		for range cfg.NN.Hidden {
			cfg.NN.Activations = append(cfg.NN.Activations, "relu")
		}
		cfg.NN.Activations = append(cfg.NN.Activations, "softmax")
	}

	stock := ga.DefaultParams()
	if cfg.GA.Population == 0 {
		cfg.GA.Population = 50
	}
	if cfg.GA.TournamentK == 0 {
		cfg.GA.TournamentK = stock.TournamentK
	}
	if cfg.GA.MaxTournament == 0 {
		cfg.GA.MaxTournament = stock.MaxTournament
	}
	if cfg.GA.CrossoverJitter == 0 {
		cfg.GA.CrossoverJitter = stock.CrossoverJitter
	}
	if cfg.GA.MutationRate == 0 {
		cfg.GA.MutationRate = stock.MutationRate
	}
	if cfg.GA.MutationStrength == 0 {
		cfg.GA.MutationStrength = stock.MutationStrength
	}
	if cfg.GA.RateDecay == 0 {
		cfg.GA.RateDecay = stock.RateDecay
	}
	if cfg.GA.StrengthDecay == 0 {
		cfg.GA.StrengthDecay = stock.StrengthDecay
	}
	if cfg.GA.MutationFloor == 0 {
		cfg.GA.MutationFloor = stock.MutationFloor
	}
	if cfg.Eval.BenchmarkEvery == 0 {
		cfg.Eval.BenchmarkEvery = 25
	}
	if len(cfg.Eval.BenchmarkSeeds) == 0 {
		cfg.Eval.BenchmarkSeeds = []int{2000, 2001, 2002, 2003, 2004}
	}
	if cfg.Fitness.ScoreW == 0 {
		cfg.Fitness.ScoreW = 1.0
	}
	if cfg.Fitness.SurvivalW == 0 {
		cfg.Fitness.SurvivalW = 100.0
	}
	if cfg.Fitness.MinDistinctActions == 0 {
		cfg.Fitness.MinDistinctActions = env.NumActions
	}
	if cfg.Logging.TopNDebug == 0 {
		cfg.Logging.TopNDebug = 5
	}
	if cfg.Logging.SaveChampionEvery == 0 {
		cfg.Logging.SaveChampionEvery = 50
	}
	if cfg.Logging.ReplayEvery == 0 {
		cfg.Logging.ReplayEvery = 100
	}
	if cfg.Logging.CSVPath == "" {
		cfg.Logging.CSVPath = "runs/run.csv"
	}
	if cfg.Logging.JSONPath == "" {
		cfg.Logging.JSONPath = "runs/run.jsonl"
	}
	if cfg.Logging.ArtifactsDir == "" {
		cfg.Logging.ArtifactsDir = "artifacts"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "runs/asteroidsai.db"
	}
}

// Validate rejects configs the engine cannot run
func (c *Config) Validate() error {
	if c.GA.Population < 2 {
		return fmt.Errorf("population must be at least 2, got %d", c.GA.Population)
	}
	if c.GA.Elites < 0 || c.GA.Elites > c.GA.Population {
		return fmt.Errorf("elites must be within [0, %d], got %d", c.GA.Population, c.GA.Elites)
	}
	if c.GA.MaxTournament < 1 {
		return fmt.Errorf("max_tournament must be positive, got %d", c.GA.MaxTournament)
	}
	if c.GA.TournamentK < 1 {
		return fmt.Errorf("tournament_k must be positive, got %d", c.GA.TournamentK)
	}
	if c.Fitness.MinDistinctActions > env.NumActions {
		return fmt.Errorf("min_distinct_actions %d exceeds the %d available actions", c.Fitness.MinDistinctActions, env.NumActions)
	}
	if c.Env.TickCap <= 0 || c.Env.Dt <= 0 {
		return fmt.Errorf("tick_cap and dt must be positive")
	}
	_, err := c.Architecture()
	return err
}

// ObsDim returns the observation dimension fed to the network
func (c *Config) ObsDim() int {
	return env.ObsDim
}

// ActionCount returns the number of network outputs
func (c *Config) ActionCount() int {
	return env.NumActions
}

// LayerSizes returns input size, hidden sizes and output size in order
func (c *Config) LayerSizes() []int {
	sizes := append([]int{c.ObsDim()}, c.NN.Hidden...)
	return append(sizes, c.ActionCount())
}

// Architecture builds the network recipe described by the nn section
func (c *Config) Architecture() (nn.Architecture, error) {
	acts := make([]nn.Activation, len(c.NN.Activations))
	for i, name := range c.NN.Activations {
		a, err := nn.ParseActivation(name)
		if err != nil {
			return nn.Architecture{}, err
		}
		acts[i] = a
	}
	arch := nn.Architecture{Sizes: c.LayerSizes(), Activations: acts}
	return arch, arch.Validate()
}

// GAParams converts the ga section into engine parameters
func (c *Config) GAParams() ga.Params {
	return ga.Params{
		Seed:             c.Seed,
		Elites:           c.GA.Elites,
		TournamentK:      c.GA.TournamentK,
		MaxTournament:    c.GA.MaxTournament,
		CrossoverJitter:  c.GA.CrossoverJitter,
		MutationRate:     c.GA.MutationRate,
		MutationStrength: c.GA.MutationStrength,
		RateDecay:        c.GA.RateDecay,
		StrengthDecay:    c.GA.StrengthDecay,
		MutationFloor:    c.GA.MutationFloor,
		Workers:          c.Eval.Workers,
	}
}

// Settings converts the env section into arena settings
func (e EnvConfig) Settings() env.Settings {
	return env.Settings{
		Width:         e.Width,
		Height:        e.Height,
		Dt:            e.Dt,
		TickCap:       e.TickCap,
		Lives:         e.Lives,
		SpawnInterval: e.SpawnInterval,
		MaxAsteroids:  e.MaxAsteroids,
	}
}

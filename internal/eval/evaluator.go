package eval

import (
	"asteroidsai/internal/config"
	"asteroidsai/internal/env"
	"asteroidsai/internal/nn"
)

// Evaluator handles episode evaluation and fitness computation
type Evaluator struct {
	settings env.Settings
	fitness  config.FitnessConfig
	seeds    []int
}

// NewEvaluator creates a new evaluator
func NewEvaluator(cfg *config.Config) *Evaluator {
	return &Evaluator{
		settings: cfg.Env.Settings(),
		fitness:  cfg.Fitness,
		seeds:    cfg.Eval.BenchmarkSeeds,
	}
}

// Settings returns the arena every episode runs in
func (e *Evaluator) Settings() env.Settings {
	return e.settings
}

// RunEpisode plays one episode with agent as the policy and returns its fitness
func (e *Evaluator) RunEpisode(agent *nn.MLP, seed uint32) (float64, error) {
	stats, err := e.EvaluateAgent(agent, seed)
	if err != nil {
		return 0, err
	}
	return stats.Fitness, nil
}

// EvaluateAgent runs a single episode with the given agent and seed
func (e *Evaluator) EvaluateAgent(agent *nn.MLP, seed uint32) (env.EpisodeStats, error) {
	return e.play(agent, seed, nil)
}

// EvaluateWithReplay runs an episode and records actions for replay
func (e *Evaluator) EvaluateWithReplay(agent *nn.MLP, seed uint32) (*env.Replay, env.EpisodeStats, error) {
	replay := env.NewReplay(seed, e.settings)
	stats, err := e.play(agent, seed, replay)
	if err != nil {
		return nil, env.EpisodeStats{}, err
	}
	replay.SetFinalStats(stats)
	return replay, stats, nil
}

func (e *Evaluator) play(agent *nn.MLP, seed uint32, replay *env.Replay) (env.EpisodeStats, error) {
	game := env.NewGame(e.settings, seed)
	for game.Alive {
		action, err := agent.Decide(env.Observe(game))
		if err != nil {
			return env.EpisodeStats{}, err
		}
		if replay != nil {
			replay.Record(env.Action(action))
		}
		game.Step(env.Action(action))
	}

	stats := game.Stats(seed)
	stats.Fitness = e.ComputeFitness(stats)
	return stats, nil
}

// ComputeFitness combines score and survival time. Agents that never used
// enough of their controls score exactly zero, which selection treats as
// disqualified.
func (e *Evaluator) ComputeFitness(stats env.EpisodeStats) float64 {
	if stats.DistinctActions < e.fitness.MinDistinctActions {
		return 0
	}
	survival := float64(stats.Ticks) / float64(e.settings.TickCap)
	return e.fitness.ScoreW*stats.Score + e.fitness.SurvivalW*survival
}

// EvaluateMultiSeed evaluates an agent across consecutive seeds
func (e *Evaluator) EvaluateMultiSeed(agent *nn.MLP, baseSeed, numSeeds int) (env.AggregatedStats, error) {
	episodes := make([]env.EpisodeStats, numSeeds)
	for i := range episodes {
		stats, err := e.EvaluateAgent(agent, uint32(baseSeed+i))
		if err != nil {
			return env.AggregatedStats{}, err
		}
		episodes[i] = stats
	}
	return env.Aggregate(episodes), nil
}

// RunBenchmark evaluates agents on the fixed benchmark seed suite
func (e *Evaluator) RunBenchmark(agents []*nn.MLP) ([]env.AggregatedStats, error) {
	results := make([]env.AggregatedStats, len(agents))
	for i, agent := range agents {
		episodes := make([]env.EpisodeStats, len(e.seeds))
		for j, seed := range e.seeds {
			stats, err := e.EvaluateAgent(agent, uint32(seed))
			if err != nil {
				return nil, err
			}
			episodes[j] = stats
		}
		results[i] = env.Aggregate(episodes)
	}
	return results, nil
}

package eval

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"asteroidsai/internal/config"
	"asteroidsai/internal/env"
	"asteroidsai/internal/ga"
	"asteroidsai/internal/nn"
)

func shortConfig() *config.Config {
	cfg := config.Default()
	cfg.Env.TickCap = 200
	cfg.GA.Population = 6
	cfg.Eval.BenchmarkSeeds = []int{11, 12}
	return cfg
}

func randomNet(t *testing.T, cfg *config.Config, seed int64) *nn.MLP {
	t.Helper()
	arch, err := cfg.Architecture()
	require.NoError(t, err)
	net, err := arch.New(rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return net
}

// constantNet always picks action
func constantNet(t *testing.T, action int) *nn.MLP {
	t.Helper()
	bias := make([]float64, env.NumActions)
	bias[action] = 1
	l, err := nn.NewLayer(mat.NewDense(env.ObsDim, env.NumActions, nil), mat.NewVecDense(env.NumActions, bias), nn.Softmax)
	require.NoError(t, err)
	net, err := nn.New(l)
	require.NoError(t, err)
	return net
}

func TestComputeFitness(t *testing.T) {
	e := NewEvaluator(shortConfig())

	stats := env.EpisodeStats{Score: 100, Ticks: 100, DistinctActions: env.NumActions}
	// 1*100 + 100*(100/200)
	assert.InDelta(t, 150.0, e.ComputeFitness(stats), 1e-9)

	stats.DistinctActions = env.NumActions - 1
	assert.Equal(t, 0.0, e.ComputeFitness(stats))
}

func TestSingleActionPolicyScoresZero(t *testing.T) {
	e := NewEvaluator(shortConfig())
	stats, err := e.EvaluateAgent(constantNet(t, int(env.ActionShoot)), 3)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.DistinctActions)
	assert.Equal(t, 0.0, stats.Fitness)
	assert.Greater(t, stats.Ticks, 0)
}

func TestRunEpisodeIsDeterministic(t *testing.T) {
	cfg := shortConfig()
	e := NewEvaluator(cfg)
	net := randomNet(t, cfg, 5)

	a, err := e.RunEpisode(net, 99)
	require.NoError(t, err)
	b, err := e.RunEpisode(net, 99)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunEpisodeRejectsWrongInputSize(t *testing.T) {
	l, err := nn.NewDenseLayer(3, env.NumActions, nn.Softmax, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	net, err := nn.New(l)
	require.NoError(t, err)

	_, err = NewEvaluator(shortConfig()).RunEpisode(net, 1)
	assert.ErrorIs(t, err, nn.ErrShape)
}

func TestReplayReproducesEpisode(t *testing.T) {
	cfg := shortConfig()
	e := NewEvaluator(cfg)
	net := randomNet(t, cfg, 8)

	replay, stats, err := e.EvaluateWithReplay(net, 21)
	require.NoError(t, err)
	require.Len(t, replay.Actions, stats.Ticks)
	assert.Equal(t, stats, replay.FinalStats)

	g := replay.Playback()
	replay.PlaybackStep(g, len(replay.Actions))
	assert.False(t, g.Alive)
	assert.Equal(t, stats.Ticks, g.Tick)
	assert.Equal(t, stats.Score, g.Score)
}

func TestBenchmarkAndMultiSeed(t *testing.T) {
	cfg := shortConfig()
	e := NewEvaluator(cfg)
	nets := []*nn.MLP{randomNet(t, cfg, 1), randomNet(t, cfg, 2), constantNet(t, 0)}

	results, err := e.RunBenchmark(nets)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, 2, r.NumEpisodes)
	}
	assert.Equal(t, 0.0, results[2].FitnessMean)

	agg, err := e.EvaluateMultiSeed(nets[0], 40, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, agg.NumEpisodes)
}

func TestEngineTrainsWithEvaluator(t *testing.T) {
	cfg := shortConfig()
	// random networks rarely touch every control
	cfg.Fitness.MinDistinctActions = 1
	arch, err := cfg.Architecture()
	require.NoError(t, err)

	engine := ga.NewEngine(NewEvaluator(cfg), cfg.GAParams(), nil)
	require.NoError(t, engine.Initialize(cfg.GA.Population, func(rng *rand.Rand) (*nn.MLP, error) {
		return arch.New(rng)
	}))

	history, err := engine.Train(2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Len(t, h.Fitness, cfg.GA.Population)
		assert.GreaterOrEqual(t, h.Max, h.Mean)
	}
	assert.Equal(t, cfg.GA.Population, engine.Population().Size())
}

package ga

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asteroidsai/internal/nn"
)

var testArch = nn.Architecture{
	Sizes:       []int{5, 12, 8, 4},
	Activations: []nn.Activation{nn.ReLU, nn.ReLU, nn.Softmax},
}

// weightFitness scores a network by its first weight so the same network always scores the same
var weightFitness = EpisodeFunc(func(agent *nn.MLP, _ uint32) (float64, error) {
	return 1 + math.Abs(agent.Layers[0].WeightData()[0]), nil
})

func newTestEngine(t *testing.T, runner EpisodeRunner, size int) *Engine {
	t.Helper()
	params := DefaultParams()
	params.Workers = 4
	e := NewEngine(runner, params, rand.New(rand.NewSource(99)))
	require.NoError(t, e.Initialize(size, testArch.New))
	return e
}

func TestSelectElitesAndPoolSize(t *testing.T) {
	e := newTestEngine(t, weightFitness, 4)
	agents := e.Population().Agents

	pool, err := e.Select([]float64{1.0, 3.0, 2.0, 0.0})
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Same(t, agents[1], pool[0])
	assert.Same(t, agents[2], pool[1])
}

func TestSelectFillsWithTournamentWinners(t *testing.T) {
	e := newTestEngine(t, weightFitness, 10)
	fitness := []float64{5, 0, 1, 2, 0, 3, 4, 0, 6, 7}

	pool, err := e.Select(fitness)
	require.NoError(t, err)
	require.Len(t, pool, 5)
	assert.Same(t, e.Population().Agents[9], pool[0])
	assert.Same(t, e.Population().Agents[8], pool[1])
	for _, a := range pool[2:] {
		idx := indexOf(e.Population().Agents, a)
		require.GreaterOrEqual(t, idx, 0)
		assert.NotZero(t, fitness[idx])
	}
}

func TestSelectAllZeroFitnessFails(t *testing.T) {
	e := newTestEngine(t, weightFitness, 8)

	_, err := e.Select(make([]float64, 8))
	assert.ErrorIs(t, err, ErrEmptyPopulation)
}

func TestTournamentNeverPicksZero(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	fitness := []float64{0, 0, 5, 0}
	for i := 0; i < 50; i++ {
		winner, err := TournamentSelect(fitness, 3, 1000, rng)
		require.NoError(t, err)
		assert.Equal(t, 2, winner)
	}
}

func TestElitesTieBreakByIndex(t *testing.T) {
	idx, err := Elites([]float64{2, 5, 5, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, idx)

	_, err = Elites([]float64{1}, 2)
	assert.ErrorIs(t, err, ErrEmptyPopulation)
}

func TestSelectParentsNeedsTwo(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, _, err := SelectParents([]*Agent{{}}, rng)
	assert.ErrorIs(t, err, ErrEmptyPopulation)

	a, b := &Agent{}, &Agent{}
	for i := 0; i < 20; i++ {
		p1, p2, err := SelectParents([]*Agent{a, b}, rng)
		require.NoError(t, err)
		assert.NotSame(t, p1, p2)
	}
}

func TestCrossoverPreservesShapeAndParents(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a, err := testArch.New(rng)
	require.NoError(t, err)
	b, err := testArch.New(rng)
	require.NoError(t, err)
	aBefore, bBefore := a.Clone(), b.Clone()

	child, err := UniformCrossover(a, b, 0.01, rng)
	require.NoError(t, err)
	assert.True(t, child.Topology().Equal(a.Topology()))
	for i := range a.Layers {
		assert.Equal(t, aBefore.Layers[i].WeightData(), a.Layers[i].WeightData())
		assert.Equal(t, bBefore.Layers[i].WeightData(), b.Layers[i].WeightData())
	}

	// without jitter every gene comes from one of the parents
	child, err = UniformCrossover(a, b, 0, rng)
	require.NoError(t, err)
	for i, l := range child.Layers {
		for j, w := range l.WeightData() {
			assert.True(t, w == a.Layers[i].WeightData()[j] || w == b.Layers[i].WeightData()[j])
		}
	}
}

func TestCrossoverRejectsDifferentTopologies(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a, err := testArch.New(rng)
	require.NoError(t, err)
	b, err := nn.Architecture{Sizes: []int{5, 8, 4}, Activations: []nn.Activation{nn.ReLU, nn.Softmax}}.New(rng)
	require.NoError(t, err)

	_, err = UniformCrossover(a, b, 0.01, rng)
	assert.ErrorIs(t, err, ErrIncompatibleGenomes)
}

func TestMutateZeroStrengthOrRateIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	net, err := testArch.New(rng)
	require.NoError(t, err)
	before := net.Clone()

	Mutate(net, 1.0, 0, rng)
	Mutate(net, 0, 5.0, rng)
	for i := range net.Layers {
		assert.Equal(t, before.Layers[i].WeightData(), net.Layers[i].WeightData())
		assert.Equal(t, before.Layers[i].BiasData(), net.Layers[i].BiasData())
	}

	Mutate(net, 1.0, 0.5, rng)
	assert.NotEqual(t, before.Layers[0].WeightData(), net.Layers[0].WeightData())
}

func TestAnnealSchedule(t *testing.T) {
	p := DefaultParams()
	s := Anneal(p, 0)
	assert.InDelta(t, 0.1, s.Rate, 1e-12)
	assert.InDelta(t, 0.5, s.Strength, 1e-12)

	s = Anneal(p, 10)
	assert.InDelta(t, 0.1*math.Pow(0.99, 10), s.Rate, 1e-12)
	assert.InDelta(t, 0.5*math.Pow(0.98, 10), s.Strength, 1e-12)

	s = Anneal(p, 5000)
	assert.Equal(t, 0.01, s.Rate)
	assert.Equal(t, 0.01, s.Strength)
}

func TestAdvanceGenerationKeepsSizeAndElites(t *testing.T) {
	e := newTestEngine(t, weightFitness, 12)

	for gen := 0; gen < 5; gen++ {
		prev := e.Population()
		assert.Equal(t, Anneal(DefaultParams(), gen), e.Schedule())

		stats, err := e.AdvanceGeneration()
		require.NoError(t, err)
		assert.Equal(t, gen, stats.Generation)
		assert.Equal(t, gen+1, e.Generation())
		require.Equal(t, 12, e.Population().Size())
		assert.Len(t, stats.Fitness, 12)
		assert.LessOrEqual(t, stats.Mean, stats.Max)

		best := prev.Best()
		elite := e.Population().Agents[0]
		assert.Equal(t, best.Net.Layers[0].WeightData(), elite.Net.Layers[0].WeightData())
		assert.NotSame(t, best.Net, elite.Net)

		score, err := weightFitness(elite.Net, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, stats.Max)
	}

	champ := e.Champion()
	require.NotNil(t, champ)
	assert.GreaterOrEqual(t, champ.Fitness, 1.0)
}

func TestTrainReturnsHistory(t *testing.T) {
	e := newTestEngine(t, weightFitness, 6)

	history, err := e.Train(3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, h := range history {
		assert.Equal(t, i, h.Generation)
	}
	assert.Equal(t, 3, e.Generation())
}

func TestTrainingIsReproducible(t *testing.T) {
	a := newTestEngine(t, weightFitness, 8)
	b := newTestEngine(t, weightFitness, 8)

	for i := range a.Population().Agents {
		assert.Equal(t, a.Population().Agents[i].Net.Layers[1].WeightData(), b.Population().Agents[i].Net.Layers[1].WeightData())
	}

	ha, err := a.Train(3)
	require.NoError(t, err)
	hb, err := b.Train(3)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	for i := range a.Population().Agents {
		assert.Equal(t, a.Population().Agents[i].Net.Layers[2].BiasData(), b.Population().Agents[i].Net.Layers[2].BiasData())
	}
}

func TestEvaluationFailureAbortsGeneration(t *testing.T) {
	boom := errors.New("episode crashed")
	var broken *nn.MLP
	e := newTestEngine(t, EpisodeFunc(func(agent *nn.MLP, _ uint32) (float64, error) {
		if agent == broken {
			return 0, boom
		}
		return 1, nil
	}), 16)
	broken = e.Population().Agents[7].Net

	_, err := e.AdvanceGeneration()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, e.Generation())
	assert.Equal(t, 16, e.Population().Size())
	assert.Same(t, broken, e.Population().Agents[7].Net)
}

func TestEngineRequiresInitialize(t *testing.T) {
	e := NewEngine(weightFitness, DefaultParams(), nil)
	assert.False(t, e.Ready())

	_, err := e.AdvanceGeneration()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = e.Select([]float64{1, 2})
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, e.Initialize(1, testArch.New), ErrEmptyPopulation)
}

func TestInitializeRejectsMixedTopologies(t *testing.T) {
	small := nn.Architecture{Sizes: []int{5, 4}, Activations: []nn.Activation{nn.Softmax}}
	n := 0
	factory := func(rng *rand.Rand) (*nn.MLP, error) {
		n++
		if n == 2 {
			return small.New(rng)
		}
		return testArch.New(rng)
	}
	e := NewEngine(weightFitness, DefaultParams(), nil)
	assert.ErrorIs(t, e.Initialize(4, factory), ErrIncompatibleGenomes)
}

func indexOf(agents []*Agent, a *Agent) int {
	for i, x := range agents {
		if x == a {
			return i
		}
	}
	return -1
}

package ga

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"asteroidsai/internal/nn"
)

var (
	ErrEmptyPopulation     = errors.New("population too small")
	ErrIncompatibleGenomes = errors.New("incompatible genomes")
	ErrNotInitialized      = errors.New("engine not initialized")
)

// EpisodeRunner plays one full episode with agent as the policy and returns its fitness.
// Implementations must not share mutable state between concurrent calls.
type EpisodeRunner interface {
	RunEpisode(agent *nn.MLP, seed uint32) (float64, error)
}

// EpisodeFunc adapts a plain function to EpisodeRunner
type EpisodeFunc func(agent *nn.MLP, seed uint32) (float64, error)

func (f EpisodeFunc) RunEpisode(agent *nn.MLP, seed uint32) (float64, error) {
	return f(agent, seed)
}

// Factory builds one freshly initialized network
type Factory func(rng *rand.Rand) (*nn.MLP, error)

// Params tunes the engine
type Params struct {
	Seed             int64
	Elites           int
	TournamentK      int
	MaxTournament    int // attempts before tournament selection gives up
	CrossoverJitter  float64
	MutationRate     float64
	MutationStrength float64
	RateDecay        float64
	StrengthDecay    float64
	MutationFloor    float64
	Workers          int
}

// DefaultParams returns the stock tuning
func DefaultParams() Params {
	return Params{
		Seed:             1337,
		Elites:           2,
		TournamentK:      3,
		MaxTournament:    1000,
		CrossoverJitter:  0.01,
		MutationRate:     0.1,
		MutationStrength: 0.5,
		RateDecay:        0.99,
		StrengthDecay:    0.98,
		MutationFloor:    0.01,
	}
}

// GenerationStats summarizes one evaluated generation
type GenerationStats struct {
	Generation int
	Max        float64
	Mean       float64
	Fitness    []float64 // population order
}

// Engine drives generational optimization of a population of networks
type Engine struct {
	params Params
	runner EpisodeRunner
	rng    *rand.Rand

	pop        *Population
	size       int
	generation int

	// nil until first requested in the current generation
	schedule *Schedule
	champion *Agent
}

// NewEngine creates an engine; call Initialize before training
func NewEngine(runner EpisodeRunner, params Params, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(params.Seed))
	}
	return &Engine{params: params, runner: runner, rng: rng}
}

// Initialize builds size independent networks with factory
func (e *Engine) Initialize(size int, factory Factory) error {
	if size < 2 || size < e.params.Elites {
		return fmt.Errorf("%w: size %d with %d elites", ErrEmptyPopulation, size, e.params.Elites)
	}
	agents := make([]*Agent, size)
	for i := range agents {
		net, err := factory(e.rng)
		if err != nil {
			return fmt.Errorf("build individual %d: %w", i, err)
		}
		if i > 0 && !net.Topology().Equal(agents[0].Net.Topology()) {
			return fmt.Errorf("%w: factory produced differing topologies", ErrIncompatibleGenomes)
		}
		agents[i] = &Agent{Net: net}
	}
	e.pop = &Population{Agents: agents}
	e.size = size
	e.generation = 0
	e.schedule = nil
	e.champion = nil
	return nil
}

// Ready reports whether Initialize has run
func (e *Engine) Ready() bool {
	return e.pop != nil
}

// Population returns the current population
func (e *Engine) Population() *Population {
	return e.pop
}

// Generation returns the number of completed generations
func (e *Engine) Generation() int {
	return e.generation
}

// Champion returns a copy of the fittest agent evaluated so far, or nil
func (e *Engine) Champion() *Agent {
	if e.champion == nil {
		return nil
	}
	return e.champion.Clone()
}

// Schedule returns the annealed mutation parameters for the current generation
func (e *Engine) Schedule() Schedule {
	if e.schedule == nil {
		s := Anneal(e.params, e.generation)
		e.schedule = &s
	}
	return *e.schedule
}

// EvaluatePopulation scores every member with the episode runner. Members are
// evaluated concurrently, and the result is indexed in population order.
func (e *Engine) EvaluatePopulation() ([]float64, error) {
	if !e.Ready() {
		return nil, ErrNotInitialized
	}
	workers := e.params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	seed := uint32(e.params.Seed + int64(e.generation))

	fitness := make([]float64, len(e.pop.Agents))
	errs := make([]error, len(e.pop.Agents))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, agent := range e.pop.Agents {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, a *Agent) {
			defer wg.Done()
			defer func() { <-sem }()
			fitness[i], errs[i] = e.runner.RunEpisode(a.Net, seed)
		}(i, agent)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("evaluate individual %d: %w", i, err)
		}
	}
	for i, a := range e.pop.Agents {
		a.Fitness = fitness[i]
	}
	return fitness, nil
}

// Select builds the breeding pool: the elites followed by tournament winners,
// population_size/2 members in total (at least the elites and never fewer than two).
func (e *Engine) Select(fitness []float64) ([]*Agent, error) {
	if !e.Ready() {
		return nil, ErrNotInitialized
	}
	if len(fitness) != len(e.pop.Agents) {
		return nil, fmt.Errorf("%w: %d fitness values for %d individuals", ErrEmptyPopulation, len(fitness), len(e.pop.Agents))
	}
	target := e.size / 2
	if target < e.params.Elites {
		target = e.params.Elites
	}
	if target < 2 {
		target = 2
	}
	idx, err := SelectionPool(fitness, e.params.Elites, e.params.TournamentK, target, e.params.MaxTournament, e.rng)
	if err != nil {
		return nil, err
	}
	pool := make([]*Agent, len(idx))
	for i, j := range idx {
		pool[i] = e.pop.Agents[j]
	}
	return pool, nil
}

// Crossover produces a child of a and b
func (e *Engine) Crossover(a, b *nn.MLP) (*nn.MLP, error) {
	return UniformCrossover(a, b, e.params.CrossoverJitter, e.rng)
}

// Mutate perturbs net in place
func (e *Engine) Mutate(net *nn.MLP, rate, strength float64) {
	Mutate(net, rate, strength, e.rng)
}

// AdvanceGeneration evaluates the population, breeds its replacement and
// returns the evaluated generation's max and mean fitness. Elites are carried
// unmutated into the first slots of the new population.
func (e *Engine) AdvanceGeneration() (GenerationStats, error) {
	fitness, err := e.EvaluatePopulation()
	if err != nil {
		return GenerationStats{}, err
	}
	pool, err := e.Select(fitness)
	if err != nil {
		return GenerationStats{}, err
	}

	if best := e.pop.Best(); e.champion == nil || best.Fitness > e.champion.Fitness {
		e.champion = best.Clone()
	}

	schedule := e.Schedule()
	next := make([]*Agent, 0, e.size)
	for i := 0; i < e.params.Elites; i++ {
		next = append(next, pool[i].Clone())
	}
	for len(next) < e.size {
		p1, p2, err := SelectParents(pool, e.rng)
		if err != nil {
			return GenerationStats{}, err
		}
		child, err := CreateChild(p1, p2, e.params.CrossoverJitter, e.rng)
		if err != nil {
			return GenerationStats{}, err
		}
		MutateAgent(child, schedule, e.rng)
		next = append(next, child)
	}

	stats := GenerationStats{
		Generation: e.generation,
		Max:        floats.Max(fitness),
		Mean:       stat.Mean(fitness, nil),
		Fitness:    fitness,
	}

	e.pop = &Population{Agents: next}
	e.generation++
	e.schedule = nil
	return stats, nil
}

// Train runs n generations and returns each generation's stats
func (e *Engine) Train(n int) ([]GenerationStats, error) {
	history := make([]GenerationStats, 0, n)
	for i := 0; i < n; i++ {
		stats, err := e.AdvanceGeneration()
		if err != nil {
			return history, fmt.Errorf("generation %d: %w", e.generation, err)
		}
		history = append(history, stats)
	}
	return history, nil
}


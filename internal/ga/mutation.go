package ga

import (
	"math"
	"math/rand"

	"asteroidsai/internal/nn"
)

// Mutate applies Gaussian mutation to every weight and bias in-place.
// Each gene is perturbed with probability rate by N(0, strength).
func Mutate(net *nn.MLP, rate, strength float64, rng *rand.Rand) {
	for _, l := range net.Layers {
		mutateGenes(l.WeightData(), rate, strength, rng)
		mutateGenes(l.BiasData(), rate, strength, rng)
	}
}

func mutateGenes(genes []float64, rate, strength float64, rng *rand.Rand) {
	for i := range genes {
		if rng.Float64() < rate {
			genes[i] += rng.NormFloat64() * strength
		}
	}
}

// MutateAgent applies mutation to an agent's network
func MutateAgent(a *Agent, s Schedule, rng *rand.Rand) {
	Mutate(a.Net, s.Rate, s.Strength, rng)
}

// Schedule is the mutation rate and strength in effect for one generation
type Schedule struct {
	Rate     float64
	Strength float64
}

// Anneal decays the base mutation parameters geometrically with the
// generation number, never dropping below the floor.
func Anneal(p Params, generation int) Schedule {
	g := float64(generation)
	return Schedule{
		Rate:     math.Max(p.MutationFloor, p.MutationRate*math.Pow(p.RateDecay, g)),
		Strength: math.Max(p.MutationFloor, p.MutationStrength*math.Pow(p.StrengthDecay, g)),
	}
}

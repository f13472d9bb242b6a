package ga

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"asteroidsai/internal/nn"
)

// UniformCrossover builds a child that takes every weight and bias from p1 or
// p2 with equal probability, then adds gaussian jitter of the given scale to
// all of them. Parents are left untouched.
func UniformCrossover(p1, p2 *nn.MLP, jitter float64, rng *rand.Rand) (*nn.MLP, error) {
	if !p1.Topology().Equal(p2.Topology()) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrIncompatibleGenomes, p1.Topology(), p2.Topology())
	}

	layers := make([]*nn.Layer, len(p1.Layers))
	for i := range p1.Layers {
		l1, l2 := p1.Layers[i], p2.Layers[i]
		in, out := l1.Dims()

		weights := mixGenes(l1.WeightData(), l2.WeightData(), jitter, rng)
		biases := mixGenes(l1.BiasData(), l2.BiasData(), jitter, rng)

		l, err := nn.NewLayer(mat.NewDense(in, out, weights), mat.NewVecDense(out, biases), l1.Activation)
		if err != nil {
			return nil, err
		}
		layers[i] = l
	}
	return nn.New(layers...)
}

func mixGenes(g1, g2 []float64, jitter float64, rng *rand.Rand) []float64 {
	child := make([]float64, len(g1))
	for i := range child {
		if rng.Float64() < 0.5 {
			child[i] = g1[i]
		} else {
			child[i] = g2[i]
		}
		child[i] += rng.NormFloat64() * jitter
	}
	return child
}

// CreateChild creates a single child from two parents using crossover
func CreateChild(p1, p2 *Agent, jitter float64, rng *rand.Rand) (*Agent, error) {
	child, err := UniformCrossover(p1.Net, p2.Net, jitter, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{Net: child}, nil
}

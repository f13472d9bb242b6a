package nn

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrShape             = errors.New("input shape mismatch")
	ErrUnknownActivation = errors.New("unknown activation")
)

// MLP is a fixed-topology feedforward network. It carries no state between
// calls, so Forward and Decide are safe for concurrent use.
type MLP struct {
	Layers []*Layer
}

// New builds an MLP from layers ordered input to output
func New(layers ...*Layer) (*MLP, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: network needs at least one layer", ErrDimensionMismatch)
	}
	for i, l := range layers {
		if l == nil {
			return nil, fmt.Errorf("%w: layer %d is nil", ErrDimensionMismatch, i)
		}
		if i == 0 {
			continue
		}
		_, prevOut := layers[i-1].Dims()
		in, _ := l.Dims()
		if prevOut != in {
			return nil, fmt.Errorf("%w: layer %d outputs %d but layer %d expects %d", ErrDimensionMismatch, i-1, prevOut, i, in)
		}
	}
	return &MLP{Layers: layers}, nil
}

// InputSize is the observation length the network accepts
func (m *MLP) InputSize() int {
	in, _ := m.Layers[0].Dims()
	return in
}

// OutputSize is the number of values (actions) the last layer produces
func (m *MLP) OutputSize() int {
	_, out := m.Layers[len(m.Layers)-1].Dims()
	return out
}

// GenomeSize returns the total number of weights (including biases)
func (m *MLP) GenomeSize() int {
	size := 0
	for _, l := range m.Layers {
		in, out := l.Dims()
		size += (in + 1) * out
	}
	return size
}

// Forward runs the input through every layer and returns the final activations
func (m *MLP) Forward(input []float64) ([]float64, error) {
	if len(input) != m.InputSize() {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrShape, len(input), m.InputSize())
	}
	var x mat.Vector = mat.NewVecDense(len(input), append([]float64(nil), input...))
	for _, l := range m.Layers {
		x = l.Forward(x)
	}
	return x.(*mat.VecDense).RawVector().Data, nil
}

// Decide returns the index of the strongest output; ties go to the lowest index
func (m *MLP) Decide(observation []float64) (int, error) {
	out, err := m.Forward(observation)
	if err != nil {
		return 0, err
	}
	return argmax(out), nil
}

// Topology describes the shape of every layer
func (m *MLP) Topology() Topology {
	t := make(Topology, len(m.Layers))
	for i, l := range m.Layers {
		in, out := l.Dims()
		t[i] = LayerShape{In: in, Out: out, Activation: l.Activation}
	}
	return t
}

// Clone makes a deep copy of the network
func (m *MLP) Clone() *MLP {
	layers := make([]*Layer, len(m.Layers))
	for i, l := range m.Layers {
		layers[i] = l.Clone()
	}
	return &MLP{Layers: layers}
}

// LayerShape is the shape of a single layer
type LayerShape struct {
	In         int
	Out        int
	Activation Activation
}

// Topology is the ordered list of layer shapes of a network
type Topology []LayerShape

// Equal reports whether two topologies match layer for layer
func (t Topology) Equal(o Topology) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

// Architecture is the recipe for building fresh random networks
type Architecture struct {
	Sizes       []int        // input size followed by each layer's output size
	Activations []Activation // one per layer, len(Sizes)-1
}

// Validate checks that the sizes and activations line up
func (a Architecture) Validate() error {
	if len(a.Sizes) < 2 {
		return fmt.Errorf("%w: need an input size and at least one layer", ErrDimensionMismatch)
	}
	if len(a.Activations) != len(a.Sizes)-1 {
		return fmt.Errorf("%w: %d layers but %d activations", ErrDimensionMismatch, len(a.Sizes)-1, len(a.Activations))
	}
	for _, s := range a.Sizes {
		if s <= 0 {
			return fmt.Errorf("%w: non-positive layer size %d", ErrDimensionMismatch, s)
		}
	}
	return nil
}

// New builds a randomly initialized network for this architecture
func (a Architecture) New(rng *rand.Rand) (*MLP, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	layers := make([]*Layer, len(a.Activations))
	for i, act := range a.Activations {
		l, err := NewDenseLayer(a.Sizes[i], a.Sizes[i+1], act, rng)
		if err != nil {
			return nil, err
		}
		layers[i] = l
	}
	return New(layers...)
}

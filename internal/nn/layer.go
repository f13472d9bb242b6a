package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Layer is a dense layer: activation(input · Weights + Biases).
// Weights has one row per input neuron and one column per output neuron.
type Layer struct {
	Weights    *mat.Dense
	Biases     *mat.VecDense
	Activation Activation
}

// NewLayer wraps existing parameters, checking that they agree
func NewLayer(weights *mat.Dense, biases *mat.VecDense, act Activation) (*Layer, error) {
	if weights == nil || biases == nil {
		return nil, fmt.Errorf("%w: nil weights or biases", ErrDimensionMismatch)
	}
	_, out := weights.Dims()
	if biases.Len() != out {
		return nil, fmt.Errorf("%w: %d output columns but %d biases", ErrDimensionMismatch, out, biases.Len())
	}
	if !act.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivation, act)
	}
	return &Layer{Weights: weights, Biases: biases, Activation: act}, nil
}

// NewDenseLayer creates a layer with He-scaled gaussian weights and zero biases
func NewDenseLayer(in, out int, act Activation, rng *rand.Rand) (*Layer, error) {
	if in <= 0 || out <= 0 {
		return nil, fmt.Errorf("%w: layer %dx%d", ErrDimensionMismatch, in, out)
	}
	scale := HeScale(in)
	data := make([]float64, in*out)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return NewLayer(mat.NewDense(in, out, data), mat.NewVecDense(out, nil), act)
}

// HeScale is sqrt(2/fanIn), the Kaiming factor for ReLU-gated layers
func HeScale(fanIn int) float64 {
	return math.Sqrt(2.0 / float64(fanIn))
}

// Dims returns the layer's input and output sizes
func (l *Layer) Dims() (in, out int) {
	return l.Weights.Dims()
}

// Forward applies the layer to x and returns a freshly allocated output
func (l *Layer) Forward(x mat.Vector) *mat.VecDense {
	var z mat.VecDense
	z.MulVec(l.Weights.T(), x)
	z.AddVec(&z, l.Biases)
	l.Activation.Apply(z.RawVector().Data)
	return &z
}

// WeightData exposes the row-major backing slice of the weight matrix
func (l *Layer) WeightData() []float64 {
	return l.Weights.RawMatrix().Data
}

// BiasData exposes the backing slice of the bias vector
func (l *Layer) BiasData() []float64 {
	return l.Biases.RawVector().Data
}

// Clone makes a deep copy of the layer
func (l *Layer) Clone() *Layer {
	return &Layer{
		Weights:    mat.DenseCopyOf(l.Weights),
		Biases:     mat.VecDenseCopyOf(l.Biases),
		Activation: l.Activation,
	}
}

package nn

import (
	"fmt"
	"math"
	"strings"
)

// Activation tags the nonlinearity applied after a layer's affine step
type Activation uint8

const (
	ReLU Activation = iota
	Softmax
)

func (a Activation) String() string {
	switch a {
	case ReLU:
		return "relu"
	case Softmax:
		return "softmax"
	default:
		return fmt.Sprintf("activation(%d)", uint8(a))
	}
}

// Valid reports whether a is a known activation
func (a Activation) Valid() bool {
	return a == ReLU || a == Softmax
}

// ParseActivation maps a config name to its activation tag
func ParseActivation(name string) (Activation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "relu":
		return ReLU, nil
	case "softmax":
		return Softmax, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
}

// Apply evaluates the activation in place
func (a Activation) Apply(v []float64) {
	switch a {
	case ReLU:
		relu(v)
	case Softmax:
		softmax(v)
	}
}

func relu(v []float64) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
}

// softmax subtracts the max before exponentiating so large logits cannot overflow
func softmax(v []float64) {
	if len(v) == 0 {
		return
	}
	maxVal := v[0]
	for _, x := range v[1:] {
		if x > maxVal {
			maxVal = x
		}
	}
	var sum float64
	for i, x := range v {
		v[i] = math.Exp(x - maxVal)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}

func argmax(vals []float64) int {
	maxIdx := 0
	maxVal := vals[0]
	for i := 1; i < len(vals); i++ {
		if vals[i] > maxVal {
			maxVal = vals[i]
			maxIdx = i
		}
	}
	return maxIdx
}

package nn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Neuron is one computational unit: a weight vector, a constant bias
// input and an activation. The weight layout is fanIn input weights
// followed by one bias weight in the last slot.
//
// A Neuron is not safe for concurrent evaluation; the engine guarantees
// at most one in-flight evaluation per unit, so Evaluate does no
// locking.
type Neuron struct {
	weights    []float64
	activation Activation
	bias       float64

	lastOutput float64
	hasOutput  bool
}

// NewNeuron allocates a unit with fanIn+1 weights. With an RNG the
// weights draw from Uniform(-1/sqrt(fanIn+1), 1/sqrt(fanIn+1)) and the
// bias weight is bias scaled by a draw from the same distribution;
// without one every weight starts at zero.
func NewNeuron(activation Activation, fanIn int, bias float64, rng *rand.Rand) (*Neuron, error) {
	if activation == nil {
		return nil, fmt.Errorf("%w: nil activation", ErrInvalidArgument)
	}
	if fanIn < 0 {
		return nil, fmt.Errorf("%w: negative fan-in %d", ErrInvalidArgument, fanIn)
	}
	n := &Neuron{
		weights:    make([]float64, fanIn+1),
		activation: activation,
		bias:       bias,
	}
	if rng != nil {
		bound := 1.0 / math.Sqrt(float64(fanIn+1))
		dist := distuv.Uniform{Min: -bound, Max: bound, Src: rng}
		for i := 0; i < fanIn; i++ {
			n.weights[i] = dist.Rand()
		}
		n.weights[fanIn] = bias * dist.Rand()
	}
	return n, nil
}

// Evaluate computes activation(inputs . weights[:fanIn] + biasWeight*bias),
// caches it as the unit's last output and returns it.
func (n *Neuron) Evaluate(inputs []float64) (float64, error) {
	fanIn := len(n.weights) - 1
	if len(inputs) != fanIn {
		return 0, fmt.Errorf("%w: got %d inputs, want %d", ErrInvalidInput, len(inputs), fanIn)
	}
	sum := floats.Dot(inputs, n.weights[:fanIn]) + n.weights[fanIn]*n.bias
	out := n.activation.Apply(sum)
	n.lastOutput = out
	n.hasOutput = true
	return out, nil
}

// Weights returns the live weight vector, bias slot last. Training
// collaborators mutate it directly; callers must keep training and
// inference phases serialized.
func (n *Neuron) Weights() []float64 { return n.weights }

// SetWeights copies w over the unit's weights. Length is the only check.
func (n *Neuron) SetWeights(w []float64) error {
	if len(w) != len(n.weights) {
		return fmt.Errorf("%w: got %d weights, want %d", ErrInvalidInput, len(w), len(n.weights))
	}
	copy(n.weights, w)
	return nil
}

// LastOutput reports the cached result of the most recent evaluation.
// The second return is false when the unit has not fired since
// construction or the last Reset.
func (n *Neuron) LastOutput() (float64, bool) { return n.lastOutput, n.hasOutput }

// Reset clears the cached output.
func (n *Neuron) Reset() {
	n.lastOutput = 0
	n.hasOutput = false
}

// FanIn returns the number of inputs the unit expects.
func (n *Neuron) FanIn() int { return len(n.weights) - 1 }

// Bias returns the constant bias input.
func (n *Neuron) Bias() float64 { return n.bias }

// Activation returns the unit's activation.
func (n *Neuron) Activation() Activation { return n.activation }

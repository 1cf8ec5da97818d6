package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	xrand "golang.org/x/exp/rand"
)

func TestNewNeuronValidation(t *testing.T) {
	_, err := NewNeuron(nil, 3, 1, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewNeuron(Linear{}, -1, 1, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNeuronZeroInitWithoutRNG(t *testing.T) {
	n, err := NewNeuron(Sigmoid{}, 4, 1, nil)
	require.NoError(t, err)
	require.Len(t, n.Weights(), 5)
	for i, w := range n.Weights() {
		require.Equalf(t, 0.0, w, "weight %d", i)
	}
}

func TestNeuronRandomInitBounds(t *testing.T) {
	rng := xrand.New(xrand.NewSource(1))
	n, err := NewNeuron(Sigmoid{}, 99, 1, rng)
	require.NoError(t, err)

	bound := 1 / math.Sqrt(100)
	for i, w := range n.Weights() {
		require.LessOrEqualf(t, math.Abs(w), bound, "weight %d out of init range", i)
	}
}

func TestNeuronDeterministicInit(t *testing.T) {
	a, err := NewNeuron(Tanh{}, 7, 0.5, xrand.New(xrand.NewSource(42)))
	require.NoError(t, err)
	b, err := NewNeuron(Tanh{}, 7, 0.5, xrand.New(xrand.NewSource(42)))
	require.NoError(t, err)
	require.Equal(t, a.Weights(), b.Weights())
}

func TestNeuronEvaluate(t *testing.T) {
	n, err := NewNeuron(Linear{}, 3, 2, nil)
	require.NoError(t, err)
	require.NoError(t, n.SetWeights([]float64{1, 2, 3, 0.5}))

	out, err := n.Evaluate([]float64{1, 1, 1})
	require.NoError(t, err)
	require.Equal(t, 7.0, out) // 1+2+3 plus bias weight 0.5 times bias input 2

	cached, ok := n.LastOutput()
	require.True(t, ok)
	require.Equal(t, out, cached)
}

func TestNeuronEvaluateAppliesActivation(t *testing.T) {
	n, err := NewNeuron(Sigmoid{}, 2, 1, nil)
	require.NoError(t, err)
	require.NoError(t, n.SetWeights([]float64{0.5, -0.25, 0.1}))

	out, err := n.Evaluate([]float64{2, 4})
	require.NoError(t, err)
	want := 1 / (1 + math.Exp(-(0.5*2 - 0.25*4 + 0.1)))
	require.InDelta(t, want, out, 1e-15)
}

func TestNeuronEvaluateLengthMismatch(t *testing.T) {
	n, err := NewNeuron(Linear{}, 3, 1, nil)
	require.NoError(t, err)
	_, err = n.Evaluate([]float64{1, 2})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNeuronReset(t *testing.T) {
	n, err := NewNeuron(Linear{}, 1, 0, nil)
	require.NoError(t, err)

	_, ok := n.LastOutput()
	require.False(t, ok)

	_, err = n.Evaluate([]float64{3})
	require.NoError(t, err)
	_, ok = n.LastOutput()
	require.True(t, ok)

	n.Reset()
	v, ok := n.LastOutput()
	require.False(t, ok)
	require.Equal(t, 0.0, v)
}

func TestNeuronSetWeightsLength(t *testing.T) {
	n, err := NewNeuron(Linear{}, 2, 1, nil)
	require.NoError(t, err)
	require.ErrorIs(t, n.SetWeights([]float64{1, 2}), ErrInvalidInput)
}

func TestNeuronAccessors(t *testing.T) {
	n, err := NewNeuron(ReLU{}, 6, 0.25, nil)
	require.NoError(t, err)
	require.Equal(t, 6, n.FanIn())
	require.Equal(t, 0.25, n.Bias())
	require.Equal(t, "relu", n.Activation().String())
}

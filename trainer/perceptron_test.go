package trainer

import (
	"testing"

	"github.com/stretchr/testify/require"
	xrand "golang.org/x/exp/rand"

	"mlnet/nn"
)

func singleLayerNet(t *testing.T) *nn.Network {
	t.Helper()
	net, err := nn.NewNetwork(nn.Config{
		Topology:   []int{2, 2},
		Bias:       1,
		Activation: nn.ActivationFactory("linear"),
		Workers:    2,
	})
	require.NoError(t, err)
	return net
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, 0.1)
	require.ErrorIs(t, err, nn.ErrInvalidArgument)

	net := singleLayerNet(t)
	defer net.Close()
	_, err = New(net, 0)
	require.ErrorIs(t, err, nn.ErrInvalidArgument)
	_, err = New(net, -1)
	require.ErrorIs(t, err, nn.ErrInvalidArgument)
}

func TestTrainExampleLabelMismatch(t *testing.T) {
	net := singleLayerNet(t)
	defer net.Close()
	p, err := New(net, 0.5)
	require.NoError(t, err)

	_, err = p.TrainExample([]float64{1, 0}, []bool{true})
	require.ErrorIs(t, err, nn.ErrInvalidInput)
}

func TestTrainExampleUniformUpdate(t *testing.T) {
	net := singleLayerNet(t)
	defer net.Close()
	p, err := New(net, 1.0)
	require.NoError(t, err)

	// Zero weights score every output 0, so the single relevant label
	// ties the irrelevant one: exactly one violated pair. The update
	// moves each output unit by the full feature vector.
	violations, err := p.TrainExample([]float64{1, 0}, []bool{true, false})
	require.NoError(t, err)
	require.Equal(t, 1, violations)

	out := net.LayerUnits(net.LayerCount() - 1)
	require.Equal(t, []float64{1, 0, 1}, out[0].Weights())
	require.Equal(t, []float64{-1, 0, -1}, out[1].Weights())
}

func TestTrainExampleNoViolationsNoChange(t *testing.T) {
	net := singleLayerNet(t)
	defer net.Close()

	// Rig the output layer so label 0 already outranks label 1.
	out := net.LayerUnits(1)
	require.NoError(t, out[0].SetWeights([]float64{5, 0, 0}))
	require.NoError(t, out[1].SetWeights([]float64{-5, 0, 0}))

	p, err := New(net, 1.0)
	require.NoError(t, err)

	violations, err := p.TrainExample([]float64{1, 0}, []bool{true, false})
	require.NoError(t, err)
	require.Equal(t, 0, violations)
	require.Equal(t, []float64{5, 0, 0}, out[0].Weights())
	require.Equal(t, []float64{-5, 0, 0}, out[1].Weights())
}

func TestTrainEpochLengthMismatch(t *testing.T) {
	net := singleLayerNet(t)
	defer net.Close()
	p, err := New(net, 0.5)
	require.NoError(t, err)

	_, err = p.TrainEpoch([][]float64{{1, 0}}, nil)
	require.ErrorIs(t, err, nn.ErrInvalidInput)
}

func TestPerceptronConvergesOnSeparableData(t *testing.T) {
	net := singleLayerNet(t)
	defer net.Close()
	p, err := New(net, 0.5)
	require.NoError(t, err)

	inputs := [][]float64{
		{1, 0}, {0.9, 0.2}, {0.8, -0.1},
		{0, 1}, {0.1, 0.9}, {-0.2, 0.8},
	}
	labels := make([][]bool, len(inputs))
	for i, in := range inputs {
		labels[i] = []bool{in[0] > in[1], in[0] <= in[1]}
	}

	converged := false
	for epoch := 0; epoch < 100; epoch++ {
		violations, err := p.TrainEpoch(inputs, labels)
		require.NoError(t, err)
		if violations == 0 {
			converged = true
			break
		}
	}
	require.True(t, converged, "no violation-free epoch after 100 passes")
}

func TestTrainExampleOnlyTouchesOutputLayer(t *testing.T) {
	net, err := nn.NewNetwork(nn.Config{
		Topology:   []int{2, 3, 2},
		Bias:       1,
		Activation: nn.ActivationFactory("sigmoid"),
		RNG:        xrand.New(xrand.NewSource(8)),
		Workers:    2,
	})
	require.NoError(t, err)
	defer net.Close()

	hiddenBefore := make([][]float64, 0, 3)
	for _, unit := range net.LayerUnits(1) {
		hiddenBefore = append(hiddenBefore, append([]float64(nil), unit.Weights()...))
	}

	input := []float64{0.5, -0.4}
	scores, err := net.FeedForward(input)
	require.NoError(t, err)

	// Mark only the currently losing output as relevant so the update
	// is guaranteed to fire.
	relevant := []bool{scores[0] < scores[1], scores[0] >= scores[1]}
	outBefore := append([]float64(nil), net.LayerUnits(2)[0].Weights()...)

	p, err := New(net, 0.5)
	require.NoError(t, err)
	violations, err := p.TrainExample(input, relevant)
	require.NoError(t, err)
	require.Equal(t, 1, violations)

	for j, unit := range net.LayerUnits(1) {
		require.Equalf(t, hiddenBefore[j], unit.Weights(), "hidden unit %d changed", j)
	}
	require.NotEqual(t, outBefore, net.LayerUnits(2)[0].Weights())
}

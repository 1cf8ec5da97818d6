// Package trainer applies online weight corrections to a network's
// output layer between feed-forward passes.
package trainer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"mlnet/nn"
)

// Perceptron is an online multilabel perceptron over a network's output
// layer. After each feed-forward pass it corrects every ranking
// violation between relevant and irrelevant outputs, distributing the
// correction uniformly across the violated pairs.
//
// It reads cached unit outputs left by the pass and mutates weight
// vectors in place, so training must not overlap in-flight inference on
// the same network.
type Perceptron struct {
	net  *nn.Network
	rate float64
}

// New wires a perceptron to a network's output layer.
func New(net *nn.Network, rate float64) (*Perceptron, error) {
	if net == nil {
		return nil, fmt.Errorf("%w: nil network", nn.ErrInvalidArgument)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: rate %v, want > 0", nn.ErrInvalidArgument, rate)
	}
	return &Perceptron{net: net, rate: rate}, nil
}

// TrainExample runs one feed-forward pass for input and corrects the
// output layer so relevant outputs rank above irrelevant ones. It
// returns the number of violated pairs found before the correction.
func (p *Perceptron) TrainExample(input []float64, relevant []bool) (int, error) {
	scores, err := p.net.FeedForward(input)
	if err != nil {
		return 0, err
	}
	if len(relevant) != len(scores) {
		return 0, fmt.Errorf("%w: got %d labels, want %d", nn.ErrInvalidInput, len(relevant), len(scores))
	}

	// The output layer saw the previous layer's cached outputs plus the
	// constant bias input, matching the weight layout bias-slot-last.
	prev := p.net.LayerUnits(p.net.LayerCount() - 2)
	features := make([]float64, len(prev)+1)
	for j, unit := range prev {
		v, ok := unit.LastOutput()
		if !ok {
			return 0, fmt.Errorf("%w: unit %d has no cached output", nn.ErrEvaluationFailure, j)
		}
		features[j] = v
	}
	features[len(prev)] = p.net.Bias()

	push := make([]float64, len(scores))
	violations := 0
	for r := range scores {
		if !relevant[r] {
			continue
		}
		for s := range scores {
			if relevant[s] {
				continue
			}
			if scores[r] <= scores[s] {
				push[r]++
				push[s]--
				violations++
			}
		}
	}
	if violations == 0 {
		return 0, nil
	}

	out := p.net.LayerUnits(p.net.LayerCount() - 1)
	for k, unit := range out {
		if push[k] == 0 {
			continue
		}
		step := p.rate * push[k] / float64(violations)
		floats.AddScaled(unit.Weights(), step, features)
	}
	return violations, nil
}

// TrainEpoch makes one pass over the samples and reports the total
// number of violated pairs corrected.
func (p *Perceptron) TrainEpoch(inputs [][]float64, labels [][]bool) (int, error) {
	if len(inputs) != len(labels) {
		return 0, fmt.Errorf("%w: %d inputs for %d label sets", nn.ErrInvalidInput, len(inputs), len(labels))
	}
	total := 0
	for i := range inputs {
		v, err := p.TrainExample(inputs[i], labels[i])
		if err != nil {
			return total, fmt.Errorf("sample %d: %w", i, err)
		}
		total += v
	}
	return total, nil
}

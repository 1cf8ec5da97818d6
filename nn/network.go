package nn

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/exp/rand"
)

// Config describes a network to build.
type Config struct {
	// Topology lists the unit count of every layer, input layer first.
	// It needs at least two entries, all positive.
	Topology []int

	// Bias is the constant bias input fed to every trainable unit.
	Bias float64

	// Activation builds one activation instance per trainable unit.
	Activation func() (Activation, error)

	// RNG seeds weight initialization. Nil leaves all weights at zero.
	RNG *rand.Rand

	// Workers fixes the evaluation pool size. Values below one pick the
	// machine's physical core count.
	Workers int

	// BarrierTimeout bounds each per-layer barrier wait during a
	// feed-forward pass. Zero waits indefinitely (subject to the
	// caller's context).
	BarrierTimeout time.Duration
}

// Network is a dense layered feed-forward network bound to a persistent
// evaluation pool. The topology is fixed at construction; only weights
// and cached outputs change afterwards.
//
// Weight vectors are shared with training collaborators without
// locking. Callers must serialize training, Reset and Output against
// in-flight feed-forward passes; concurrent feed-forward calls
// themselves are safe and run one at a time.
type Network struct {
	layers [][]*Neuron
	bias   float64

	engine *engine

	currentOutput []float64
}

// NewNetwork builds the network described by cfg, initializes every
// unit and starts the evaluation pool.
func NewNetwork(cfg Config) (*Network, error) {
	if len(cfg.Topology) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layers, got %d", ErrInvalidTopology, len(cfg.Topology))
	}
	for i, size := range cfg.Topology {
		if size <= 0 {
			return nil, fmt.Errorf("%w: layer %d has size %d", ErrInvalidTopology, i, size)
		}
	}
	if cfg.Activation == nil {
		return nil, fmt.Errorf("%w: nil activation factory", ErrInvalidArgument)
	}

	layers := make([][]*Neuron, len(cfg.Topology))

	// Layer 0 passes the raw input through: single weight fixed to 1,
	// bias weight 0, linear activation. Never trained.
	layers[0] = make([]*Neuron, cfg.Topology[0])
	for j := range layers[0] {
		layers[0][j] = passThroughNeuron()
	}

	for i := 1; i < len(cfg.Topology); i++ {
		fanIn := cfg.Topology[i-1]
		layers[i] = make([]*Neuron, cfg.Topology[i])
		for j := range layers[i] {
			act, err := cfg.Activation()
			if err != nil {
				return nil, fmt.Errorf("%w: activation factory: %v", ErrInvalidArgument, err)
			}
			unit, err := NewNeuron(act, fanIn, cfg.Bias, cfg.RNG)
			if err != nil {
				return nil, err
			}
			layers[i][j] = unit
		}
	}

	return &Network{
		layers: layers,
		bias:   cfg.Bias,
		engine: newEngine(workerCount(cfg.Workers), cfg.BarrierTimeout),
	}, nil
}

func passThroughNeuron() *Neuron {
	return &Neuron{
		weights:    []float64{1, 0},
		activation: Linear{},
	}
}

// workerCount resolves the pool size. Non-positive requests fall back
// to the physical core count, then to GOMAXPROCS when detection fails.
func workerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// FeedForward runs one full evaluation pass and returns the output
// layer's vector. The returned slice is the cached output buffer.
func (n *Network) FeedForward(input []float64) ([]float64, error) {
	return n.engine.run(context.Background(), n, input)
}

// FeedForwardContext is FeedForward with a caller-supplied context.
// Cancellation aborts the pass at the next layer barrier.
func (n *Network) FeedForwardContext(ctx context.Context, input []float64) ([]float64, error) {
	return n.engine.run(ctx, n, input)
}

// Output returns a copy of the most recent feed-forward result, or a
// zero vector of the output dimension when none has been computed since
// construction or Reset.
func (n *Network) Output() []float64 {
	out := make([]float64, n.OutputSize())
	copy(out, n.currentOutput)
	return out
}

// Reset drops the cached network output and every unit's cached output.
func (n *Network) Reset() {
	n.currentOutput = nil
	for _, layer := range n.layers {
		for _, unit := range layer {
			unit.Reset()
		}
	}
}

// Close stops the evaluation pool and waits for its workers to exit.
// It is idempotent. An evaluation in flight when Close is called fails
// with ErrEvaluationFailure; calls after Close fail the same way.
func (n *Network) Close() error {
	return n.engine.close()
}

// LayerCount returns the number of layers, input layer included.
func (n *Network) LayerCount() int { return len(n.layers) }

// LayerUnits returns the units of layer i in order.
func (n *Network) LayerUnits(i int) []*Neuron { return n.layers[i] }

// InputSize returns the input dimension.
func (n *Network) InputSize() int { return len(n.layers[0]) }

// OutputSize returns the output dimension.
func (n *Network) OutputSize() int { return len(n.layers[len(n.layers)-1]) }

// Bias returns the constant bias input shared by all trainable units.
func (n *Network) Bias() float64 { return n.bias }

// Workers returns the evaluation pool size.
func (n *Network) Workers() int { return n.engine.workers }

package nn

import (
	"encoding/gob"
	"fmt"
	"io"
	"time"
)

const snapshotVersion = 1

// PoolConfig carries the runtime knobs for a network rebuilt from a
// snapshot; everything else comes from the stored state.
type PoolConfig struct {
	// Workers fixes the pool size; values below one pick the physical
	// core count.
	Workers int

	// BarrierTimeout bounds each per-layer barrier wait.
	BarrierTimeout time.Duration
}

// snapshot is the gob wire form of a network's persistent state.
// Weights and activation names are layer-major over trainable units;
// the input layer is implied by Topology[0].
type snapshot struct {
	Version     int
	Topology    []int
	Bias        float64
	Activations []string
	Weights     [][]float64
}

// WriteSnapshot serializes the network's topology, bias, activation
// names and weights. The pool is not part of a snapshot; ReadSnapshot
// starts a fresh one.
func (n *Network) WriteSnapshot(w io.Writer) error {
	snap := snapshot{
		Version:  snapshotVersion,
		Topology: make([]int, len(n.layers)),
		Bias:     n.bias,
	}
	for i, layer := range n.layers {
		snap.Topology[i] = len(layer)
	}
	for i := 1; i < len(n.layers); i++ {
		for _, unit := range n.layers[i] {
			weights := make([]float64, len(unit.weights))
			copy(weights, unit.weights)
			snap.Weights = append(snap.Weights, weights)
			snap.Activations = append(snap.Activations, unit.activation.String())
		}
	}
	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot rebuilds a network from a snapshot written by
// WriteSnapshot and starts a fresh pool for it. Activations are
// resolved by name through the registry.
func ReadSnapshot(r io.Reader, pool PoolConfig) (*Network, error) {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return restore(&snap, pool)
}

func restore(snap *snapshot, pool PoolConfig) (*Network, error) {
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d, want %d", ErrInvalidArgument, snap.Version, snapshotVersion)
	}
	if len(snap.Topology) < 2 {
		return nil, fmt.Errorf("%w: snapshot has %d layers", ErrInvalidTopology, len(snap.Topology))
	}
	trainable := 0
	for i, size := range snap.Topology {
		if size <= 0 {
			return nil, fmt.Errorf("%w: layer %d has size %d", ErrInvalidTopology, i, size)
		}
		if i > 0 {
			trainable += size
		}
	}
	if len(snap.Weights) != trainable || len(snap.Activations) != trainable {
		return nil, fmt.Errorf("%w: snapshot carries %d weight vectors and %d activations for %d units",
			ErrInvalidInput, len(snap.Weights), len(snap.Activations), trainable)
	}

	layers := make([][]*Neuron, len(snap.Topology))
	layers[0] = make([]*Neuron, snap.Topology[0])
	for j := range layers[0] {
		layers[0][j] = passThroughNeuron()
	}

	k := 0
	for i := 1; i < len(snap.Topology); i++ {
		fanIn := snap.Topology[i-1]
		layers[i] = make([]*Neuron, snap.Topology[i])
		for j := range layers[i] {
			act, err := NewActivation(snap.Activations[k])
			if err != nil {
				return nil, err
			}
			unit, err := NewNeuron(act, fanIn, snap.Bias, nil)
			if err != nil {
				return nil, err
			}
			if err := unit.SetWeights(snap.Weights[k]); err != nil {
				return nil, fmt.Errorf("layer %d unit %d: %w", i, j, err)
			}
			layers[i][j] = unit
			k++
		}
	}

	return &Network{
		layers: layers,
		bias:   snap.Bias,
		engine: newEngine(workerCount(pool.Workers), pool.BarrierTimeout),
	}, nil
}

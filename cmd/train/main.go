// mlnet-train: Standalone online perceptron trainer
//
// Usage:
//
//	mlnet-train --arch="4 8 3" --epochs=20 --rate=0.1 --samples=200
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	xrand "golang.org/x/exp/rand"

	"mlnet/nn"
	"mlnet/trainer"
	"mlnet/utils"
)

var (
	arch       = flag.String("arch", "4 8 3", "Architecture: space-separated per-layer unit counts")
	activation = flag.String("activation", "sigmoid", "Activation: linear, sigmoid, tanh, relu")
	epochs     = flag.Int("epochs", 20, "Number of training epochs")
	rate       = flag.Float64("rate", 0.1, "Update rate")
	bias       = flag.Float64("bias", 1.0, "Constant bias input")
	seed       = flag.Int64("seed", 42, "Random seed")
	samples    = flag.Int("samples", 200, "Number of synthetic samples")
	workers    = flag.Int("workers", 0, "Worker pool size (0 = physical cores)")
	outputFile = flag.String("output", "", "Output weights file (JSON)")
	snapFile   = flag.String("snapshot", "", "Output snapshot file (gob)")
	verbose    = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                        mlnet Trainer                         ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")

	topology, err := utils.ParseArchitecture(*arch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid architecture %q: %v\n", *arch, err)
		os.Exit(1)
	}
	cfg := &utils.RunConfig{
		Architecture: topology,
		Samples:      *samples,
		Epochs:       *epochs,
		Workers:      *workers,
	}
	if err := utils.ValidateRunConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Architecture: %v\n", topology)
	fmt.Printf("  Activation:   %s\n", *activation)
	fmt.Printf("  Epochs:       %d\n", *epochs)
	fmt.Printf("  Update Rate:  %.4f\n", *rate)
	fmt.Printf("  Samples:      %d\n", *samples)
	fmt.Printf("  Workers:      %d\n", *workers)
	fmt.Println()

	stats := &utils.TimingStats{}
	totalStart := time.Now()

	start := time.Now()
	net, err := nn.NewNetwork(nn.Config{
		Topology:   topology,
		Bias:       *bias,
		Activation: nn.ActivationFactory(*activation),
		RNG:        xrand.New(xrand.NewSource(uint64(*seed))),
		Workers:    *workers,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building network: %v\n", err)
		os.Exit(1)
	}
	defer net.Close()
	stats.ModelInitTime = time.Since(start)
	fmt.Printf("Network: %d layers, %d workers\n", net.LayerCount(), net.Workers())

	fmt.Printf("Generating %d synthetic samples...\n", *samples)
	start = time.Now()
	dataRNG := rand.New(rand.NewSource(*seed))
	inputs, labels := generateData(dataRNG, net.InputSize(), net.OutputSize(), *samples)
	stats.DataGenTime = time.Since(start)

	p, err := trainer.New(net, *rate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building trainer: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nStarting training...")
	for epoch := 0; epoch < *epochs; epoch++ {
		epochStart := time.Now()
		violations, err := p.TrainEpoch(inputs, labels)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error in epoch %d: %v\n", epoch+1, err)
			os.Exit(1)
		}
		stats.UpdateTime += time.Since(epochStart)
		fmt.Printf("Epoch %d/%d | Violations: %d | Time: %.2fs\n",
			epoch+1, *epochs, violations, time.Since(epochStart).Seconds())
	}

	stats.TotalTime = time.Since(totalStart)
	fmt.Printf("\nTraining complete! Total time: %.2fs\n", stats.TotalTime.Seconds())

	if *verbose {
		utils.PrintTimingStats(stats, (*epochs)*(*samples))
	}

	if *outputFile != "" {
		fmt.Printf("\nSaving weights to %s...\n", *outputFile)
		start = time.Now()
		if err := utils.SaveWeights(*outputFile, utils.FromNetwork(net)); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
			os.Exit(1)
		}
		stats.SnapshotTime += time.Since(start)
		fmt.Println("Done!")
	}

	if *snapFile != "" {
		fmt.Printf("Writing snapshot to %s...\n", *snapFile)
		start = time.Now()
		if err := saveSnapshot(net, *snapFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
			os.Exit(1)
		}
		stats.SnapshotTime += time.Since(start)
		fmt.Println("Done!")
	}
}

// generateData builds random inputs labeled by the argmax of a fixed
// random projection, so the outputs carry learnable structure.
func generateData(r *rand.Rand, inputDim, outputDim, n int) ([][]float64, [][]bool) {
	proj := make([][]float64, outputDim)
	for k := range proj {
		proj[k] = make([]float64, inputDim)
		for j := range proj[k] {
			proj[k][j] = r.NormFloat64()
		}
	}

	inputs := make([][]float64, n)
	labels := make([][]bool, n)
	for i := 0; i < n; i++ {
		in := make([]float64, inputDim)
		for j := range in {
			in[j] = r.NormFloat64()
		}
		best, bestScore := 0, math.Inf(-1)
		for k := 0; k < outputDim; k++ {
			s := 0.0
			for j := range in {
				s += proj[k][j] * in[j]
			}
			if s > bestScore {
				best, bestScore = k, s
			}
		}
		lab := make([]bool, outputDim)
		lab[best] = true
		inputs[i] = in
		labels[i] = lab
	}
	return inputs, labels
}

func saveSnapshot(net *nn.Network, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := net.WriteSnapshot(f); err != nil {
		return err
	}
	return f.Close()
}

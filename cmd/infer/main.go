// mlnet-infer: Feed-forward inference using saved weights or snapshots
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"mlnet/nn"
	"mlnet/utils"
)

var (
	snapFile    = flag.String("snapshot", "", "Snapshot file (gob) written by mlnet-train")
	weightsFile = flag.String("weights", "", "Weights JSON file")
	arch        = flag.String("arch", "4 8 3", "Architecture, required with --weights")
	activation  = flag.String("activation", "sigmoid", "Activation, required with --weights")
	bias        = flag.Float64("bias", 1.0, "Constant bias input, required with --weights")
	inputFile   = flag.String("input", "", "Input JSON file (flat float array)")
	workers     = flag.Int("workers", 0, "Worker pool size (0 = physical cores)")
	topK        = flag.Int("topk", 3, "Top outputs to show")
	verbose     = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                       mlnet Inference                        ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")

	net, err := buildNetwork()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building network: %v\n", err)
		os.Exit(1)
	}
	defer net.Close()
	fmt.Printf("Network: %d layers, input %d, output %d\n",
		net.LayerCount(), net.InputSize(), net.OutputSize())

	input, err := loadInput(net.InputSize())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading input: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nRunning inference...")
	start := time.Now()
	output, err := net.FeedForward(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Inference time: %.4fs\n", time.Since(start).Seconds())

	showResults(output, *topK)
}

func buildNetwork() (*nn.Network, error) {
	if *snapFile != "" {
		f, err := os.Open(*snapFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return nn.ReadSnapshot(f, nn.PoolConfig{Workers: *workers})
	}

	topology, err := utils.ParseArchitecture(*arch)
	if err != nil {
		return nil, fmt.Errorf("invalid architecture %q: %w", *arch, err)
	}
	net, err := nn.NewNetwork(nn.Config{
		Topology:   topology,
		Bias:       *bias,
		Activation: nn.ActivationFactory(*activation),
		Workers:    *workers,
	})
	if err != nil {
		return nil, err
	}

	if *weightsFile == "" {
		fmt.Println("\nNo weights file. Running with zero weights (demo mode)...")
		return net, nil
	}
	weights, err := utils.LoadWeights(*weightsFile)
	if err != nil {
		net.Close()
		return nil, err
	}
	if err := utils.ApplyToNetwork(weights, net); err != nil {
		net.Close()
		return nil, err
	}
	fmt.Printf("Loaded %d layers from %s\n", len(weights.Layers), *weightsFile)
	return net, nil
}

func loadInput(dim int) ([]float64, error) {
	if *inputFile == "" {
		input := make([]float64, dim)
		for i := range input {
			input[i] = rand.Float64()
		}
		fmt.Printf("No input file; using %d random values\n", dim)
		return input, nil
	}
	data, err := os.ReadFile(*inputFile)
	if err != nil {
		return nil, err
	}
	var input []float64
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal input: %w", err)
	}
	return input, nil
}

func showResults(output []float64, k int) {
	fmt.Printf("\nOutput vector (%d values):\n  %v\n", len(output), output)

	if k > len(output) {
		k = len(output)
	}
	indices := topKIndices(output, k)
	fmt.Printf("\nTop %d outputs:\n", k)
	for i, idx := range indices {
		fmt.Printf("  %d. Unit %d: %.4f\n", i+1, idx, output[idx])
	}
}

func topKIndices(values []float64, k int) []int {
	indices := make([]int, len(values))
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		return values[indices[a]] > values[indices[b]]
	})
	return indices[:k]
}

// mlnet-bench: forward-pass throughput across worker-pool sizes
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	xrand "golang.org/x/exp/rand"

	"mlnet/nn"
	"mlnet/utils"
)

// parseCSVInts parses a comma-separated list of integers
func parseCSVInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

type benchRow struct {
	arch    string
	workers int
	avg     time.Duration
	min     time.Duration
	max     time.Duration
	speedup float64
}

func main() {
	var archsCSV string
	var workersCSV string
	var activation string
	var iters int
	var warmup int
	var seed int64
	var outPath string

	flag.StringVar(&archsCSV, "archs", "16 32 8,64 128 32 10", "Comma-separated list of architectures (each space-separated layer sizes)")
	flag.StringVar(&workersCSV, "workers", "1,2,4,8", "Comma-separated list of worker-pool sizes")
	flag.StringVar(&activation, "activation", "sigmoid", "Activation: linear, sigmoid, tanh, relu")
	flag.IntVar(&iters, "iters", 1000, "Timed forward passes per configuration")
	flag.IntVar(&warmup, "warmup", 50, "Warmup passes before timing")
	flag.Int64Var(&seed, "seed", 42, "Random seed for weights and inputs")
	flag.StringVar(&outPath, "out", "", "Optional output CSV path")
	flag.Parse()

	workerSizes, err := parseCSVInts(workersCSV)
	if err != nil || len(workerSizes) == 0 {
		fmt.Fprintf(os.Stderr, "invalid -workers %q: %v\n", workersCSV, err)
		os.Exit(2)
	}

	var rows []benchRow
	for _, archStr := range strings.Split(archsCSV, ",") {
		archStr = strings.TrimSpace(archStr)
		if archStr == "" {
			continue
		}
		topology, err := utils.ParseArchitecture(archStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid architecture %q: %v\n", archStr, err)
			os.Exit(2)
		}

		base := time.Duration(0)
		for _, w := range workerSizes {
			row, err := benchOne(topology, activation, w, iters, warmup, seed)
			if err != nil {
				fmt.Fprintf(os.Stderr, "bench %q workers=%d: %v\n", archStr, w, err)
				os.Exit(1)
			}
			row.arch = archStr
			if base == 0 {
				base = row.avg
			}
			row.speedup = float64(base) / float64(row.avg)
			rows = append(rows, row)
		}
	}

	printTable(rows)

	if outPath != "" {
		if err := writeCSV(outPath, rows); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", outPath, err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote %s\n", outPath)
	}
}

func benchOne(topology []int, activation string, workers, iters, warmup int, seed int64) (benchRow, error) {
	net, err := nn.NewNetwork(nn.Config{
		Topology:   topology,
		Bias:       1.0,
		Activation: nn.ActivationFactory(activation),
		RNG:        xrand.New(xrand.NewSource(uint64(seed))),
		Workers:    workers,
	})
	if err != nil {
		return benchRow{}, err
	}
	defer net.Close()

	r := rand.New(rand.NewSource(seed))
	input := make([]float64, net.InputSize())
	for i := range input {
		input[i] = r.NormFloat64()
	}

	for i := 0; i < warmup; i++ {
		if _, err := net.FeedForward(input); err != nil {
			return benchRow{}, err
		}
	}

	row := benchRow{workers: workers, min: time.Duration(1<<63 - 1)}
	total := time.Duration(0)
	for i := 0; i < iters; i++ {
		start := time.Now()
		if _, err := net.FeedForward(input); err != nil {
			return benchRow{}, err
		}
		d := time.Since(start)
		total += d
		if d < row.min {
			row.min = d
		}
		if d > row.max {
			row.max = d
		}
	}
	row.avg = total / time.Duration(iters)
	return row, nil
}

func printTable(rows []benchRow) {
	fmt.Printf("%-20s %8s %12s %12s %12s %9s\n",
		"architecture", "workers", "avg(us)", "min(us)", "max(us)", "speedup")
	for _, row := range rows {
		fmt.Printf("%-20s %8d %12.2f %12.2f %12.2f %8.2fx\n",
			row.arch, row.workers,
			utils.DurationUS(row.avg), utils.DurationUS(row.min), utils.DurationUS(row.max),
			row.speedup)
	}
}

func writeCSV(path string, rows []benchRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"architecture", "workers", "avg_us", "min_us", "max_us", "speedup"}); err != nil {
		return err
	}
	for _, row := range rows {
		rec := []string{
			row.arch,
			strconv.Itoa(row.workers),
			fmt.Sprintf("%.2f", utils.DurationUS(row.avg)),
			fmt.Sprintf("%.2f", utils.DurationUS(row.min)),
			fmt.Sprintf("%.2f", utils.DurationUS(row.max)),
			fmt.Sprintf("%.3f", row.speedup),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// RunConfig holds command configuration shared by the binaries
type RunConfig struct {
	Architecture []int
	Samples      int
	Epochs       int
	Workers      int
}

// ParseArchitecture parses an architecture string like "4 8 3" into
// per-layer unit counts
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.Fields(archStr)
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		arch[i] = n
	}
	return arch, nil
}

// ValidateRunConfig validates command configuration
func ValidateRunConfig(config *RunConfig) error {
	if len(config.Architecture) < 2 {
		return fmt.Errorf("architecture must have at least 2 layers (input and output)")
	}

	for _, n := range config.Architecture {
		if n <= 0 {
			return fmt.Errorf("layer sizes must be positive, got %d", n)
		}
	}

	if config.Samples <= 0 {
		return fmt.Errorf("samples must be positive")
	}

	if config.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive")
	}

	if config.Workers < 0 {
		return fmt.Errorf("workers must be zero (auto) or positive")
	}

	return nil
}

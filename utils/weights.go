package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"mlnet/nn"
)

// WeightData represents serializable weight data for a layer
type WeightData struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// ModelWeights represents all weights in a model
type ModelWeights struct {
	Version string                  `json:"version"`
	Bias    float64                 `json:"bias"`
	Layers  map[string]LayerWeights `json:"layers"`
}

// LayerWeights contains one trainable layer's weight matrix. Row k is
// unit k's weight vector with the bias weight in the last column.
type LayerWeights struct {
	Weights    *WeightData `json:"weights"`
	Activation string      `json:"activation,omitempty"`
}

// SaveWeights saves model weights to a JSON file
func SaveWeights(filepath string, weights *ModelWeights) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadWeights loads model weights from a JSON file
func LoadWeights(filepath string) (*ModelWeights, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	return &weights, nil
}

// FromNetwork extracts every trainable layer's weights into a
// serializable document. Layer keys count from 1; layer 0 is the
// pass-through input layer and carries no weights.
func FromNetwork(net *nn.Network) *ModelWeights {
	weights := &ModelWeights{
		Version: "1.0",
		Bias:    net.Bias(),
		Layers:  make(map[string]LayerWeights),
	}
	for i := 1; i < net.LayerCount(); i++ {
		units := net.LayerUnits(i)
		cols := units[0].FanIn() + 1
		data := make([]float64, 0, len(units)*cols)
		for _, unit := range units {
			data = append(data, unit.Weights()...)
		}
		weights.Layers[fmt.Sprintf("layer_%d", i)] = LayerWeights{
			Weights: &WeightData{
				Name:  fmt.Sprintf("layer_%d_weights", i),
				Shape: []int{len(units), cols},
				Data:  data,
			},
			Activation: units[0].Activation().String(),
		}
	}
	return weights
}

// ApplyToNetwork copies weights from a document into an already
// constructed network of matching shape.
func ApplyToNetwork(weights *ModelWeights, net *nn.Network) error {
	for i := 1; i < net.LayerCount(); i++ {
		key := fmt.Sprintf("layer_%d", i)
		lw, ok := weights.Layers[key]
		if !ok {
			return fmt.Errorf("weights document has no entry for %s", key)
		}
		if lw.Weights == nil {
			return fmt.Errorf("%s carries no weight data", key)
		}
		units := net.LayerUnits(i)
		cols := units[0].FanIn() + 1
		if len(lw.Weights.Shape) != 2 || lw.Weights.Shape[0] != len(units) || lw.Weights.Shape[1] != cols {
			return fmt.Errorf("%s shape %v, want [%d %d]", key, lw.Weights.Shape, len(units), cols)
		}
		if len(lw.Weights.Data) != len(units)*cols {
			return fmt.Errorf("%s data length %d, want %d", key, len(lw.Weights.Data), len(units)*cols)
		}
		for k, unit := range units {
			if err := unit.SetWeights(lw.Weights.Data[k*cols : (k+1)*cols]); err != nil {
				return fmt.Errorf("%s unit %d: %w", key, k, err)
			}
		}
	}
	return nil
}

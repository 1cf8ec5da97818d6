package nn

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// Activation is a pure scalar transform applied to a unit's weighted
// sum. Implementations must be stateless and safe for concurrent use by
// pool workers.
type Activation interface {
	Apply(sum float64) float64
	fmt.Stringer
}

type Linear struct{}

func (Linear) Apply(sum float64) float64 { return sum }

func (Linear) String() string { return "linear" }

type Sigmoid struct{}

func (Sigmoid) Apply(sum float64) float64 {
	return 1.0 / (1.0 + math.Exp(-sum))
}

func (Sigmoid) String() string { return "sigmoid" }

type Tanh struct{}

func (Tanh) Apply(sum float64) float64 { return math.Tanh(sum) }

func (Tanh) String() string { return "tanh" }

type ReLU struct{}

func (ReLU) Apply(sum float64) float64 { return math.Max(0, sum) }

func (ReLU) String() string { return "relu" }

var (
	activationsMu sync.RWMutex
	activations   = map[string]func() Activation{
		"linear":  func() Activation { return Linear{} },
		"sigmoid": func() Activation { return Sigmoid{} },
		"tanh":    func() Activation { return Tanh{} },
		"relu":    func() Activation { return ReLU{} },
	}
)

// RegisterActivation makes a custom activation available to
// NewActivation and to snapshot loading under the given name.
// Registering an existing name replaces it.
func RegisterActivation(name string, build func() Activation) error {
	if name == "" || build == nil {
		return fmt.Errorf("%w: activation registration needs a name and a builder", ErrInvalidArgument)
	}
	activationsMu.Lock()
	activations[strings.ToLower(name)] = build
	activationsMu.Unlock()
	return nil
}

// NewActivation returns a fresh instance of a registered activation.
// Lookup is case-insensitive.
func NewActivation(name string) (Activation, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty activation name", ErrInvalidArgument)
	}
	activationsMu.RLock()
	build, ok := activations[strings.ToLower(name)]
	activationsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown activation %q", ErrInvalidArgument, name)
	}
	return build(), nil
}

// ActivationFactory adapts a registered name to the per-unit factory
// expected by NewNetwork.
func ActivationFactory(name string) func() (Activation, error) {
	return func() (Activation, error) { return NewActivation(name) }
}

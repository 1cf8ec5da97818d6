package nn

import (
	"errors"
	"math"
	"testing"
)

func TestActivationValues(t *testing.T) {
	cases := []struct {
		act  Activation
		in   float64
		want float64
	}{
		{Linear{}, -3.5, -3.5},
		{Linear{}, 0, 0},
		{Linear{}, 42, 42},
		{Sigmoid{}, 0, 0.5},
		{Tanh{}, 0, 0},
		{ReLU{}, -1.5, 0},
		{ReLU{}, 0, 0},
		{ReLU{}, 2.5, 2.5},
	}
	for _, c := range cases {
		got := c.act.Apply(c.in)
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("%s(%v) = %v, want %v", c.act, c.in, got, c.want)
		}
	}
}

func TestSigmoidSaturates(t *testing.T) {
	s := Sigmoid{}
	for _, x := range []float64{-50, -5, -0.5, 0, 0.5, 5, 50} {
		y := s.Apply(x)
		if y < 0 || y > 1 {
			t.Errorf("sigmoid(%v) = %v, outside [0,1]", x, y)
		}
	}
	if got, want := s.Apply(2), 1/(1+math.Exp(-2)); math.Abs(got-want) > 1e-15 {
		t.Errorf("sigmoid(2) = %v, want %v", got, want)
	}
	t.Logf("sigmoid(-50) = %v, sigmoid(50) = %v", s.Apply(-50), s.Apply(50))
}

func TestTanhMatchesStdlib(t *testing.T) {
	th := Tanh{}
	for _, x := range []float64{-3, -0.7, 0, 0.7, 3} {
		if got, want := th.Apply(x), math.Tanh(x); got != want {
			t.Errorf("tanh(%v) = %v, want %v", x, got, want)
		}
	}
}

func TestNewActivationLookup(t *testing.T) {
	for _, name := range []string{"linear", "Sigmoid", "TANH", "relu"} {
		act, err := NewActivation(name)
		if err != nil {
			t.Fatalf("NewActivation(%q) failed: %v", name, err)
		}
		if act == nil {
			t.Fatalf("NewActivation(%q) returned nil", name)
		}
	}
}

func TestNewActivationUnknown(t *testing.T) {
	for _, name := range []string{"", "softplus"} {
		_, err := NewActivation(name)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("NewActivation(%q) error = %v, want ErrInvalidArgument", name, err)
		}
	}
}

type doubler struct{}

func (doubler) Apply(sum float64) float64 { return 2 * sum }

func (doubler) String() string { return "doubler" }

func TestRegisterActivation(t *testing.T) {
	if err := RegisterActivation("doubler", func() Activation { return doubler{} }); err != nil {
		t.Fatalf("RegisterActivation failed: %v", err)
	}
	act, err := NewActivation("doubler")
	if err != nil {
		t.Fatalf("NewActivation(doubler) failed: %v", err)
	}
	if got := act.Apply(3); got != 6 {
		t.Errorf("doubler(3) = %v, want 6", got)
	}

	if err := RegisterActivation("", func() Activation { return doubler{} }); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty name registration error = %v, want ErrInvalidArgument", err)
	}
	if err := RegisterActivation("nilbuilder", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil builder registration error = %v, want ErrInvalidArgument", err)
	}
}

func TestActivationFactory(t *testing.T) {
	factory := ActivationFactory("tanh")
	act, err := factory()
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	if act.String() != "tanh" {
		t.Errorf("factory built %q, want tanh", act.String())
	}

	_, err = ActivationFactory("missing")()
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("factory for unknown name error = %v, want ErrInvalidArgument", err)
	}
}

package nn

import "errors"

// Sentinel errors returned by construction and evaluation. Callers
// match them with errors.Is; returned errors carry extra detail via
// wrapping.
var (
	// ErrInvalidTopology reports a malformed layer-size sequence.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrInvalidArgument reports a bad construction argument, such as a
	// missing activation or a negative fan-in.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidInput reports an input vector whose length does not
	// match what the network or unit expects.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEvaluationFailure reports a feed-forward pass that could not
	// complete: a worker fault, a cancelled context, an expired barrier
	// wait, or a closed network. The network stays usable afterwards.
	ErrEvaluationFailure = errors.New("evaluation failure")
)

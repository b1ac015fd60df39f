package oracle

import (
	"context"
	"errors"

	"alma.local/evmfuzz/feedback"
)

// ErrNilObservers is returned when an oracle is asked to judge an execution
// without any observed signals.
var ErrNilObservers = errors.New("oracle: nil observers")

// Input is the candidate handed to an oracle.
type Input interface {
	// IsStep reports whether the input is an intermediate, not yet finished
	// multi-action sequence rather than a complete submission.
	IsStep() bool
}

// Oracle decides whether an executed candidate is worth keeping.
type Oracle interface {
	// Name returns a stable identifier used in reports and metadata keys.
	Name() string
	// IsInteresting judges one execution from its observed signals.
	IsInteresting(ctx context.Context, in Input, obs *feedback.Observers, exit feedback.ExitKind) (bool, error)
	// AppendMetadata annotates a testcase the campaign decided to keep.
	AppendMetadata(ctx context.Context, obs *feedback.Observers, tc *feedback.Testcase) error
}

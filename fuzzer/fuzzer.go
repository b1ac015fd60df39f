package fuzzer

import (
	"context"

	"alma.local/evmfuzz/feedback"
	"alma.local/evmfuzz/vm"
)

// Fuzzer defines the interface for a component that executes action
// sequences and reports the signals an oracle judges them by.
type Fuzzer interface {
	// Execute runs seq against the target and returns what was observed.
	Execute(ctx context.Context, seq *vm.Sequence) (*feedback.Observers, error)

	// Reset initializes the fuzzer's internal state (e.g., coverage counters).
	Reset()

	// TotalCoverage returns the cumulative coverage achieved by the fuzzer.
	TotalCoverage() float64

	// NewCoverage returns the coverage newly found in the last execution.
	NewCoverage() float64
}

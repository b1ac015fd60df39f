package fuzzer

import (
	"context"

	"alma.local/evmfuzz/feedback"
	"alma.local/evmfuzz/tracer"
	"alma.local/evmfuzz/vm"
)

var _ Fuzzer = (*InProcessFuzzer)(nil)

// InProcessFuzzer runs sequences on an executor living in the same process
// and keeps the worker's cumulative coverage.
type InProcessFuzzer struct {
	exec            *vm.Executor
	ring            *tracer.Ring
	globalSeenCIDs  map[uint64]struct{}
	currentCoverage float64
	lastNewCoverage float64
}

// NewInProcessFuzzer creates a fuzzer driving exec. The executor is shared
// with the worker's replay engine and must not be used by other workers.
func NewInProcessFuzzer(exec *vm.Executor, ringSize int) *InProcessFuzzer {
	return &InProcessFuzzer{
		exec:           exec,
		ring:           tracer.NewRing(ringSize),
		globalSeenCIDs: make(map[uint64]struct{}),
	}
}

func (ipf *InProcessFuzzer) Reset() {
	ipf.globalSeenCIDs = make(map[uint64]struct{})
	ipf.currentCoverage = 0.0
	ipf.lastNewCoverage = 0.0
}

func (ipf *InProcessFuzzer) TotalCoverage() float64 {
	return ipf.currentCoverage
}

func (ipf *InProcessFuzzer) NewCoverage() float64 {
	return ipf.lastNewCoverage
}

// Execute performs one fuzzing execution:
// 1. Runs seq on a fresh world, recording into the worker's ring.
// 2. Folds the trace into the cumulative coverage.
// 3. Reports the number of new CIDs in the signature.
func (ipf *InProcessFuzzer) Execute(ctx context.Context, seq *vm.Sequence) (*feedback.Observers, error) {
	obs, err := ipf.exec.Execute(ctx, seq, ipf.ring)
	if err != nil {
		return nil, err
	}

	newlySeenCount := 0
	for _, t := range obs.Trace {
		if _, seen := ipf.globalSeenCIDs[t.CID]; !seen {
			ipf.globalSeenCIDs[t.CID] = struct{}{}
			newlySeenCount++
		}
	}
	ipf.lastNewCoverage = float64(newlySeenCount)
	ipf.currentCoverage = float64(len(ipf.globalSeenCIDs))
	obs.Signature.NewCoverage = newlySeenCount
	return obs, nil
}

package feedback

import (
	"alma.local/evmfuzz/tracer"
)

// ExitKind classifies how an execution terminated.
type ExitKind int

const (
	ExitOk ExitKind = iota
	ExitRevert
	ExitOutOfGas
	ExitCrash
)

func (k ExitKind) String() string {
	switch k {
	case ExitOk:
		return "ok"
	case ExitRevert:
		return "revert"
	case ExitOutOfGas:
		return "out_of_gas"
	case ExitCrash:
		return "crash"
	default:
		return "unknown"
	}
}

// Signature is a compact representation of the target's behavior during one
// execution. It synthesizes key events from the raw executor output.
type Signature struct {
	Executions int // Number of actions executed
	Reverts    int // Number of actions that reverted
	Crashes    int // Number of actions that panicked inside a contract
	// NewCoverage is the number of CIDs in the trace never seen by the worker before.
	NewCoverage int
	// BugKinds counts how many times each bug category was observed (e.g., "Panic", "OutOfGas").
	BugKinds map[string]int
}

// NewSignature initializes a Signature with a non-nil BugKinds map.
func NewSignature() Signature {
	return Signature{
		BugKinds: make(map[string]int),
	}
}

// Observers bundles the signals observed while executing one candidate.
type Observers struct {
	Trace     []tracer.TraceEntry
	Signature Signature
	GasUsed   uint64
	Exit      ExitKind
}

// Testcase is a candidate the campaign decided to keep.
type Testcase struct {
	ID       string
	Input    any
	Exit     ExitKind
	Metadata map[string]string
	// TaintFacts holds the SSZ encoded taint snapshot gathered by a replay, if any.
	TaintFacts []byte
}

// NewTestcase returns a testcase with an initialized metadata map.
func NewTestcase(id string, input any, exit ExitKind) *Testcase {
	return &Testcase{
		ID:       id,
		Input:    input,
		Exit:     exit,
		Metadata: make(map[string]string),
	}
}

// SetMeta records a metadata entry, allocating the map if needed.
func (tc *Testcase) SetMeta(key, value string) {
	if tc.Metadata == nil {
		tc.Metadata = make(map[string]string)
	}
	tc.Metadata[key] = value
}

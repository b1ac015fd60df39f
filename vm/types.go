package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"alma.local/evmfuzz/oracle"
)

var (
	ErrRevert              = errors.New("vm: execution reverted")
	ErrOutOfGas            = errors.New("vm: out of gas")
	ErrUnknownContract     = errors.New("vm: unknown contract")
	ErrCalldataRange       = errors.New("vm: calldata range out of bounds")
	ErrUnsupportedInput    = errors.New("vm: unsupported input")
	ErrObserverUnsupported = errors.New("vm: observer does not implement vm.Observer")
)

var _ oracle.Input = (*Sequence)(nil)

// Action is a single call submitted to the executor.
type Action struct {
	Caller common.Address
	To     common.Address
	Value  *uint256.Int
	Data   []byte
}

// Clone returns a deep copy of the action.
func (a Action) Clone() Action {
	out := Action{
		Caller: a.Caller,
		To:     a.To,
		Data:   append([]byte(nil), a.Data...),
	}
	if a.Value != nil {
		out.Value = new(uint256.Int).Set(a.Value)
	}
	return out
}

// Sequence is an ordered list of actions. A step sequence is an intermediate
// prefix the scheduler intends to extend before it is finally judged.
type Sequence struct {
	Actions []Action
	Step    bool
}

func (s *Sequence) IsStep() bool {
	return s.Step
}

// Clone returns a deep copy of the sequence.
func (s *Sequence) Clone() *Sequence {
	out := &Sequence{
		Actions: make([]Action, len(s.Actions)),
		Step:    s.Step,
	}
	for i, a := range s.Actions {
		out.Actions[i] = a.Clone()
	}
	return out
}

func (s *Sequence) String() string {
	var b strings.Builder
	kind := "complete"
	if s.Step {
		kind = "step"
	}
	fmt.Fprintf(&b, "%s[%d]", kind, len(s.Actions))
	for _, a := range s.Actions {
		fmt.Fprintf(&b, " %s->%s:%x", a.Caller.Hex()[:8], a.To.Hex()[:8], a.Data)
	}
	return b.String()
}

// HashEvent describes one keccak computation whose preimage starts with
// calldata bytes [Offset, Offset+Length) of action Tx.
type HashEvent struct {
	Tx       int
	Contract common.Address
	Site     uint64
	Offset   int
	Length   int
	Digest   common.Hash
}

// Observer is notified of hash computations while it is attached to a run.
type Observer interface {
	OnHash(HashEvent)
}

// Contract is a Go-implemented account the executor can call.
type Contract interface {
	Call(env *Env, data []byte) ([]byte, error)
}

// ContractFunc adapts a function to the Contract interface.
type ContractFunc func(env *Env, data []byte) ([]byte, error)

func (f ContractFunc) Call(env *Env, data []byte) ([]byte, error) {
	return f(env, data)
}

package vm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"alma.local/evmfuzz/feedback"
	"alma.local/evmfuzz/oracle"
	"alma.local/evmfuzz/reexec"
	"alma.local/evmfuzz/tracer"
)

var _ reexec.ReplayEngine = (*Executor)(nil)

// Executor runs action sequences against Go-implemented contracts. World state
// starts empty on every run, so executing the same sequence twice observes the
// same behavior. An Executor belongs to one worker and is not safe for
// concurrent use.
type Executor struct {
	gasLimit  uint64
	contracts map[common.Address]Contract
	scratch   *tracer.Ring
	log       *zap.Logger
}

// NewExecutor creates an executor granting gasLimit to every action.
func NewExecutor(gasLimit uint64, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		gasLimit:  gasLimit,
		contracts: make(map[common.Address]Contract),
		scratch:   tracer.NewRing(1 << 12),
		log:       log,
	}
}

// Deploy registers c at addr, replacing any previous contract.
func (x *Executor) Deploy(addr common.Address, c Contract) {
	x.contracts[addr] = c
}

// Contracts returns the deployed addresses in ascending order.
func (x *Executor) Contracts() []common.Address {
	out := make([]common.Address, 0, len(x.contracts))
	for addr := range x.contracts {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// Execute runs seq, recording coverage into trace. A nil trace uses a scratch
// ring owned by the executor.
func (x *Executor) Execute(ctx context.Context, seq *Sequence, trace *tracer.Ring) (*feedback.Observers, error) {
	if trace == nil {
		trace = x.scratch
	}
	trace.Reset()
	return x.run(ctx, seq, trace, nil)
}

// ReplayWithObserver re-executes in with observer attached. The outcome of the
// replayed sequence is not reported; only attachment and cancellation
// failures are returned.
func (x *Executor) ReplayWithObserver(ctx context.Context, in oracle.Input, observer reexec.TaintTracker) error {
	seq, ok := in.(*Sequence)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedInput, in)
	}
	obs, ok := observer.(Observer)
	if !ok {
		return fmt.Errorf("%w: %T", ErrObserverUnsupported, observer)
	}
	x.scratch.Reset()
	if _, err := x.run(ctx, seq, x.scratch, []Observer{obs}); err != nil {
		return fmt.Errorf("vm: replay: %w", err)
	}
	return nil
}

func (x *Executor) run(ctx context.Context, seq *Sequence, trace *tracer.Ring, observers []Observer) (*feedback.Observers, error) {
	w := make(world)
	out := &feedback.Observers{
		Signature: feedback.NewSignature(),
		Exit:      feedback.ExitOk,
	}

	for i, a := range seq.Actions {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("vm: action %d: %w", i, err)
		}
		value := a.Value
		if value == nil {
			value = new(uint256.Int)
		}
		env := &Env{
			Caller:    a.Caller,
			Address:   a.To,
			Value:     value,
			tx:        i,
			data:      a.Data,
			gasLeft:   x.gasLimit,
			world:     w,
			trace:     trace,
			observers: observers,
		}

		exit := feedback.ExitRevert
		if c, ok := x.contracts[a.To]; ok {
			exit = x.call(c, env)
		}
		out.Signature.Executions++
		out.GasUsed += x.gasLimit - env.gasLeft
		trace.Record(actionCID(a), int64(exit))

		if exit == feedback.ExitOk {
			continue
		}
		out.Exit = exit
		switch exit {
		case feedback.ExitCrash:
			out.Signature.Crashes++
			out.Signature.BugKinds["Panic"]++
		case feedback.ExitOutOfGas:
			out.Signature.BugKinds["OutOfGas"]++
		default:
			out.Signature.Reverts++
		}
		break
	}

	out.Trace = trace.Snapshot()
	return out, nil
}

// call invokes a contract, turning panics into crashes.
func (x *Executor) call(c Contract, env *Env) (exit feedback.ExitKind) {
	defer func() {
		if r := recover(); r != nil {
			x.log.Debug("contract panicked",
				zap.Stringer("contract", env.Address),
				zap.Int("tx", env.tx),
				zap.Any("panic", r),
			)
			exit = feedback.ExitCrash
		}
	}()

	_, err := c.Call(env, env.data)
	switch {
	case err == nil:
		return feedback.ExitOk
	case errors.Is(err, ErrOutOfGas):
		return feedback.ExitOutOfGas
	default:
		return feedback.ExitRevert
	}
}

// actionCID identifies the (contract, selector) pair of an action.
func actionCID(a Action) uint64 {
	h := fnv.New64a()
	h.Write(a.To[:])
	if len(a.Data) > 0 {
		h.Write(a.Data[:1])
	}
	return h.Sum64()
}

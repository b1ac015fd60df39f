package oracle

import (
	"context"

	"alma.local/evmfuzz/feedback"
)

var _ Oracle = (*CrashOracle)(nil)

// CrashOracle keeps every execution that crashed inside a contract.
type CrashOracle struct{}

func (*CrashOracle) Name() string {
	return "crash"
}

func (*CrashOracle) IsInteresting(_ context.Context, _ Input, obs *feedback.Observers, exit feedback.ExitKind) (bool, error) {
	if obs == nil {
		return false, ErrNilObservers
	}
	return exit == feedback.ExitCrash, nil
}

func (*CrashOracle) AppendMetadata(_ context.Context, obs *feedback.Observers, tc *feedback.Testcase) error {
	if obs == nil {
		return ErrNilObservers
	}
	tc.SetMeta("exit", obs.Exit.String())
	return nil
}

package oracle

import (
	"context"
	"fmt"
	"strings"

	"alma.local/evmfuzz/feedback"
)

var _ Oracle = (*anyOracle)(nil)

type anyOracle struct {
	children []Oracle
}

// Any combines oracles with a logical OR. Every child is evaluated on every
// call so stateful children keep their models current.
func Any(children ...Oracle) Oracle {
	return &anyOracle{children: children}
}

func (a *anyOracle) Name() string {
	names := make([]string, len(a.children))
	for i, c := range a.children {
		names[i] = c.Name()
	}
	return "any(" + strings.Join(names, ",") + ")"
}

func (a *anyOracle) IsInteresting(ctx context.Context, in Input, obs *feedback.Observers, exit feedback.ExitKind) (bool, error) {
	verdict := false
	for _, c := range a.children {
		ok, err := c.IsInteresting(ctx, in, obs, exit)
		if err != nil {
			return false, fmt.Errorf("oracle: %s: %w", c.Name(), err)
		}
		verdict = verdict || ok
	}
	return verdict, nil
}

func (a *anyOracle) AppendMetadata(ctx context.Context, obs *feedback.Observers, tc *feedback.Testcase) error {
	for _, c := range a.children {
		if err := c.AppendMetadata(ctx, obs, tc); err != nil {
			return fmt.Errorf("oracle: %s metadata: %w", c.Name(), err)
		}
	}
	return nil
}

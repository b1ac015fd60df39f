package oracle

import (
	"context"
	"strconv"

	"alma.local/evmfuzz/feedback"
)

var _ Oracle = (*CoverageOracle)(nil)

// CoverageOracle keeps executions whose trace reaches CIDs it has never seen.
// It is owned by a single worker and is not safe for concurrent use.
type CoverageOracle struct {
	seen    map[uint64]struct{}
	lastNew int
}

func NewCoverageOracle() *CoverageOracle {
	return &CoverageOracle{
		seen: make(map[uint64]struct{}),
	}
}

func (*CoverageOracle) Name() string {
	return "coverage"
}

func (c *CoverageOracle) IsInteresting(_ context.Context, _ Input, obs *feedback.Observers, _ feedback.ExitKind) (bool, error) {
	if obs == nil {
		return false, ErrNilObservers
	}
	c.lastNew = 0
	for _, entry := range obs.Trace {
		if _, ok := c.seen[entry.CID]; ok {
			continue
		}
		c.seen[entry.CID] = struct{}{}
		c.lastNew++
	}
	return c.lastNew > 0, nil
}

func (c *CoverageOracle) AppendMetadata(_ context.Context, _ *feedback.Observers, tc *feedback.Testcase) error {
	tc.SetMeta("new_cids", strconv.Itoa(c.lastNew))
	return nil
}

// Covered returns the number of distinct CIDs seen so far.
func (c *CoverageOracle) Covered() int {
	return len(c.seen)
}

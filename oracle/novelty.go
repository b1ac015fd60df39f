package oracle

import (
	"context"
	"strconv"

	"alma.local/evmfuzz/feedback"
	"alma.local/evmfuzz/internal/analyzer"
)

var _ Oracle = (*NoveltyOracle)(nil)

// NoveltyOracle keeps executions whose trace value distribution diverges from
// everything observed so far by more than Threshold nats.
type NoveltyOracle struct {
	Threshold float64

	model     *analyzer.Analyzer
	lastScore float64
}

func NewNoveltyOracle(threshold float64) *NoveltyOracle {
	return &NoveltyOracle{
		Threshold: threshold,
		model:     analyzer.NewAnalyzer(),
	}
}

func (*NoveltyOracle) Name() string {
	return "novelty"
}

func (n *NoveltyOracle) IsInteresting(_ context.Context, _ Input, obs *feedback.Observers, _ feedback.ExitKind) (bool, error) {
	if obs == nil {
		return false, ErrNilObservers
	}
	n.lastScore = n.model.ScoreTrace(obs.Trace, true)
	return n.lastScore > n.Threshold, nil
}

func (n *NoveltyOracle) AppendMetadata(_ context.Context, _ *feedback.Observers, tc *feedback.Testcase) error {
	tc.SetMeta("novelty", strconv.FormatFloat(n.lastScore, 'f', 4, 64))
	return nil
}

// Dimensions returns the number of CIDs in the novelty model.
func (n *NoveltyOracle) Dimensions() int {
	return n.model.Dimensions()
}

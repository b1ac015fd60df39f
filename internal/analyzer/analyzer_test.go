package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"alma.local/evmfuzz/tracer"
)

func TestScoreEmptyTrace(t *testing.T) {
	a := NewAnalyzer()
	require.Zero(t, a.ScoreTrace(nil, true))
	require.Zero(t, a.Dimensions())
}

func TestUnseenValuesScoreHigher(t *testing.T) {
	a := NewAnalyzer()
	familiar := []tracer.TraceEntry{{CID: 1, Value: 10}, {CID: 2, Value: 20}}
	novel := []tracer.TraceEntry{{CID: 1, Value: 11}, {CID: 2, Value: 21}}

	for i := 0; i < 20; i++ {
		a.ScoreTrace(familiar, true)
	}

	require.Greater(t, a.ScoreTrace(novel, false), a.ScoreTrace(familiar, false))
	require.Equal(t, 2, a.Dimensions())
	require.Equal(t, uint64(40), a.Events())
}

func TestScoreWithoutUpdateLeavesModel(t *testing.T) {
	a := NewAnalyzer()
	a.ScoreTrace([]tracer.TraceEntry{{CID: 1, Value: 1}}, false)
	require.Zero(t, a.Dimensions())
	require.Zero(t, a.Events())
}

func TestHistogramProbability(t *testing.T) {
	h := NewHistogram()
	require.Zero(t, h.Probability(3))
	h.Add(3)
	h.Add(3)
	h.Add(4)
	require.InDelta(t, 2.0/3.0, h.Probability(3), 1e-9)
}

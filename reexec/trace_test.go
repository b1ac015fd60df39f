package reexec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"alma.local/evmfuzz/feedback"
)

func newTraced(t *testing.T, verdict bool, rec *recorder) (*Coordinator, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return New(fixedOracle(verdict), rec, rec, true, WithTracer(tp.Tracer("reexec-test"))), sr
}

func TestReplaySpanPerReplay(t *testing.T) {
	require := require.New(t)
	c, sr := newTraced(t, true, &recorder{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.IsInteresting(ctx, stepInput(false), &feedback.Observers{}, feedback.ExitOk)
		require.NoError(err)
	}

	spans := sr.Ended()
	require.Len(spans, 3)
	for _, s := range spans {
		require.Equal(replaySpan, s.Name())
		require.Equal(codes.Unset, s.Status().Code)
		require.Empty(s.Events())
	}
}

func TestReplaySpanRecordsFault(t *testing.T) {
	require := require.New(t)
	rec := &recorder{err: errors.New("engine inconsistency")}
	c, sr := newTraced(t, true, rec)

	_, err := c.IsInteresting(context.Background(), stepInput(false), &feedback.Observers{}, feedback.ExitOk)
	require.NoError(err)

	spans := sr.Ended()
	require.Len(spans, 1)
	require.Equal(codes.Error, spans[0].Status().Code)
	require.Contains(spans[0].Attributes(), attribute.Int("reexec.consecutive_faults", 1))
	require.Len(spans[0].Events(), 1)
	require.Equal("exception", spans[0].Events()[0].Name)
}

func TestNoSpanWithoutReplay(t *testing.T) {
	ctx := context.Background()

	c, sr := newTraced(t, true, &recorder{})
	_, err := c.IsInteresting(ctx, stepInput(true), &feedback.Observers{}, feedback.ExitOk)
	require.NoError(t, err)
	require.Empty(t, sr.Ended())

	c, sr = newTraced(t, false, &recorder{})
	_, err = c.IsInteresting(ctx, stepInput(false), &feedback.Observers{}, feedback.ExitOk)
	require.NoError(t, err)
	require.Empty(t, sr.Ended())
	require.Empty(t, sr.Started())
}

func TestFaultsOutliveStreak(t *testing.T) {
	require := require.New(t)
	rec := &recorder{err: errors.New("engine inconsistency")}
	c := New(fixedOracle(true), rec, rec, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.IsInteresting(ctx, stepInput(false), &feedback.Observers{}, feedback.ExitOk)
		require.NoError(err)
	}
	rec.err = nil
	_, err := c.IsInteresting(ctx, stepInput(false), &feedback.Observers{}, feedback.ExitOk)
	require.NoError(err)

	require.Zero(c.ConsecutiveFaults())
	require.Equal(2, c.Faults())
	require.NotNil(c.LastFault())
}

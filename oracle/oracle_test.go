package oracle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"alma.local/evmfuzz/feedback"
	"alma.local/evmfuzz/oracle"
	"alma.local/evmfuzz/oracle/oraclemock"
	"alma.local/evmfuzz/tracer"
)

type input struct{}

func (input) IsStep() bool { return false }

func observers(cids ...uint64) *feedback.Observers {
	obs := &feedback.Observers{Signature: feedback.NewSignature()}
	for _, cid := range cids {
		obs.Trace = append(obs.Trace, tracer.TraceEntry{CID: cid, Value: int64(cid)})
	}
	return obs
}

func TestCoverageOracle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	c := oracle.NewCoverageOracle()

	ok, err := c.IsInteresting(ctx, input{}, observers(1, 2, 2), feedback.ExitOk)
	require.NoError(err)
	require.True(ok)
	tc := feedback.NewTestcase("a", nil, feedback.ExitOk)
	require.NoError(c.AppendMetadata(ctx, nil, tc))
	require.Equal("2", tc.Metadata["new_cids"])

	ok, err = c.IsInteresting(ctx, input{}, observers(2, 1), feedback.ExitOk)
	require.NoError(err)
	require.False(ok)

	ok, err = c.IsInteresting(ctx, input{}, observers(3), feedback.ExitRevert)
	require.NoError(err)
	require.True(ok)
	require.Equal(3, c.Covered())

	_, err = c.IsInteresting(ctx, input{}, nil, feedback.ExitOk)
	require.ErrorIs(err, oracle.ErrNilObservers)
}

func TestCrashOracle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	c := &oracle.CrashOracle{}

	ok, err := c.IsInteresting(ctx, input{}, observers(), feedback.ExitRevert)
	require.NoError(err)
	require.False(ok)

	obs := observers()
	obs.Exit = feedback.ExitCrash
	ok, err = c.IsInteresting(ctx, input{}, obs, feedback.ExitCrash)
	require.NoError(err)
	require.True(ok)

	tc := feedback.NewTestcase("c", nil, feedback.ExitCrash)
	require.NoError(c.AppendMetadata(ctx, obs, tc))
	require.Equal("crash", tc.Metadata["exit"])
	require.ErrorIs(c.AppendMetadata(ctx, nil, tc), oracle.ErrNilObservers)
}

func TestNoveltyOracle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	n := oracle.NewNoveltyOracle(0.5)

	familiar := observers(1, 1, 1, 1)
	for i := 0; i < 20; i++ {
		_, err := n.IsInteresting(ctx, input{}, familiar, feedback.ExitOk)
		require.NoError(err)
	}
	ok, err := n.IsInteresting(ctx, input{}, familiar, feedback.ExitOk)
	require.NoError(err)
	require.False(ok)

	novel := &feedback.Observers{Trace: []tracer.TraceEntry{
		{CID: 1, Value: 900}, {CID: 1, Value: 901}, {CID: 1, Value: 902}, {CID: 1, Value: 903},
	}}
	ok, err = n.IsInteresting(ctx, input{}, novel, feedback.ExitOk)
	require.NoError(err)
	require.True(ok)

	tc := feedback.NewTestcase("n", nil, feedback.ExitOk)
	require.NoError(n.AppendMetadata(ctx, novel, tc))
	require.NotEmpty(tc.Metadata["novelty"])
	require.Equal(1, n.Dimensions())
}

func TestAnyEvaluatesEveryChild(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	first := oraclemock.NewOracle(ctrl)
	second := oraclemock.NewOracle(ctrl)
	first.EXPECT().Name().Return("first").AnyTimes()
	second.EXPECT().Name().Return("second").AnyTimes()

	obs := observers(1)
	first.EXPECT().IsInteresting(ctx, input{}, obs, feedback.ExitOk).Return(true, nil)
	second.EXPECT().IsInteresting(ctx, input{}, obs, feedback.ExitOk).Return(false, nil)

	o := oracle.Any(first, second)
	require.Equal("any(first,second)", o.Name())
	ok, err := o.IsInteresting(ctx, input{}, obs, feedback.ExitOk)
	require.NoError(err)
	require.True(ok)

	tc := feedback.NewTestcase("x", nil, feedback.ExitOk)
	first.EXPECT().AppendMetadata(ctx, obs, tc).Return(nil)
	second.EXPECT().AppendMetadata(ctx, obs, tc).Return(nil)
	require.NoError(o.AppendMetadata(ctx, obs, tc))
}

func TestAnyWrapsChildErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	boom := errors.New("boom")

	child := oraclemock.NewOracle(ctrl)
	child.EXPECT().Name().Return("child").AnyTimes()
	child.EXPECT().IsInteresting(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, boom)

	ok, err := oracle.Any(child).IsInteresting(ctx, input{}, observers(), feedback.ExitOk)
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "child")
	require.False(t, ok)
}

package fuzzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"alma.local/evmfuzz/corpus"
)

func TestCampaignRunsAllWorkers(t *testing.T) {
	require := require.New(t)
	store, err := corpus.NewStore(t.TempDir())
	require.NoError(err)

	factory := NewFactory(WorkerConfig{
		Seed:        42,
		GasLimit:    1_000_000,
		TaintReplay: true,
	}, store)
	c := NewCampaign(3, 40, factory, zaptest.NewLogger(t))

	stats, err := c.Run(context.Background())
	require.NoError(err)
	require.Equal(3, stats.Workers)
	require.Equal(uint64(120), stats.Executions)
	require.Equal(store.Len(), int(stats.Accepted))
	require.Equal(store.WithTaint(), int(stats.WithTaint))
	require.Zero(stats.ReplayFaults)
	require.Zero(stats.OpenFaultStreaks)
	require.Positive(stats.Coverage)

	entries, err := corpus.LoadEntries(store.Dir())
	require.NoError(err)
	require.Len(entries, store.Len())
}

func TestCampaignStopsOnCancel(t *testing.T) {
	store, err := corpus.NewStore("")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCampaign(2, 10, NewFactory(WorkerConfig{GasLimit: 1000}, store), nil)
	stats, err := c.Run(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Executions)
}

func TestCampaignFactoryError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCampaign(1, 1, func(int) (*Worker, error) { return nil, boom }, nil)
	_, err := c.Run(context.Background())
	require.ErrorIs(t, err, boom)

	_, err = NewCampaign(0, 1, nil, nil).Run(context.Background())
	require.Error(t, err)
}

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"alma.local/evmfuzz/fuzzer"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "run", RunE: runCampaign}
	registerRunFlags(cmd)
	return cmd
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	require := require.New(t)
	cmd := newRunCmd()
	require.NoError(cmd.ParseFlags([]string{"--workers", "3", "--iterations", "5", "--no-taint"}))

	cfg, err := loadConfig(cmd)
	require.NoError(err)
	require.Equal(3, cfg.Workers)
	require.Equal(5, cfg.Iterations)
	require.False(cfg.TaintReplay)
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "-1"}))
	_, err := loadConfig(cmd)
	require.Error(t, err)
}

func TestRunCampaignPrintsStats(t *testing.T) {
	cmd := newRunCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	t.Setenv("EVMFUZZ_LOG_LEVEL", "error")
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "2", "--iterations", "10", "--corpus", t.TempDir()}))

	require.NoError(t, runCampaign(cmd, nil))
	require.True(t, strings.Contains(out.String(), "executions:     20"), out.String())
}

func TestLoadConfigFlagsFixEnvironment(t *testing.T) {
	t.Setenv("EVMFUZZ_WORKERS", "0")
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "2"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Workers)
}

func TestPrintStatsSeparatesFaultCounts(t *testing.T) {
	var out bytes.Buffer
	printStats(&out, fuzzer.Stats{ReplayFaults: 5, OpenFaultStreaks: 1})
	require.Contains(t, out.String(), "replay faults:  5")
	require.Contains(t, out.String(), "open streaks:   1")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"alma.local/evmfuzz/internal/telemetry"
)

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evmfuzz.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	require := require.New(t)
	path := writeTOML(t, `
workers = 2
iterations = 50
taint_replay = false
corpus_dir = "out"
log_level = "debug"
`)
	t.Setenv("EVMFUZZ_ITERATIONS", "75")
	t.Setenv("EVMFUZZ_METRICS_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(err)
	require.Equal(2, cfg.Workers)
	require.Equal(75, cfg.Iterations)
	require.False(cfg.TaintReplay)
	require.Equal("out", cfg.CorpusDir)
	require.Equal(":9100", cfg.MetricsAddr)
	require.Equal(uint64(1_000_000), cfg.GasLimit)

	lvl, err := cfg.Level()
	require.NoError(err)
	require.Equal(zapcore.DebugLevel, lvl)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load(writeTOML(t, "workers = ["))
	require.Error(t, err)

	_, err = Load(writeTOML(t, "workers = 0\niterations = -1"))
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorContains(t, err, "workers")
	require.ErrorContains(t, err, "iterations")

	t.Setenv("EVMFUZZ_WORKERS", "many")
	_, err = Load("")
	require.Error(t, err)
}

func TestValidateLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	require.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestLoadTraceSettings(t *testing.T) {
	require := require.New(t)
	path := writeTOML(t, `
trace_exporter = "grpc"
trace_endpoint = "collector:4317"
trace_sample_rate = 0.25
`)
	t.Setenv("EVMFUZZ_TRACE_INSECURE", "true")

	cfg, err := Load(path)
	require.NoError(err)
	tc := cfg.Telemetry()
	require.Equal(telemetry.GRPC, tc.Exporter)
	require.Equal("collector:4317", tc.Endpoint)
	require.True(tc.Insecure)
	require.InDelta(0.25, tc.SampleRate, 1e-9)

	cfg.TraceEndpoint = ""
	err = cfg.Validate()
	require.ErrorIs(err, ErrInvalid)
	require.ErrorContains(err, "trace_endpoint")

	_, err = Load(writeTOML(t, `trace_exporter = "zipkin"`))
	require.Error(err)
}

func TestDecodeSkipsValidation(t *testing.T) {
	t.Setenv("EVMFUZZ_WORKERS", "0")

	cfg, err := Decode("")
	require.NoError(t, err)
	require.Zero(t, cfg.Workers)
	require.ErrorIs(t, cfg.Validate(), ErrInvalid)

	_, err = Load("")
	require.ErrorIs(t, err, ErrInvalid)
}

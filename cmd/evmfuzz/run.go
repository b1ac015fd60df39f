package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alma.local/evmfuzz/config"
	"alma.local/evmfuzz/corpus"
	"alma.local/evmfuzz/fuzzer"
	"alma.local/evmfuzz/internal/telemetry"
	"alma.local/evmfuzz/reexec"
)

const (
	metricsNamespace = "evmfuzz"
	serviceName      = "evmfuzz"
	shutdownTimeout  = 5 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fuzzing campaign",
	Args:  cobra.NoArgs,
	RunE:  runCampaign,
}

func init() {
	registerRunFlags(runCmd)
}

func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to a TOML config file")
	cmd.Flags().Int("workers", 0, "number of parallel workers")
	cmd.Flags().Int("iterations", 0, "iterations per worker")
	cmd.Flags().Int64("seed", 0, "base random seed")
	cmd.Flags().String("corpus", "", "directory to persist the corpus to")
	cmd.Flags().Bool("no-taint", false, "disable taint replays of accepted inputs")
}

// loadConfig reads the config file and environment, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Decode(path)
	if err != nil {
		return config.Config{}, err
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("iterations") {
		cfg.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("corpus") {
		cfg.CorpusDir, _ = flags.GetString("corpus")
	}
	if noTaint, _ := flags.GetBool("no-taint"); noTaint {
		cfg.TaintReplay = false
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	return zc.Build()
}

func runCampaign(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	replayMetrics, err := reexec.NewMetrics(metricsNamespace+"_reexec", reg)
	if err != nil {
		return fmt.Errorf("register replay metrics: %w", err)
	}
	fuzzMetrics, err := fuzzer.NewMetrics(metricsNamespace, reg)
	if err != nil {
		return fmt.Errorf("register fuzzer metrics: %w", err)
	}
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(ctx, cfg.MetricsAddr, reg, log)
		defer srv.Shutdown()
	}

	tp, err := telemetry.New(ctx, cfg.Telemetry(), serviceName)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("flushing spans", zap.Error(err))
		}
	}()

	store, err := corpus.NewStore(cfg.CorpusDir)
	if err != nil {
		return err
	}
	factory := fuzzer.NewFactory(fuzzer.WorkerConfig{
		Seed:             cfg.Seed,
		GasLimit:         cfg.GasLimit,
		TaintReplay:      cfg.TaintReplay,
		FaultThreshold:   cfg.FaultThreshold,
		NoveltyThreshold: cfg.NoveltyThreshold,
		MaxActions:       cfg.MaxActions,
	}, store,
		fuzzer.WithLogger(log),
		fuzzer.WithMetrics(fuzzMetrics),
		fuzzer.WithReplayMetrics(replayMetrics),
		fuzzer.WithTracer(tp.Tracer("alma.local/evmfuzz")),
	)

	stats, err := fuzzer.NewCampaign(cfg.Workers, cfg.Iterations, factory, log).Run(ctx)
	printStats(cmd.OutOrStdout(), stats)
	return err
}

func printStats(w io.Writer, s fuzzer.Stats) {
	fmt.Fprintln(w, "*** Campaign ***")
	fmt.Fprintf(w, "workers:        %d\n", s.Workers)
	fmt.Fprintf(w, "executions:     %d\n", s.Executions)
	fmt.Fprintf(w, "accepted:       %d\n", s.Accepted)
	fmt.Fprintf(w, "crashes:        %d\n", s.Crashes)
	fmt.Fprintf(w, "with taint:     %d\n", s.WithTaint)
	fmt.Fprintf(w, "coverage:       %.0f\n", s.Coverage)
	fmt.Fprintf(w, "replay faults:  %d\n", s.ReplayFaults)
	fmt.Fprintf(w, "open streaks:   %d\n", s.OpenFaultStreaks)
	fmt.Fprintf(w, "elapsed:        %s\n", s.Elapsed)
}

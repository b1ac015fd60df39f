package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"

	"alma.local/evmfuzz/internal/telemetry"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "EVMFUZZ_"

var ErrInvalid = errors.New("config: invalid")

// Config drives one fuzzing campaign.
type Config struct {
	Workers    int    `toml:"workers" env:"WORKERS"`
	Iterations int    `toml:"iterations" env:"ITERATIONS"`
	Seed       int64  `toml:"seed" env:"SEED"`
	GasLimit   uint64 `toml:"gas_limit" env:"GAS_LIMIT"`
	MaxActions int    `toml:"max_actions" env:"MAX_ACTIONS"`

	// TaintReplay enables replays of accepted complete inputs with the taint
	// tracker attached.
	TaintReplay    bool `toml:"taint_replay" env:"TAINT_REPLAY"`
	FaultThreshold int  `toml:"fault_threshold" env:"FAULT_THRESHOLD"`
	// NoveltyThreshold is the KL divergence above which a trace is novel.
	// Zero disables the novelty oracle.
	NoveltyThreshold float64 `toml:"novelty_threshold" env:"NOVELTY_THRESHOLD"`

	CorpusDir   string `toml:"corpus_dir" env:"CORPUS_DIR"`
	MetricsAddr string `toml:"metrics_addr" env:"METRICS_ADDR"`
	LogLevel    string `toml:"log_level" env:"LOG_LEVEL"`

	// TraceExporter is "", "grpc" or "http". The empty value discards spans.
	TraceExporter   telemetry.ExporterType `toml:"trace_exporter" env:"TRACE_EXPORTER"`
	TraceEndpoint   string                 `toml:"trace_endpoint" env:"TRACE_ENDPOINT"`
	TraceInsecure   bool                   `toml:"trace_insecure" env:"TRACE_INSECURE"`
	TraceSampleRate float64                `toml:"trace_sample_rate" env:"TRACE_SAMPLE_RATE"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Workers:          4,
		Iterations:       10_000,
		Seed:             1,
		GasLimit:         1_000_000,
		MaxActions:       8,
		TaintReplay:      true,
		FaultThreshold:   8,
		NoveltyThreshold: 2.0,
		LogLevel:         "info",
		TraceSampleRate:  1.0,
	}
}

// Load decodes the configuration and validates it.
func Load(path string) (Config, error) {
	cfg, err := Decode(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode layers the defaults, the TOML file at path (skipped when empty) and
// EVMFUZZ_* environment variables without validating the result. Callers
// applying further overrides validate afterwards.
func Decode(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations a campaign cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, c.Workers))
	}
	if c.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalid, c.Iterations))
	}
	if c.GasLimit == 0 {
		errs = append(errs, fmt.Errorf("%w: gas_limit must be positive", ErrInvalid))
	}
	if c.NoveltyThreshold < 0 {
		errs = append(errs, fmt.Errorf("%w: novelty_threshold must not be negative", ErrInvalid))
	}
	if c.TraceExporter != telemetry.NoOp && c.TraceEndpoint == "" {
		errs = append(errs, fmt.Errorf("%w: trace_endpoint is required with trace_exporter %q", ErrInvalid, c.TraceExporter))
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		errs = append(errs, fmt.Errorf("%w: trace_sample_rate must be within [0, 1]", ErrInvalid))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(c.LogLevel)
}

// Telemetry returns the tracing settings.
func (c Config) Telemetry() telemetry.Config {
	return telemetry.Config{
		Exporter:   c.TraceExporter,
		Endpoint:   c.TraceEndpoint,
		Insecure:   c.TraceInsecure,
		SampleRate: c.TraceSampleRate,
	}
}

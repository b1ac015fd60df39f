package reexec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"alma.local/evmfuzz/feedback"
	"alma.local/evmfuzz/oracle"
)

// Name is the identifier the coordinator reports to the campaign.
const Name = "taint_reexecution"

// DefaultFaultThreshold is the number of consecutive replay faults after which
// the coordinator escalates from warnings to an error log.
const DefaultFaultThreshold = 8

const replaySpan = "reexec.replay"

var ErrReplayPanic = errors.New("reexec: replay panicked")

var _ oracle.Oracle = (*Coordinator)(nil)

// TaintTracker accumulates hash-input provenance during one replay.
type TaintTracker interface {
	// Reset discards all accumulated facts. It must be idempotent.
	Reset()
}

// ReplayEngine re-executes an input with a tracker attached as an observer.
type ReplayEngine interface {
	ReplayWithObserver(ctx context.Context, in oracle.Input, observer TaintTracker) error
}

// ReplayFault describes a failed taint-gathering replay. It never affects the
// verdict of the evaluation that triggered it.
type ReplayFault struct {
	// Consecutive is the length of the fault streak this fault belongs to.
	Consecutive int
	Err         error
}

func (f *ReplayFault) Error() string {
	return fmt.Sprintf("reexec: replay fault (%d consecutive): %v", f.Consecutive, f.Err)
}

func (f *ReplayFault) Unwrap() error {
	return f.Err
}

// Coordinator decorates an oracle: it returns the wrapped oracle's verdict
// unchanged and, when enabled, replays every complete input the oracle
// accepts with the taint tracker attached.
//
// The tracker and engine are shared with the rest of the worker and are never
// closed here. A Coordinator is driven by a single worker; workers must not
// share a coordinator, tracker or engine.
type Coordinator struct {
	inner   oracle.Oracle
	tracker TaintTracker
	engine  ReplayEngine
	enabled bool

	log            *zap.Logger
	metrics        *Metrics
	tracer         trace.Tracer
	faultThreshold int

	consecutiveFaults int
	totalFaults       int
	lastFault         *ReplayFault
}

type Option func(*Coordinator)

func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics reports replays to m. Metrics may be shared by coordinators of
// different workers.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithFaultThreshold sets how many consecutive replay faults trigger an
// error-level report. Values below 1 keep the default.
func WithFaultThreshold(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.faultThreshold = n
		}
	}
}

// New wraps inner. The tracker and engine are stored as given.
func New(inner oracle.Oracle, tracker TaintTracker, engine ReplayEngine, enabled bool, opts ...Option) *Coordinator {
	c := &Coordinator{
		inner:          inner,
		tracker:        tracker,
		engine:         engine,
		enabled:        enabled,
		log:            zap.NewNop(),
		tracer:         noop.NewTracerProvider().Tracer(Name),
		faultThreshold: DefaultFaultThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (*Coordinator) Name() string {
	return Name
}

func (c *Coordinator) String() string {
	inner := "<nil>"
	if c.inner != nil {
		inner = c.inner.Name()
	}
	return fmt.Sprintf("%s{enabled: %t, inner: %s}", Name, c.enabled, inner)
}

// Enabled reports whether taint replays are triggered at all.
func (c *Coordinator) Enabled() bool {
	return c.enabled
}

// ConsecutiveFaults returns the length of the current replay fault streak.
func (c *Coordinator) ConsecutiveFaults() int {
	return c.consecutiveFaults
}

// Faults returns the number of replay faults since the coordinator was built.
func (c *Coordinator) Faults() int {
	return c.totalFaults
}

// LastFault returns the most recent replay fault, or nil if none occurred.
func (c *Coordinator) LastFault() *ReplayFault {
	return c.lastFault
}

// IsInteresting returns exactly what the wrapped oracle returns. As a side
// effect, an accepted complete input is replayed once after resetting the
// tracker.
func (c *Coordinator) IsInteresting(ctx context.Context, in oracle.Input, obs *feedback.Observers, exit feedback.ExitKind) (bool, error) {
	if !c.enabled {
		return c.inner.IsInteresting(ctx, in, obs, exit)
	}

	interesting, err := c.inner.IsInteresting(ctx, in, obs, exit)
	if err != nil || !interesting {
		return interesting, err
	}
	if in.IsStep() {
		c.metrics.skippedStep()
		return true, nil
	}

	c.replay(ctx, in)
	return true, nil
}

// AppendMetadata delegates to the wrapped oracle.
func (c *Coordinator) AppendMetadata(ctx context.Context, obs *feedback.Observers, tc *feedback.Testcase) error {
	return c.inner.AppendMetadata(ctx, obs, tc)
}

func (c *Coordinator) replay(ctx context.Context, in oracle.Input) {
	ctx, span := c.tracer.Start(ctx, replaySpan)
	defer span.End()

	start := time.Now()
	c.tracker.Reset()
	err := c.replayOnce(ctx, in)
	c.metrics.replayed(time.Since(start), err)

	if err == nil {
		c.consecutiveFaults = 0
		return
	}

	c.consecutiveFaults++
	c.totalFaults++
	fault := &ReplayFault{Consecutive: c.consecutiveFaults, Err: err}
	c.lastFault = fault
	span.SetAttributes(attribute.Int("reexec.consecutive_faults", fault.Consecutive))
	span.RecordError(fault)
	span.SetStatus(codes.Error, "replay fault")

	c.log.Warn("taint replay failed",
		zap.Int("consecutive", fault.Consecutive),
		zap.Error(err),
	)
	if fault.Consecutive == c.faultThreshold {
		c.log.Error("taint replay keeps failing; engine may be inconsistent",
			zap.Int("consecutive", fault.Consecutive),
			zap.String("inner", c.inner.Name()),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) replayOnce(ctx context.Context, in oracle.Input) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrReplayPanic, r)
		}
	}()
	return c.engine.ReplayWithObserver(ctx, in, c.tracker)
}

package fuzzer

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"alma.local/evmfuzz/corpus"
	"alma.local/evmfuzz/feedback"
	"alma.local/evmfuzz/oracle"
	"alma.local/evmfuzz/reexec"
	"alma.local/evmfuzz/taint"
	"alma.local/evmfuzz/tracer"
	"alma.local/evmfuzz/vm"
)

// freshInputRate is the 1-in-N chance a step generates a new sequence instead
// of mutating a corpus parent.
const freshInputRate = 8

var defaultCallers = []common.Address{
	common.HexToAddress("0x1000"),
	common.HexToAddress("0x2000"),
	common.HexToAddress("0x3000"),
}

// WorkerConfig holds the per-worker knobs of a campaign.
type WorkerConfig struct {
	ID               int
	Seed             int64
	GasLimit         uint64
	TaintReplay      bool
	FaultThreshold   int
	NoveltyThreshold float64
	RingSize         int
	MaxActions       int
}

// WorkerStats summarizes what one worker did.
type WorkerStats struct {
	Executions uint64
	Accepted   uint64
	Crashes    uint64
	WithTaint  uint64
	Coverage   float64
}

type workerOptions struct {
	log           *zap.Logger
	metrics       *Metrics
	replayMetrics *reexec.Metrics
	tracer        trace.Tracer
	deploy        func(*vm.Executor)
}

type WorkerOption func(*workerOptions)

func WithLogger(log *zap.Logger) WorkerOption {
	return func(o *workerOptions) {
		if log != nil {
			o.log = log
		}
	}
}

func WithMetrics(m *Metrics) WorkerOption {
	return func(o *workerOptions) {
		o.metrics = m
	}
}

func WithReplayMetrics(m *reexec.Metrics) WorkerOption {
	return func(o *workerOptions) {
		o.replayMetrics = m
	}
}

func WithTracer(t trace.Tracer) WorkerOption {
	return func(o *workerOptions) {
		o.tracer = t
	}
}

// WithContracts replaces the demo deployment.
func WithContracts(deploy func(*vm.Executor)) WorkerOption {
	return func(o *workerOptions) {
		if deploy != nil {
			o.deploy = deploy
		}
	}
}

// Worker drives one fuzzing loop. Everything it holds except the corpus
// store belongs to it alone: its executor doubles as the replay engine of its
// own coordinator, and its tracker is never seen by another worker.
type Worker struct {
	id      int
	rng     *rand.Rand
	fuzzer  *InProcessFuzzer
	tracker *taint.Tracker
	coord   *reexec.Coordinator
	mutator *Mutator
	store   *corpus.Store

	log     *zap.Logger
	metrics *Metrics
	stats   WorkerStats
}

// NewWorker assembles a worker writing accepted testcases to store.
func NewWorker(cfg WorkerConfig, store *corpus.Store, opts ...WorkerOption) *Worker {
	o := workerOptions{
		log:    zap.NewNop(),
		deploy: vm.DeployDemo,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = tracer.DefaultSize
	}
	log := o.log.With(zap.Int("worker", cfg.ID))

	exec := vm.NewExecutor(cfg.GasLimit, log)
	o.deploy(exec)

	judges := []oracle.Oracle{&oracle.CrashOracle{}, oracle.NewCoverageOracle()}
	if cfg.NoveltyThreshold > 0 {
		judges = append(judges, oracle.NewNoveltyOracle(cfg.NoveltyThreshold))
	}
	tracker := taint.NewTracker()
	coord := reexec.New(oracle.Any(judges...), tracker, exec, cfg.TaintReplay,
		reexec.WithLogger(log),
		reexec.WithMetrics(o.replayMetrics),
		reexec.WithTracer(o.tracer),
		reexec.WithFaultThreshold(cfg.FaultThreshold),
	)

	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Worker{
		id:      cfg.ID,
		rng:     rng,
		fuzzer:  NewInProcessFuzzer(exec, cfg.RingSize),
		tracker: tracker,
		coord:   coord,
		mutator: NewMutator(rng, MutatorConfig{
			Callers:    defaultCallers,
			Targets:    exec.Contracts(),
			Dictionary: vm.DemoDictionary,
			MaxActions: cfg.MaxActions,
		}),
		store:   store,
		log:     log,
		metrics: o.metrics,
	}
}

func (w *Worker) ID() int {
	return w.id
}

// Coordinator exposes the worker's reexecution coordinator for reporting.
func (w *Worker) Coordinator() *reexec.Coordinator {
	return w.coord
}

// Stats returns a copy of the worker's counters.
func (w *Worker) Stats() WorkerStats {
	s := w.stats
	s.Coverage = w.fuzzer.TotalCoverage()
	return s
}

// Step runs one iteration: choose a parent, mutate, execute, evaluate and
// store the result when the oracle accepts it.
func (w *Worker) Step(ctx context.Context) error {
	seq, strategy, mutated := w.next()
	accepted, err := w.evaluate(ctx, seq)
	if err != nil {
		return err
	}
	if mutated {
		w.mutator.Reward(strategy, accepted)
	}
	return nil
}

func (w *Worker) evaluate(ctx context.Context, seq *vm.Sequence) (bool, error) {
	obs, err := w.fuzzer.Execute(ctx, seq)
	if err != nil {
		return false, fmt.Errorf("fuzzer: execute: %w", err)
	}
	w.stats.Executions++
	w.metrics.executed()
	w.metrics.setCoverage(strconv.Itoa(w.id), w.fuzzer.TotalCoverage())

	round := w.tracker.Round()
	ok, err := w.coord.IsInteresting(ctx, seq, obs, obs.Exit)
	if err != nil {
		return false, fmt.Errorf("fuzzer: evaluate: %w", err)
	}
	if !ok {
		return false, nil
	}

	tc := feedback.NewTestcase(fmt.Sprintf("w%d-%06d", w.id, w.stats.Executions), seq, obs.Exit)
	if err := w.coord.AppendMetadata(ctx, obs, tc); err != nil {
		return false, fmt.Errorf("fuzzer: metadata: %w", err)
	}
	w.attachTaint(tc, round)

	if err := w.store.Add(tc); err != nil {
		return false, fmt.Errorf("fuzzer: store: %w", err)
	}
	w.stats.Accepted++
	if obs.Exit == feedback.ExitCrash {
		w.stats.Crashes++
		w.log.Info("crash found",
			zap.String("id", tc.ID),
			zap.Stringer("sequence", seq),
		)
	}
	withTaint := len(tc.TaintFacts) > 0
	if withTaint {
		w.stats.WithTaint++
	}
	w.metrics.accept(obs.Exit, withTaint)
	return true, nil
}

// attachTaint stores the tracker's facts on tc if they were gathered by a
// successful replay of this very input.
func (w *Worker) attachTaint(tc *feedback.Testcase, round uint64) {
	if w.tracker.Round() == round || w.coord.ConsecutiveFaults() > 0 || w.tracker.Len() == 0 {
		return
	}
	snap := w.tracker.Snapshot()
	raw, err := snap.MarshalSSZ()
	if err != nil {
		w.log.Warn("dropping taint snapshot", zap.String("id", tc.ID), zap.Error(err))
		return
	}
	tc.TaintFacts = raw
	tc.SetMeta("taint_facts", strconv.Itoa(len(snap.Facts)))
}

// next picks a parent from the shared corpus and mutates it. mutated is
// false for freshly generated sequences.
func (w *Worker) next() (seq *vm.Sequence, s Strategy, mutated bool) {
	n := w.store.Len()
	if n == 0 || w.rng.Intn(freshInputRate) == 0 {
		return w.mutator.Generate(), 0, false
	}
	parent, facts := w.parent(w.rng.Intn(n))
	donor, _ := w.parent(w.rng.Intn(n))
	seq, s = w.mutator.Mutate(parent, facts, donor)
	return seq, s, true
}

func (w *Worker) parent(i int) (*vm.Sequence, []taint.Fact) {
	tc, ok := w.store.Get(i)
	if !ok {
		return nil, nil
	}
	seq, ok := tc.Input.(*vm.Sequence)
	if !ok {
		return nil, nil
	}
	if len(tc.TaintFacts) == 0 {
		return seq, nil
	}
	var snap taint.Snapshot
	if err := snap.UnmarshalSSZ(tc.TaintFacts); err != nil {
		w.log.Debug("ignoring taint facts", zap.String("id", tc.ID), zap.Error(err))
		return seq, nil
	}
	return seq, snap.Facts
}

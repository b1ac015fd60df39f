package fuzzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alma.local/evmfuzz/corpus"
)

// Factory builds the worker with the given id. Each call must return a worker
// with its own executor, tracker and coordinator.
type Factory func(id int) (*Worker, error)

// NewFactory derives per-worker configs from base. Worker i is seeded with
// base.Seed+i.
func NewFactory(base WorkerConfig, store *corpus.Store, opts ...WorkerOption) Factory {
	return func(id int) (*Worker, error) {
		cfg := base
		cfg.ID = id
		cfg.Seed = base.Seed + int64(id)
		return NewWorker(cfg, store, opts...), nil
	}
}

// Stats aggregates the counters of every worker of a campaign.
type Stats struct {
	Workers    int
	Executions uint64
	Accepted   uint64
	Crashes    uint64
	WithTaint  uint64
	// Coverage is the best per-worker coverage; workers do not share CIDs.
	Coverage float64
	// ReplayFaults counts every failed taint replay of the campaign.
	ReplayFaults int
	// OpenFaultStreaks sums the workers' current consecutive fault counts.
	OpenFaultStreaks int
	Elapsed      time.Duration
}

// Campaign runs a fixed number of workers in parallel, each for a fixed
// number of iterations or until the context is cancelled.
type Campaign struct {
	workers    int
	iterations int
	factory    Factory
	log        *zap.Logger
}

func NewCampaign(workers, iterations int, factory Factory, log *zap.Logger) *Campaign {
	if log == nil {
		log = zap.NewNop()
	}
	return &Campaign{
		workers:    workers,
		iterations: iterations,
		factory:    factory,
		log:        log,
	}
}

// Run blocks until every worker is done. Cancelling ctx stops the campaign
// early without an error; any other worker failure stops all workers and is
// returned.
func (c *Campaign) Run(ctx context.Context) (Stats, error) {
	if c.workers <= 0 {
		return Stats{}, fmt.Errorf("fuzzer: invalid worker count %d", c.workers)
	}
	workers := make([]*Worker, c.workers)
	for i := range workers {
		w, err := c.factory(i)
		if err != nil {
			return Stats{}, fmt.Errorf("fuzzer: build worker %d: %w", i, err)
		}
		workers[i] = w
	}

	start := time.Now()
	c.log.Info("campaign started",
		zap.Int("workers", c.workers),
		zap.Int("iterations", c.iterations),
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			for i := 0; i < c.iterations; i++ {
				if err := w.Step(gctx); err != nil {
					if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
						return nil
					}
					return fmt.Errorf("worker %d: %w", w.ID(), err)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	stats := Stats{Workers: len(workers), Elapsed: time.Since(start)}
	for _, w := range workers {
		ws := w.Stats()
		stats.Executions += ws.Executions
		stats.Accepted += ws.Accepted
		stats.Crashes += ws.Crashes
		stats.WithTaint += ws.WithTaint
		stats.ReplayFaults += w.Coordinator().Faults()
		stats.OpenFaultStreaks += w.Coordinator().ConsecutiveFaults()
		if ws.Coverage > stats.Coverage {
			stats.Coverage = ws.Coverage
		}
	}
	c.log.Info("campaign finished",
		zap.Uint64("executions", stats.Executions),
		zap.Uint64("accepted", stats.Accepted),
		zap.Uint64("crashes", stats.Crashes),
		zap.Uint64("with_taint", stats.WithTaint),
		zap.Int("replay_faults", stats.ReplayFaults),
		zap.Duration("elapsed", stats.Elapsed),
		zap.Error(err),
	)
	return stats, err
}

package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

var (
	// ErrEngineClosed is returned when executing on a closed engine
	ErrEngineClosed = errors.New("executor engine is closed")

	// ErrUnitPanicked wraps the value recovered from a panicking unit
	ErrUnitPanicked = errors.New("execute unit panicked")
)

// ExecuteUnit computes one result from one input.
// It may run on any goroutine of the engine's pool.
type ExecuteUnit[I, O any] func(ctx context.Context, input I) (O, error)

// MergeUnit reduces the ordered results of an execution.
// A nil slice means the engine produced no results.
type MergeUnit[O, R any] func(results []O) R

// Engine runs units on a bounded worker pool and joins on all of them
type Engine struct {
	// workers is the pool capacity
	workers int

	// pool runs the submitted tasks
	pool *ants.Pool

	// logger for structured logging
	logger *slog.Logger

	// closed indicates if the engine has been closed
	closed atomic.Bool

	// inflight counts executions that have not returned yet
	inflight atomic.Int32
}

// NewEngine creates an engine backed by a pool of the given size
// workers must be > 0, otherwise it defaults to 1
func NewEngine(workers int, logger *slog.Logger) (*Engine, error) {
	if workers <= 0 {
		workers = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Engine{
		workers: workers,
		pool:    pool,
		logger:  logger,
	}, nil
}

// WorkerCount returns the pool capacity
func (e *Engine) WorkerCount() int {
	return e.workers
}

// Running returns the number of pool goroutines currently running a task
func (e *Engine) Running() int {
	return e.pool.Running()
}

// Inflight returns the number of executions in progress
func (e *Engine) Inflight() int {
	return int(e.inflight.Load())
}

// IsClosed returns true if the engine has been closed
func (e *Engine) IsClosed() bool {
	return e.closed.Load()
}

// Close releases the pool. Executions already submitted still finish.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("executor engine already closed")
	}
	// Read before Release, which drops the pool's worker count
	inflight, running := e.Inflight(), e.Running()
	e.pool.Release()
	e.logger.Debug("executor engine closed",
		"inflight", inflight,
		"running_workers", running)
	return nil
}

// outcome pairs a result with its error
type outcome[O any] struct {
	value O
	err   error
}

// Execute runs unit once per input on the engine's pool and waits for every
// task to finish. Results come back in input order regardless of completion
// order. If any task fails, Execute still waits for the others and then
// returns the error of the first failing input (in input order) and no results.
func Execute[I, O any](ctx context.Context, e *Engine, inputs []I, unit ExecuteUnit[I, O]) ([]O, error) {
	if e.IsClosed() {
		return nil, ErrEngineClosed
	}

	total := len(inputs)
	if total == 0 {
		e.logger.Debug("no units to execute")
		return []O{}, nil
	}

	e.inflight.Add(1)
	defer e.inflight.Add(-1)

	e.logger.Debug("starting unit execution",
		"workers", e.workers,
		"units", total)

	startTime := time.Now()
	outcomes := make([]outcome[O], total)

	var wg sync.WaitGroup
	for i, input := range inputs {
		i, input := i, input
		wg.Add(1)
		task := func() {
			defer wg.Done()
			outcomes[i] = runUnit(ctx, unit, input)
		}
		if err := e.pool.Submit(task); err != nil {
			wg.Done()
			outcomes[i] = outcome[O]{err: fmt.Errorf("failed to submit unit %d: %w", i, err)}
		}
	}

	// Join on every task, even after a failure, so nothing is left running
	wg.Wait()

	results := make([]O, total)
	var firstErr error
	failed := 0
	for i, o := range outcomes {
		if o.err != nil {
			failed++
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		results[i] = o.value
	}

	e.logger.Debug("unit execution completed",
		"total", total,
		"failed", failed,
		"duration", time.Since(startTime))

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// ExecuteAndMerge runs Execute and reduces the ordered results with merge.
// merge is not called when the execution fails.
func ExecuteAndMerge[I, O, R any](ctx context.Context, e *Engine, inputs []I, unit ExecuteUnit[I, O], merge MergeUnit[O, R]) (R, error) {
	results, err := Execute(ctx, e, inputs, unit)
	if err != nil {
		var zero R
		return zero, err
	}
	return merge(results), nil
}

// runUnit invokes unit and turns a panic into an error for that unit only
func runUnit[I, O any](ctx context.Context, unit ExecuteUnit[I, O], input I) (o outcome[O]) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome[O]{err: fmt.Errorf("%w: %v", ErrUnitPanicked, r)}
		}
	}()

	value, err := unit(ctx, input)
	return outcome[O]{value: value, err: err}
}

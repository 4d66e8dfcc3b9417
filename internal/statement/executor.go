package statement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aryankumar/shardexec/internal/event"
	"github.com/aryankumar/shardexec/internal/execctx"
	"github.com/aryankumar/shardexec/internal/executor"
	"github.com/aryankumar/shardexec/internal/metrics"
)

// Metric scope names of the three call shapes
const (
	ScopeExecuteQuery  = "ShardingStatement-executeQuery"
	ScopeExecuteUpdate = "ShardingStatement-executeUpdate"
	ScopeExecute       = "ShardingStatement-execute"
)

// ErrExecutionInProgress is returned when units are added, or another
// execution is started, while the executor is running.
var ErrExecutionInProgress = errors.New("statement executor is already executing")

// Executor runs the physical units of one logical call.
// Register every unit with AddUnit, then call one of the execute methods.
// An Executor belongs to one caller and runs one execution at a time.
type Executor struct {
	engine  *executor.Engine
	bus     *event.Bus
	metrics *metrics.Registry
	locks   *ConnLocks
	logger  *slog.Logger

	// mu protects units and running
	mu    sync.Mutex
	units []Unit

	// running is set for the duration of an execute call
	running bool
}

// Option configures an Executor
type Option func(*Executor)

// WithBus publishes lifecycle events to bus instead of event.Default()
func WithBus(bus *event.Bus) Option {
	return func(e *Executor) {
		e.bus = bus
	}
}

// WithMetrics records timings in r instead of the package-level registry
func WithMetrics(r *metrics.Registry) Option {
	return func(e *Executor) {
		e.metrics = r
	}
}

// WithConnLocks uses locks instead of DefaultConnLocks()
func WithConnLocks(locks *ConnLocks) Option {
	return func(e *Executor) {
		e.locks = locks
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an executor that fans out on engine
func NewExecutor(engine *executor.Engine, opts ...Option) *Executor {
	e := &Executor{
		engine: engine,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.bus == nil {
		e.bus = event.Default()
	}
	if e.locks == nil {
		e.locks = DefaultConnLocks()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// AddUnit registers a unit. It fails while an execution is running.
func (e *Executor) AddUnit(u Unit) error {
	if err := u.validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrExecutionInProgress
	}

	e.units = append(e.units, u)
	e.logger.Debug("unit added",
		"data_source", u.DataSource(),
		"total_units", len(e.units))
	return nil
}

// Units returns a copy of the registered units in registration order
func (e *Executor) Units() []Unit {
	e.mu.Lock()
	defer e.mu.Unlock()

	units := make([]Unit, len(e.units))
	copy(units, e.units)
	return units
}

// begin marks the executor running and snapshots its units under one lock,
// so a unit is either part of this execution or rejected
func (e *Executor) begin() ([]Unit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil, ErrExecutionInProgress
	}
	e.running = true

	units := make([]Unit, len(e.units))
	copy(units, e.units)
	return units, nil
}

func (e *Executor) finish() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// ExecuteQuery runs every unit as a query. The result sets come back in
// registration order; a nil entry is a unit whose failure was suppressed.
func (e *Executor) ExecuteQuery(ctx context.Context) ([]ResultSet, error) {
	query := func(ctx context.Context, stmt Statement, sql string) (ResultSet, error) {
		return stmt.ExecuteQuery(ctx, sql)
	}
	return run(ctx, e, ScopeExecuteQuery, event.DQL, query, mergeResultSets)
}

// ExecuteUpdate runs every unit as an update with the given key call shape
// and returns the summed affected row count.
func (e *Executor) ExecuteUpdate(ctx context.Context, keys KeyRequest) (int, error) {
	update := func(ctx context.Context, stmt Statement, sql string) (int, error) {
		return stmt.ExecuteUpdate(ctx, sql, keys)
	}
	return run(ctx, e, ScopeExecuteUpdate, event.DML, update, mergeUpdateCounts)
}

// Execute runs every unit with the given key call shape and returns the first
// unit's result, or false when there is none.
func (e *Executor) Execute(ctx context.Context, keys KeyRequest) (bool, error) {
	exec := func(ctx context.Context, stmt Statement, sql string) (bool, error) {
		return stmt.Execute(ctx, sql, keys)
	}
	return run(ctx, e, ScopeExecute, event.Unknown, exec, mergeFirst)
}

// apply is the driver call shared by every call shape
type apply[T any] func(ctx context.Context, stmt Statement, sql string) (T, error)

// indexedUnit remembers a unit's position for its lifecycle events
type indexedUnit struct {
	index int
	unit  Unit
}

func run[T, R any](ctx context.Context, e *Executor, scope string, sqlType event.SQLType, fn apply[T], merge executor.MergeUnit[T, R]) (R, error) {
	var zero R

	units, err := e.begin()
	if err != nil {
		return zero, err
	}
	defer e.finish()

	timer := e.startTimer(scope)
	defer e.stopTimer(timer)

	postman := event.NewPostman(e.bus, sqlType, units)
	postman.PostExecutionEvents()

	snap := execctx.Resolve(ctx)

	e.logger.Debug("executing statement units",
		"scope", scope,
		"units", len(units),
		"exception_thrown", snap.ExceptionThrown)

	if len(units) == 1 {
		unlock := e.locks.Lock(units[0].Connection())
		defer unlock()
		value, err := executeUnit(execctx.WithSnapshot(ctx, snap), e, postman, 0, units[0], fn)
		if err != nil {
			return zero, err
		}
		return merge([]T{value}), nil
	}

	inputs := make([]indexedUnit, len(units))
	for i, u := range units {
		inputs[i] = indexedUnit{index: i, unit: u}
	}

	return executor.ExecuteAndMerge(ctx, e.engine, inputs,
		func(ctx context.Context, in indexedUnit) (T, error) {
			unlock := e.locks.Lock(in.unit.Connection())
			defer unlock()
			return executeUnit(execctx.WithSnapshot(ctx, snap), e, postman, in.index, in.unit, fn)
		}, merge)
}

// executeUnit performs the driver call of one unit and publishes its after
// event. A failure, including a panic in the driver call, is either returned
// or replaced by T's zero value, depending on the exception policy carried
// by ctx.
func executeUnit[T any](ctx context.Context, e *Executor, postman *event.Postman, index int, u Unit, fn apply[T]) (T, error) {
	value, err := callUnit(ctx, u, fn)
	if err != nil {
		postman.PostExecutionFailure(index, err)
		e.logger.Warn("statement unit failed",
			"data_source", u.DataSource(),
			"error", err)

		var zero T
		return zero, execctx.HandleException(ctx, err)
	}

	postman.PostExecutionEventsAfterExecution(index)
	return value, nil
}

// callUnit runs fn, turning a panic into an executor.ErrUnitPanicked error
func callUnit[T any](ctx context.Context, u Unit, fn apply[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, fmt.Errorf("%w: %v", executor.ErrUnitPanicked, r)
		}
	}()
	return fn(ctx, u.Statement(), u.SQL())
}

func (e *Executor) startTimer(scope string) *metrics.Timer {
	if e.metrics != nil {
		return e.metrics.Start(scope)
	}
	return metrics.Start(scope)
}

func (e *Executor) stopTimer(t *metrics.Timer) {
	if t != nil {
		e.logger.Debug("statement execution timed",
			"scope", t.Name(),
			"elapsed", t.Elapsed())
	}
	if e.metrics != nil {
		e.metrics.Stop(t)
		return
	}
	metrics.Stop(t)
}

func mergeResultSets(results []ResultSet) []ResultSet {
	if results == nil {
		return []ResultSet{}
	}
	return results
}

func mergeUpdateCounts(results []int) int {
	if results == nil {
		return 0
	}
	total := 0
	for _, r := range results {
		total += r
	}
	return total
}

func mergeFirst(results []bool) bool {
	if len(results) == 0 {
		return false
	}
	return results[0]
}

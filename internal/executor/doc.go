// Package executor provides the fan-out/fan-in engine that runs the physical
// units of one logical SQL call concurrently.
//
// The engine submits one task per unit to a bounded worker pool, waits for
// every task to finish, and hands back the results in the order the units
// were given. A reduction step can fold those results into one value.
//
// # Basic Usage
//
//	engine, err := executor.NewEngine(8, logger)
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	counts, err := executor.Execute(ctx, engine, units,
//	    func(ctx context.Context, u Unit) (int, error) {
//	        return u.Run(ctx)
//	    })
//
// # Merging
//
//	total, err := executor.ExecuteAndMerge(ctx, engine, units, run,
//	    func(results []int) int {
//	        sum := 0
//	        for _, r := range results {
//	            sum += r
//	        }
//	        return sum
//	    })
//
// A nil slice passed to a MergeUnit means there were no results.
//
// # Failure Semantics
//
// The engine never swallows an error. Whether a unit failure turns into a
// neutral value is decided inside the unit. When a unit does return an error,
// the engine keeps waiting for the remaining units, then returns the error of
// the first failing unit in input order and no results. Sibling units are not
// cancelled.
//
// A panicking unit is reported as ErrUnitPanicked for that unit only.
//
// # Reports
//
// Collector subscribes to an event.Bus and turns lifecycle events into
// UnitReport values, which the helpers in result.go summarize.
//
// # Concurrency Guarantees
//
//   - At most WorkerCount units run at the same time across all executions
//   - Execute returns only after every submitted unit has finished
//   - One Engine may serve many concurrent executions
package executor

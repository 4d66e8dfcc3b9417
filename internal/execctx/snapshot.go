// Package execctx carries the ambient execution state of a logical call into
// the goroutines that run its physical units.
//
// Two pieces of state are tracked: the exception policy (are unit failures
// surfaced or suppressed) and a free-form context map of caller supplied
// values such as correlation ids or route hints. Both have a process-wide
// default that callers may change at any time. A logical call captures them
// once into a Snapshot, and every unit of that call sees exactly that snapshot
// through its context.Context, regardless of later changes to the defaults.
package execctx

import (
	"context"
	"maps"
)

// Snapshot is an immutable copy of the ambient state for one logical call.
type Snapshot struct {
	// ExceptionThrown reports whether unit failures are surfaced
	ExceptionThrown bool

	// DataMap holds caller supplied context values
	DataMap map[string]any
}

// Capture copies the current process-wide state.
func Capture() Snapshot {
	return Snapshot{
		ExceptionThrown: IsExceptionThrown(),
		DataMap:         DataMap(),
	}
}

// Value returns the context value stored under key.
func (s Snapshot) Value(key string) (any, bool) {
	v, ok := s.DataMap[key]
	return v, ok
}

// Clone returns a deep-enough copy of s: the map is copied, values are shared.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		ExceptionThrown: s.ExceptionThrown,
		DataMap:         maps.Clone(s.DataMap),
	}
}

type snapshotKey struct{}

// WithSnapshot returns a context carrying a private copy of snap.
func WithSnapshot(ctx context.Context, snap Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey{}, snap.Clone())
}

// FromContext returns the snapshot carried by ctx, if any.
func FromContext(ctx context.Context) (Snapshot, bool) {
	if ctx == nil {
		return Snapshot{}, false
	}
	snap, ok := ctx.Value(snapshotKey{}).(Snapshot)
	return snap, ok
}

// Resolve returns the snapshot carried by ctx, or captures the process-wide
// state when ctx carries none.
func Resolve(ctx context.Context) Snapshot {
	if snap, ok := FromContext(ctx); ok {
		return snap
	}
	return Capture()
}

// Data looks up key in the snapshot carried by ctx.
func Data(ctx context.Context, key string) (any, bool) {
	snap, ok := FromContext(ctx)
	if !ok {
		return nil, false
	}
	return snap.Value(key)
}

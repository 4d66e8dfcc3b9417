package execctx

import (
	"context"
	"sync/atomic"
)

// exceptionThrown is the process-wide policy. It starts out true so that a
// failing unit surfaces its error unless a caller opts out.
var exceptionThrown atomic.Bool

func init() {
	exceptionThrown.Store(true)
}

// SetExceptionThrown sets whether per-unit failures are surfaced to the caller
// (true) or suppressed in favour of a neutral result (false).
func SetExceptionThrown(thrown bool) {
	exceptionThrown.Store(thrown)
}

// IsExceptionThrown reports the current process-wide policy.
func IsExceptionThrown() bool {
	return exceptionThrown.Load()
}

// HandleException applies the exception policy to err.
// The policy is read from the snapshot carried by ctx. Only when ctx carries no
// snapshot is the live process-wide flag consulted.
// A nil return means the failure was suppressed and the caller must substitute
// the neutral value for its call shape.
func HandleException(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	thrown := IsExceptionThrown()
	if snap, ok := FromContext(ctx); ok {
		thrown = snap.ExceptionThrown
	}

	if thrown {
		return err
	}
	return nil
}

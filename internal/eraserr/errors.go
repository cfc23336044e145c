// Package eraserr defines the error taxonomy shared by the erase,
// pattern and job packages. Callers classify failures with errors.Is
// against the sentinels below.
package eraserr

import (
	"fmt"
	"syscall"

	"github.com/cockroachdb/errors"
)

var (
	// ErrTargetNotFound marks a missing file, directory or mount point.
	// Aborts that target only; a batch keeps going.
	ErrTargetNotFound = errors.New("target not found")

	// ErrIoFailure marks a permission or hardware error mid-pass.
	ErrIoFailure = errors.New("i/o failure")

	// ErrDiskFull is the expected terminal signal of a free-space fill
	// pass. It is not a failure.
	ErrDiskFull = errors.New("disk full")

	// ErrInvalidPattern marks a malformed custom pattern. Raised at
	// creation or load time, never from the erase loop.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrVerificationMismatch marks an unchanged hash or a suspicious
	// free-space sample. Recorded non-fatally.
	ErrVerificationMismatch = errors.New("verification mismatch")

	// ErrJobStateViolation marks an illegal job state transition.
	ErrJobStateViolation = errors.New("job state violation")

	// ErrForceRequired is returned by whole-drive wiping without an
	// explicit force opt-in. There is no interactive fallback here.
	ErrForceRequired = errors.New("force flag required for destructive operation")
)

// Mark attaches sentinel to err so that both the standard library's
// errors.Is and cockroachdb's errors.Is classify err as sentinel. The
// %.0w verb adds sentinel to the unwrap chain without altering err's
// message; errors.Mark alone is invisible to the standard library.
func Mark(err error, sentinel error) error {
	return errors.Mark(fmt.Errorf("%w%.0w", err, sentinel), sentinel)
}

// NotFound wraps err as a TargetNotFound for the given target.
func NotFound(target string) error {
	return Mark(errors.Newf("target not found: %s", target), ErrTargetNotFound)
}

// IoFailure wraps an underlying I/O error with target context.
func IoFailure(err error, target string) error {
	return Mark(errors.Wrapf(err, "i/o failure on %s", target), ErrIoFailure)
}

// InvalidPattern wraps a pattern validation failure.
func InvalidPattern(err error, name string) error {
	return Mark(errors.Wrapf(err, "pattern %q", name), ErrInvalidPattern)
}

// IsDiskFull reports whether err is the ENOSPC family, in any wrapping.
// Free-space fill loops treat this as normal pass termination.
func IsDiskFull(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrDiskFull) || errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT)
}

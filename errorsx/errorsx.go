// Package errorsx classifies fatal harness errors so the top-level handler
// can map them to a diagnostic and an exit code.
package errorsx

import "errors"

// Kind is a short machine-readable error class.
type Kind string

const (
	KindUnknown  Kind = "unknown"
	KindConfig   Kind = "config"
	KindBinding  Kind = "binding"
	KindFormat   Kind = "format"
	KindResource Kind = "resource"
	KindEngine   Kind = "engine"
)

// KindError wraps an error with its Kind.
type KindError struct {
	Err  error
	Kind Kind
}

func (e KindError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e KindError) Unwrap() error {
	return e.Err
}

// Wrap attaches kind to err. It is a no-op for nil errors and for errors
// that already carry a kind, so the innermost classification wins.
func Wrap(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	var ke KindError
	if errors.As(err, &ke) {
		return err
	}
	return KindError{Err: err, Kind: kind}
}

// KindOf returns the kind attached to err, or KindUnknown.
func KindOf(err error) Kind {
	var ke KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps an error to the process exit status. Every failure is
// terminal for a benchmark run, so all kinds exit with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

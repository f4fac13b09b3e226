package manager

import "errors"

// workerUnavailableError signals that no generation worker will serve the
// request (dispatch queue closed or request dropped), mapped to 503.
type workerUnavailableError struct{ reason string }

func (e workerUnavailableError) Error() string { return "generation worker unavailable: " + e.reason }

// ErrWorkerUnavailable constructs a workerUnavailableError.
func ErrWorkerUnavailable(reason string) error { return workerUnavailableError{reason: reason} }

// IsWorkerUnavailable reports whether err means the request never reached a worker.
func IsWorkerUnavailable(err error) bool {
	var e workerUnavailableError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing external dependency (e.g., llama.cpp
// not compiled in) so callers can report it instead of failing generically.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

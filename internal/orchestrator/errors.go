package orchestrator

// workerUnavailableError signals the worker process could not be spawned
// or died before answering. The handle is left empty so the next call
// retries spawning.
type workerUnavailableError struct{ msg string }

func (e workerUnavailableError) Error() string { return "worker unavailable: " + e.msg }

// ErrWorkerUnavailable constructs a workerUnavailableError.
func ErrWorkerUnavailable(msg string) error { return workerUnavailableError{msg: msg} }

// IsWorkerUnavailable reports whether err indicates a dead or unspawnable
// worker.
func IsWorkerUnavailable(err error) bool {
	_, ok := err.(workerUnavailableError)
	return ok
}

// workerTimeoutError signals the caller's deadline expired while waiting
// for the worker. The worker must be treated as unresponsive; recovery is
// CollapseToZero(force=true) followed by a lazy respawn.
type workerTimeoutError struct{}

func (workerTimeoutError) Error() string { return "worker did not answer before the deadline" }

// ErrWorkerTimeout is returned when a generate call outlives its context.
func ErrWorkerTimeout() error { return workerTimeoutError{} }

// IsWorkerTimeout reports whether err indicates an unresponsive worker.
func IsWorkerTimeout(err error) bool {
	_, ok := err.(workerTimeoutError)
	return ok
}

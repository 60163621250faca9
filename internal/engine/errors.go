package engine

import "errors"

var (
	// ErrAlreadyRunning is an informational rejection: the named process is
	// already alive (including adopted, detached children). Start is
	// idempotent with respect to it.
	ErrAlreadyRunning = errors.New("process already running")

	// ErrNotFound reports that no record exists for the requested name.
	ErrNotFound = errors.New("process not found")
)

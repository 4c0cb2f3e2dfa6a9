package recorder

import "errors"

var (
	// ErrNoActiveSession indicates End was called with nothing recorded.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSyncInFlight indicates a previous End has not returned yet.
	ErrSyncInFlight = errors.New("sync already in flight")
	// ErrErrorPending indicates the last failure has not been dismissed.
	ErrErrorPending = errors.New("previous error not dismissed")
)

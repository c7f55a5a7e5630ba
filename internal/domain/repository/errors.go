package repository

import "errors"

var (
	// ErrConflict means another transaction changed a document this one read
	ErrConflict = errors.New("repository: concurrent modification")
	// ErrStoreUnavailable means the backing store could not be reached
	ErrStoreUnavailable = errors.New("repository: store unavailable")
	// ErrRetriesExhausted wraps the last conflict once the retry budget is spent
	ErrRetriesExhausted = errors.New("repository: transaction retries exhausted")
	// ErrSessionBusy means another request holds the checkout session
	ErrSessionBusy = errors.New("repository: checkout session is busy")
)

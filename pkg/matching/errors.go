package matching

import (
	"errors"
	"fmt"
)

// ErrNoFeed is returned by Subscribe when the service runs without a change feed.
var ErrNoFeed = errors.New("change feed is not configured")

// ErrInvalidFilter wraps filter validation failures.
var ErrInvalidFilter = errors.New("invalid filter")

// JobFetchError means the job store could not be read; the call is aborted.
type JobFetchError struct {
	Offset int
	Err    error
}

func (e *JobFetchError) Error() string {
	return fmt.Sprintf("fetch jobs at offset %d: %v", e.Offset, e.Err)
}

func (e *JobFetchError) Unwrap() error { return e.Err }

// PersistenceWriteError means results were not stored. The cached set stays valid and
// the save can be retried.
type PersistenceWriteError struct {
	CandidateID string
	Err         error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("persist results for %s: %v", e.CandidateID, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }

// SubscriptionError closes a subscription whose feed failed. Callers resubscribe.
type SubscriptionError struct {
	CandidateID string
	Err         error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription for %s: %v", e.CandidateID, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

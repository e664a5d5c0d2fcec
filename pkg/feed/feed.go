// Package feed carries "rankings changed" events scoped to a candidate.
package feed

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is reported by streams whose source went away.
var ErrClosed = errors.New("feed closed")

// Event says that persisted results of a candidate changed. It carries no payload:
// consumers reload the full snapshot.
type Event struct {
	CandidateID string
	At          time.Time
}

// Stream delivers events for one candidate until closed. Bursts may be coalesced into
// a single pending event.
type Stream interface {
	Events() <-chan Event
	// Done is closed when the stream ends, either by Close or by a source failure.
	Done() <-chan struct{}
	// Err is nil after a local Close and the failure cause otherwise.
	Err() error
	Close() error
}

// Source opens streams.
type Source interface {
	Subscribe(ctx context.Context, candidateID string) (Stream, error)
}

// Publisher emits events for sources that are not fed by the database itself.
type Publisher interface {
	Publish(ctx context.Context, candidateID string) error
}

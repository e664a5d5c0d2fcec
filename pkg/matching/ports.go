package matching

import (
	"context"

	"github.com/artem13815/jobmatch/pkg/enrich"
	"github.com/artem13815/jobmatch/pkg/scoring"
)

// ResultStore: порт долговременного хранения результатов сопоставления.
type ResultStore interface {
	// Upsert replaces the rows for (candidateID, job_id) of every result in one transaction.
	Upsert(ctx context.Context, candidateID string, results []scoring.MatchResult, w scoring.Weights) error
	// ListByCandidate returns stored rows ordered by overall_score desc, then job_id.
	ListByCandidate(ctx context.Context, candidateID string, limit, offset int) ([]scoring.MatchResult, error)
}

// Notifier re-delivers a candidate's saved rankings whenever they change.
type Notifier interface {
	Subscribe(ctx context.Context, candidateID string, onUpdate func([]enrich.Result)) (*Subscription, error)
}

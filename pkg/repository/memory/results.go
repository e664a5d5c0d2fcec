package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artem13815/jobmatch/pkg/scoring"
)

// ResultRepository keeps saved rows keyed by (candidate, job). Weights are not kept:
// nothing reads them back outside the SQL stores.
type ResultRepository struct {
	mu   sync.RWMutex
	rows map[string]map[string]scoring.MatchResult
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{rows: make(map[string]map[string]scoring.MatchResult)}
}

func (r *ResultRepository) Upsert(ctx context.Context, candidateID string, results []scoring.MatchResult, _ scoring.Weights) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byJob, ok := r.rows[candidateID]
	if !ok {
		byJob = make(map[string]scoring.MatchResult, len(results))
		r.rows[candidateID] = byJob
	}
	for _, res := range results {
		res.CandidateID = candidateID
		byJob[res.JobID] = res
	}
	return nil
}

func (r *ResultRepository) ListByCandidate(ctx context.Context, candidateID string, limit, offset int) ([]scoring.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]scoring.MatchResult, 0, len(r.rows[candidateID]))
	for _, res := range r.rows[candidateID] {
		out = append(out, res)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool {
		if out[i].OverallScore != out[k].OverallScore {
			return out[i].OverallScore > out[k].OverallScore
		}
		return out[i].JobID < out[k].JobID
	})
	return window(out, limit, offset), nil
}


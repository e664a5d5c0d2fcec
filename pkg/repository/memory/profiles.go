package memory

import (
	"context"
	"sync"
	"time"

	"github.com/artem13815/jobmatch/pkg/resume"
)

type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]resume.Record
}

func NewProfileRepository(records ...resume.Record) *ProfileRepository {
	r := &ProfileRepository{profiles: make(map[string]resume.Record, len(records))}
	for _, rec := range records {
		r.profiles[rec.CandidateID] = rec
	}
	return r
}

func (r *ProfileRepository) GetProfile(ctx context.Context, candidateID string) (resume.Record, error) {
	if err := ctx.Err(); err != nil {
		return resume.Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.profiles[candidateID]
	if !ok {
		return resume.Record{}, resume.ErrNotFound
	}
	return rec, nil
}

func (r *ProfileRepository) UpsertProfile(_ context.Context, rec resume.Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[rec.CandidateID] = rec
	return nil
}

// Package memory keeps jobs, profiles and saved results in process memory. It backs the
// "memory" storage driver and the package tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artem13815/jobmatch/pkg/vacancy"
)

type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]vacancy.Job
}

func NewJobRepository(jobs ...vacancy.Job) *JobRepository {
	r := &JobRepository{jobs: make(map[string]vacancy.Job, len(jobs))}
	for _, j := range jobs {
		r.jobs[j.ID] = j
	}
	return r
}

func (r *JobRepository) Upsert(_ context.Context, j vacancy.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
	return nil
}

func (r *JobRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return vacancy.ErrNotFound
	}
	delete(r.jobs, id)
	return nil
}

// List orders by posted_at desc, then id, like the SQL adapters.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]vacancy.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]vacancy.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		all = append(all, j)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, k int) bool {
		if !all[i].PostedAt.Equal(all[k].PostedAt) {
			return all[i].PostedAt.After(all[k].PostedAt)
		}
		return all[i].ID < all[k].ID
	})
	return window(all, limit, offset), nil
}

func (r *JobRepository) GetByIDs(ctx context.Context, ids []string) (map[string]vacancy.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]vacancy.Job, len(ids))
	for _, id := range ids {
		if j, ok := r.jobs[id]; ok {
			out[id] = j
		}
	}
	return out, nil
}

func (r *JobRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/jobmatch/pkg/resume"
)

// ProfileRepository хранит сырые профили кандидатов как JSONB.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, candidateID string) (resume.Record, error) {
	row := r.pool.QueryRow(ctx, `
SELECT candidate_id, data, updated_at FROM candidate_profiles WHERE candidate_id = $1
`, candidateID)
	var rec resume.Record
	var data []byte
	var updated time.Time
	if err := row.Scan(&rec.CandidateID, &data, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resume.Record{}, resume.ErrNotFound
		}
		return resume.Record{}, err
	}
	// битый JSON даёт пустой профиль, а не ошибку
	_ = json.Unmarshal(data, &rec.Data)
	rec.UpdatedAt = updated.UTC()
	return rec, nil
}

func (r *ProfileRepository) UpsertProfile(ctx context.Context, rec resume.Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO candidate_profiles (candidate_id, data, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (candidate_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
`, rec.CandidateID, data, rec.UpdatedAt)
	return err
}

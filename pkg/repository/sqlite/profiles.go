package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/artem13815/jobmatch/pkg/resume"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, candidateID string) (resume.Record, error) {
	var rec resume.Record
	var data, updated string
	err := r.db.QueryRowContext(ctx, `
SELECT candidate_id, data, updated_at FROM candidate_profiles WHERE candidate_id = ?`, candidateID).
		Scan(&rec.CandidateID, &data, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return resume.Record{}, resume.ErrNotFound
	}
	if err != nil {
		return resume.Record{}, err
	}
	_ = json.Unmarshal([]byte(data), &rec.Data)
	rec.UpdatedAt = parseTime(updated)
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
	_, err = r.db.ExecContext(ctx, `
INSERT INTO candidate_profiles (candidate_id, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT (candidate_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		rec.CandidateID, string(data), rec.UpdatedAt.UTC().Format(timeLayout))
	return err
}

package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/jobmatch/pkg/scoring"
)

// ResultRepository сохраняет результаты сопоставления; одна строка на (candidate_id, job_id).
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Upsert writes all rows in one transaction using a single batch round trip.
func (r *ResultRepository) Upsert(ctx context.Context, candidateID string, results []scoring.MatchResult, w scoring.Weights) error {
	if len(results) == 0 {
		return nil
	}
	weights, err := json.Marshal(w)
	if err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, m := range results {
		computed := m.ComputedAt
		if computed.IsZero() {
			computed = time.Now().UTC()
		}
		batch.Queue(`
INSERT INTO match_results (id, candidate_id, job_id, overall_score, skills_score, tools_score,
	language_score, location_score, matched_skills, missing_skills, matched_tools, missing_tools,
	match_explanation, weights, computed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (candidate_id, job_id) DO UPDATE SET
	overall_score = EXCLUDED.overall_score, skills_score = EXCLUDED.skills_score,
	tools_score = EXCLUDED.tools_score, language_score = EXCLUDED.language_score,
	location_score = EXCLUDED.location_score, matched_skills = EXCLUDED.matched_skills,
	missing_skills = EXCLUDED.missing_skills, matched_tools = EXCLUDED.matched_tools,
	missing_tools = EXCLUDED.missing_tools, match_explanation = EXCLUDED.match_explanation,
	weights = EXCLUDED.weights, computed_at = EXCLUDED.computed_at
`, uuid.New(), candidateID, m.JobID, m.OverallScore, m.SkillsScore, m.ToolsScore,
			m.LanguageScore, m.LocationScore, nonNil(m.MatchedSkills), nonNil(m.MissingSkills),
			nonNil(m.MatchedTools), nonNil(m.MissingTools), m.MatchExplanation, weights, computed)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ResultRepository) ListByCandidate(ctx context.Context, candidateID string, limit, offset int) ([]scoring.MatchResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
SELECT job_id, candidate_id, overall_score, skills_score, tools_score, language_score, location_score,
	matched_skills, missing_skills, matched_tools, missing_tools, match_explanation, computed_at
FROM match_results
WHERE candidate_id = $1
ORDER BY overall_score DESC, job_id
LIMIT $2 OFFSET $3
`, candidateID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []scoring.MatchResult{}
	for rows.Next() {
		var m scoring.MatchResult
		var computed time.Time
		if err := rows.Scan(&m.JobID, &m.CandidateID, &m.OverallScore, &m.SkillsScore, &m.ToolsScore,
			&m.LanguageScore, &m.LocationScore, &m.MatchedSkills, &m.MissingSkills, &m.MatchedTools,
			&m.MissingTools, &m.MatchExplanation, &computed); err != nil {
			return nil, err
		}
		m.ComputedAt = computed.UTC()
		res = append(res, m)
	}
	return res, rows.Err()
}

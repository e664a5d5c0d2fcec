package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/jobmatch/pkg/scoring"
)

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) Upsert(ctx context.Context, candidateID string, results []scoring.MatchResult, w scoring.Weights) error {
	if len(results) == 0 {
		return nil
	}
	weights, err := json.Marshal(w)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO match_results (id, candidate_id, job_id, overall_score, skills_score, tools_score,
	language_score, location_score, matched_skills, missing_skills, matched_tools, missing_tools,
	match_explanation, weights, computed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (candidate_id, job_id) DO UPDATE SET
	overall_score = excluded.overall_score, skills_score = excluded.skills_score,
	tools_score = excluded.tools_score, language_score = excluded.language_score,
	location_score = excluded.location_score, matched_skills = excluded.matched_skills,
	missing_skills = excluded.missing_skills, matched_tools = excluded.matched_tools,
	missing_tools = excluded.missing_tools, match_explanation = excluded.match_explanation,
	weights = excluded.weights, computed_at = excluded.computed_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range results {
		computed := m.ComputedAt
		if computed.IsZero() {
			computed = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), candidateID, m.JobID,
			m.OverallScore, m.SkillsScore, m.ToolsScore, m.LanguageScore, m.LocationScore,
			encodeList(m.MatchedSkills), encodeList(m.MissingSkills),
			encodeList(m.MatchedTools), encodeList(m.MissingTools),
			m.MatchExplanation, string(weights), computed.UTC().Format(timeLayout)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ResultRepository) ListByCandidate(ctx context.Context, candidateID string, limit, offset int) ([]scoring.MatchResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT job_id, candidate_id, overall_score, skills_score, tools_score, language_score, location_score,
	matched_skills, missing_skills, matched_tools, missing_tools, match_explanation, computed_at
FROM match_results
WHERE candidate_id = ?
ORDER BY overall_score DESC, job_id
LIMIT ? OFFSET ?`, candidateID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []scoring.MatchResult{}
	for rows.Next() {
		var m scoring.MatchResult
		var ms, mis, mt, mit, computed string
		if err := rows.Scan(&m.JobID, &m.CandidateID, &m.OverallScore, &m.SkillsScore, &m.ToolsScore,
			&m.LanguageScore, &m.LocationScore, &ms, &mis, &mt, &mit, &m.MatchExplanation, &computed); err != nil {
			return nil, err
		}
		m.MatchedSkills, m.MissingSkills = decodeList(ms), decodeList(mis)
		m.MatchedTools, m.MissingTools = decodeList(mt), decodeList(mit)
		m.ComputedAt = parseTime(computed)
		res = append(res, m)
	}
	return res, rows.Err()
}

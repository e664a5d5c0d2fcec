// Package sqlite implements the job, profile and result stores on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/artem13815/jobmatch/pkg/vacancy"
)

// timeLayout has a fixed width so that TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobSelect = `
SELECT j.id, COALESCE(c.id, ''), COALESCE(c.name, ''), COALESCE(c.website, ''),
	j.title, j.work_mode, j.contract_type, j.city, j.country, j.is_remote,
	j.salary_min, j.salary_max, j.salary_currency, j.salary_period,
	j.skills, j.tools, j.language_required, j.application_link, j.linkedin_url, j.posted_at
FROM jobs j
LEFT JOIN companies c ON c.id = j.company_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (vacancy.Job, error) {
	var (
		j                     vacancy.Job
		workMode, contract    string
		remote                bool
		salaryMin, salaryMax  sql.NullInt64
		skills, tools, posted string
	)
	err := row.Scan(&j.ID, &j.Company.ID, &j.Company.Name, &j.Company.Website,
		&j.Title, &workMode, &contract, &j.City, &j.Country, &remote,
		&salaryMin, &salaryMax, &j.Salary.Currency, &j.Salary.Period,
		&skills, &tools, &j.LanguageRequired, &j.ApplicationLink, &j.LinkedInURL, &posted)
	if err != nil {
		return vacancy.Job{}, err
	}
	j.WorkMode = vacancy.WorkMode(workMode)
	j.ContractType = vacancy.ContractType(contract)
	j.IsRemote = remote
	j.Salary.Min = intOrNil(salaryMin)
	j.Salary.Max = intOrNil(salaryMax)
	j.Skills = decodeList(skills)
	j.Tools = decodeList(tools)
	j.PostedAt = parseTime(posted)
	return j, nil
}

func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]vacancy.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, jobSelect+`
WHERE j.is_active = 1
ORDER BY j.posted_at DESC, j.id
LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []vacancy.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

func (r *JobRepository) GetByIDs(ctx context.Context, ids []string) (map[string]vacancy.Job, error) {
	res := make(map[string]vacancy.Job, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := r.db.QueryContext(ctx, jobSelect+`WHERE j.id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		res[j.ID] = j
	}
	return res, rows.Err()
}

func (r *JobRepository) Get(ctx context.Context, id string) (vacancy.Job, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, jobSelect+`WHERE j.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return vacancy.Job{}, vacancy.ErrNotFound
	}
	return j, err
}

func (r *JobRepository) Upsert(ctx context.Context, j vacancy.Job) error {
	if j.PostedAt.IsZero() {
		j.PostedAt = time.Now().UTC()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var companyID any
	if id := companyKey(j.Company); id != "" {
		companyID = id
		if _, err := tx.ExecContext(ctx, `
INSERT INTO companies (id, name, website) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, website = excluded.website`,
			id, strings.TrimSpace(j.Company.Name), strings.TrimSpace(j.Company.Website)); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO jobs (id, company_id, title, work_mode, contract_type, city, country, is_remote,
	salary_min, salary_max, salary_currency, salary_period, skills, tools, language_required,
	application_link, linkedin_url, posted_at, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
ON CONFLICT (id) DO UPDATE SET
	company_id = excluded.company_id, title = excluded.title, work_mode = excluded.work_mode,
	contract_type = excluded.contract_type, city = excluded.city, country = excluded.country,
	is_remote = excluded.is_remote, salary_min = excluded.salary_min, salary_max = excluded.salary_max,
	salary_currency = excluded.salary_currency, salary_period = excluded.salary_period,
	skills = excluded.skills, tools = excluded.tools, language_required = excluded.language_required,
	application_link = excluded.application_link, linkedin_url = excluded.linkedin_url,
	posted_at = excluded.posted_at, is_active = 1`,
		j.ID, companyID, strings.TrimSpace(j.Title), string(j.WorkMode), string(j.ContractType),
		j.City, j.Country, j.IsRemote, nullInt(j.Salary.Min), nullInt(j.Salary.Max),
		j.Salary.Currency, j.Salary.Period, encodeList(j.Skills), encodeList(j.Tools),
		j.LanguageRequired, j.ApplicationLink, j.LinkedInURL, j.PostedAt.UTC().Format(timeLayout))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *JobRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE jobs SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return vacancy.ErrNotFound
	}
	return nil
}

func companyKey(c vacancy.Company) string {
	if id := strings.TrimSpace(c.ID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Name)
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeList(s string) []string {
	out := []string{}
	_ = json.Unmarshal([]byte(s), &out)
	if out == nil {
		out = []string{}
	}
	return out
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intOrNil(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/jobmatch/pkg/vacancy"
)

// JobRepository читает активные вакансии вместе с данными компании.
type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobSelect = `
SELECT j.id, COALESCE(c.id, ''), COALESCE(c.name, ''), COALESCE(c.website, ''),
	j.title, j.work_mode, j.contract_type, j.city, j.country, j.is_remote,
	j.salary_min, j.salary_max, j.salary_currency, j.salary_period,
	j.skills, j.tools, j.language_required, j.application_link, j.linkedin_url, j.posted_at
FROM jobs j
LEFT JOIN companies c ON c.id = j.company_id
`

func scanJob(row pgx.Row) (vacancy.Job, error) {
	var j vacancy.Job
	var workMode, contract string
	var posted time.Time
	err := row.Scan(&j.ID, &j.Company.ID, &j.Company.Name, &j.Company.Website,
		&j.Title, &workMode, &contract, &j.City, &j.Country, &j.IsRemote,
		&j.Salary.Min, &j.Salary.Max, &j.Salary.Currency, &j.Salary.Period,
		&j.Skills, &j.Tools, &j.LanguageRequired, &j.ApplicationLink, &j.LinkedInURL, &posted)
	if err != nil {
		return vacancy.Job{}, err
	}
	j.WorkMode = vacancy.WorkMode(workMode)
	j.ContractType = vacancy.ContractType(contract)
	j.PostedAt = posted.UTC()
	return j, nil
}

func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]vacancy.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, jobSelect+`
WHERE j.is_active
ORDER BY j.posted_at DESC, j.id
LIMIT $1 OFFSET $2
`, limit, offset)
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

// GetByIDs также возвращает неактивные вакансии: сохранённые результаты должны показывать их.
func (r *JobRepository) GetByIDs(ctx context.Context, ids []string) (map[string]vacancy.Job, error) {
	res := make(map[string]vacancy.Job, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	rows, err := r.pool.Query(ctx, jobSelect+`WHERE j.id = ANY($1)`, ids)
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
	j, err := scanJob(r.pool.QueryRow(ctx, jobSelect+`WHERE j.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return vacancy.Job{}, vacancy.ErrNotFound
	}
	return j, err
}

// Upsert stores the job and its company in one transaction.
func (r *JobRepository) Upsert(ctx context.Context, j vacancy.Job) error {
	if j.PostedAt.IsZero() {
		j.PostedAt = time.Now().UTC()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var companyID *string
	if id := companyKey(j.Company); id != "" {
		companyID = &id
		_, err = tx.Exec(ctx, `
INSERT INTO companies (id, name, website) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, website = EXCLUDED.website
`, id, strings.TrimSpace(j.Company.Name), strings.TrimSpace(j.Company.Website))
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
INSERT INTO jobs (id, company_id, title, work_mode, contract_type, city, country, is_remote,
	salary_min, salary_max, salary_currency, salary_period, skills, tools, language_required,
	application_link, linkedin_url, posted_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, TRUE)
ON CONFLICT (id) DO UPDATE SET
	company_id = EXCLUDED.company_id, title = EXCLUDED.title, work_mode = EXCLUDED.work_mode,
	contract_type = EXCLUDED.contract_type, city = EXCLUDED.city, country = EXCLUDED.country,
	is_remote = EXCLUDED.is_remote, salary_min = EXCLUDED.salary_min, salary_max = EXCLUDED.salary_max,
	salary_currency = EXCLUDED.salary_currency, salary_period = EXCLUDED.salary_period,
	skills = EXCLUDED.skills, tools = EXCLUDED.tools, language_required = EXCLUDED.language_required,
	application_link = EXCLUDED.application_link, linkedin_url = EXCLUDED.linkedin_url,
	posted_at = EXCLUDED.posted_at, is_active = TRUE
`, j.ID, companyID, strings.TrimSpace(j.Title), string(j.WorkMode), string(j.ContractType),
		j.City, j.Country, j.IsRemote, j.Salary.Min, j.Salary.Max, j.Salary.Currency, j.Salary.Period,
		nonNil(j.Skills), nonNil(j.Tools), j.LanguageRequired, j.ApplicationLink, j.LinkedInURL, j.PostedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Deactivate hides a job from ranking; saved results keep pointing at it.
func (r *JobRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE jobs SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return vacancy.ErrNotFound
	}
	return nil
}

// companyKey falls back to the company name when the feed carries no company id.
func companyKey(c vacancy.Company) string {
	if id := strings.TrimSpace(c.ID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Name)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

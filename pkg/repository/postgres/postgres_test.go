package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/artem13815/jobmatch/pkg/resume"
	"github.com/artem13815/jobmatch/pkg/scoring"
	"github.com/artem13815/jobmatch/pkg/vacancy"
	storage "github.com/artem13815/jobmatch/pkg/storage/postgres"
)

// testPool connects to JOBMATCH_TEST_DATABASE_URL and migrates it; the test is skipped
// when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("JOBMATCH_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("JOBMATCH_TEST_DATABASE_URL is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := storage.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool, zaptest.NewLogger(t)))
	return pool
}

func intPtr(v int) *int { return &v }

func TestJobRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewJobRepository(pool)
	ctx := context.Background()
	id := "job-" + uuid.NewString()

	in := vacancy.Job{
		ID: id, Title: " Go Engineer ", Company: vacancy.Company{Name: "Acme " + id, Website: "https://acme.example"},
		WorkMode: vacancy.WorkModeHybrid, ContractType: vacancy.ContractFullTime,
		City: "Berlin", Country: "Germany", Skills: []string{"Go"}, Tools: nil,
		Salary:   vacancy.Salary{Min: intPtr(60000), Max: intPtr(80000), Currency: "EUR"},
		PostedAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(ctx, in))

	got, err := repo.GetByIDs(ctx, []string{id, "missing"})
	require.NoError(t, err)
	require.Contains(t, got, id)
	j := got[id]
	assert.Equal(t, "Go Engineer", j.Title)
	assert.Equal(t, "Acme "+id, j.Company.Name)
	assert.Equal(t, 60000, *j.Salary.Min)
	assert.Equal(t, []string{}, j.Tools)

	page, err := repo.List(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, id, page[0].ID)

	require.NoError(t, repo.Deactivate(ctx, id))
	_, err = repo.Get(ctx, "missing-"+id)
	assert.ErrorIs(t, err, vacancy.ErrNotFound)
}

func TestProfileRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewProfileRepository(pool)
	ctx := context.Background()
	id := "cand-" + uuid.NewString()

	_, err := repo.GetProfile(ctx, id)
	assert.ErrorIs(t, err, resume.ErrNotFound)

	require.NoError(t, repo.UpsertProfile(ctx, resume.Record{CandidateID: id, Data: map[string]any{"skills": []any{"Go"}}}))
	rec, err := repo.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.True(t, resume.Normalize(id, rec).Skills.Contains("go"))
}

func TestResultRepositoryUpsertAndNotify(t *testing.T) {
	pool := testPool(t)
	repo := NewResultRepository(pool)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	id := "cand-" + uuid.NewString()

	l := NewListener(pool, zaptest.NewLogger(t))
	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(ctx) }()

	s, err := l.Subscribe(ctx, id)
	require.NoError(t, err)
	// LISTEN is issued asynchronously; give it a moment before writing
	time.Sleep(200 * time.Millisecond)

	rows := []scoring.MatchResult{
		{JobID: "a", OverallScore: 40, MatchedSkills: []string{"Go"}},
		{JobID: "b", OverallScore: 90},
	}
	require.NoError(t, repo.Upsert(ctx, id, rows, scoring.DefaultWeights))
	require.NoError(t, repo.Upsert(ctx, id, []scoring.MatchResult{{JobID: "a", OverallScore: 95}}, scoring.DefaultWeights))

	got, err := repo.ListByCandidate(ctx, id, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].JobID)
	assert.Equal(t, 95.0, got[0].OverallScore)

	var raw []byte
	require.NoError(t, pool.QueryRow(ctx, `SELECT weights FROM match_results WHERE candidate_id = $1 AND job_id = 'a'`, id).Scan(&raw))
	var w scoring.Weights
	require.NoError(t, json.Unmarshal(raw, &w))
	assert.Equal(t, scoring.DefaultWeights, w)

	select {
	case ev := <-s.Events():
		assert.Equal(t, id, ev.CandidateID)
	case <-time.After(3 * time.Second):
		t.Fatal("no notification received")
	}

	cancel()
	assert.NoError(t, <-runErr)
}

package matching

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/artem13815/jobmatch/pkg/filter"
	"github.com/artem13815/jobmatch/pkg/matchcache"
	"github.com/artem13815/jobmatch/pkg/repository/memory"
	"github.com/artem13815/jobmatch/pkg/resume"
	"github.com/artem13815/jobmatch/pkg/scoring"
	"github.com/artem13815/jobmatch/pkg/vacancy"
)

// countingJobs counts List calls to detect re-scoring.
type countingJobs struct {
	*memory.JobRepository
	lists atomic.Int32
	err   error
}

func (c *countingJobs) List(ctx context.Context, limit, offset int) ([]vacancy.Job, error) {
	c.lists.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.JobRepository.List(ctx, limit, offset)
}

type failingStore struct{ err error }

func (f failingStore) Upsert(context.Context, string, []scoring.MatchResult, scoring.Weights) error {
	return f.err
}

func (f failingStore) ListByCandidate(context.Context, string, int, int) ([]scoring.MatchResult, error) {
	return nil, f.err
}

var posted = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func corpus() []vacancy.Job {
	return []vacancy.Job{
		{
			ID: "go-berlin", Title: "Go Developer", Company: vacancy.Company{Name: "Acme"},
			WorkMode: vacancy.WorkModeHybrid, ContractType: vacancy.ContractFullTime,
			City: "Berlin", Country: "Germany", Skills: []string{"Go", "PostgreSQL"},
			LanguageRequired: "EN", ApplicationLink: "https://acme.example/jobs/1", PostedAt: posted,
		},
		{
			ID: "java-munich", Title: "Java Developer", Company: vacancy.Company{Name: "Beta"},
			WorkMode: vacancy.WorkModeOnsite, ContractType: vacancy.ContractFullTime,
			City: "Munich", Country: "Germany", Skills: []string{"Java", "Spring"},
			LanguageRequired: "DE", ApplicationLink: "https://beta.example", PostedAt: posted,
		},
		{
			ID: "remote-go", Title: "Remote Go Engineer", Company: vacancy.Company{Name: "Gamma"},
			WorkMode: vacancy.WorkModeRemote, ContractType: vacancy.ContractContract,
			Skills: []string{"Go"}, Tools: []string{"Docker"}, PostedAt: posted,
		},
		{ID: "", Title: "broken record", PostedAt: posted},
	}
}

func candidate() resume.Record {
	return resume.Record{CandidateID: "cand-1", Data: map[string]any{
		"skills":    []any{"Go", "PostgreSQL", "Docker"},
		"languages": []any{"English (C1)"},
		"location":  "Berlin",
	}}
}

type fixture struct {
	svc   *Service
	jobs  *countingJobs
	store *memory.ResultRepository
	logs  *observer.ObservedLogs
	now   *time.Time
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	jobs := &countingJobs{JobRepository: memory.NewJobRepository(corpus()...)}
	store := memory.NewResultRepository()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	base := []Option{
		WithLogger(zap.New(core)),
		WithCache(matchcache.WithClock(clock)),
		WithPageSize(2),
	}
	svc := New(memory.NewProfileRepository(candidate()), jobs, store, append(base, opts...)...)
	return fixture{svc: svc, jobs: jobs, store: store, logs: logs, now: &now}
}

func ids(out Outcome) []string {
	res := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		res = append(res, r.JobID)
	}
	return res
}

func TestMatchRanksAndSkips(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Match(context.Background(), "cand-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"go-berlin", "remote-go", "java-munich"}, ids(out))
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, 3, out.Total)
	assert.False(t, out.Cached)
	for i := 1; i < len(out.Results); i++ {
		assert.GreaterOrEqual(t, out.Results[i-1].OverallScore, out.Results[i].OverallScore)
	}
	assert.Equal(t, "Acme", out.Results[0].Job.Company)
	assert.Equal(t, "cand-1", out.Results[0].CandidateID)
	// page size 2 over 4 jobs reads pages at 0 and 2, then stops on the short page at 4
	assert.EqualValues(t, 3, f.jobs.lists.Load())
	assert.Equal(t, 1, f.logs.FilterMessage("job skipped").Len())
}

func TestMatchUsesCacheWithoutRescoring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	calls := f.jobs.lists.Load()

	second, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, calls, f.jobs.lists.Load())
	assert.Equal(t, first.Results, second.Results)
}

func TestMatchDefaultOptionsHitCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	calls := f.jobs.lists.Load()

	out, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	assert.True(t, out.Cached)
	assert.Equal(t, calls, f.jobs.lists.Load())
}

func TestCachedRankingIgnoresCallerMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, first.Results[0].MatchedSkills)
	want := first.Results[0].MatchedSkills[0]
	first.Results[0].MatchedSkills[0] = "changed"
	first.Results[0].MissingSkills = append(first.Results[0].MissingSkills, "changed")
	*first.Results[0].Job.PostedAt = time.Time{}

	second, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	require.True(t, second.Cached)
	assert.Equal(t, want, second.Results[0].MatchedSkills[0])
	assert.NotContains(t, second.Results[0].MissingSkills, "changed")
	assert.Equal(t, posted, *second.Results[0].Job.PostedAt)

	filtered, err := f.svc.Match(ctx, "cand-1", Options{Filters: filter.Spec{MustHaveSkills: []string{"go"}}})
	require.NoError(t, err)
	assert.Equal(t, want, filtered.Results[0].MatchedSkills[0])
}

func TestMatchWithoutCacheRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	calls := f.jobs.lists.Load()

	out, err := f.svc.Match(ctx, "cand-1", Options{SkipCache: true})
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Greater(t, f.jobs.lists.Load(), calls)
}

func TestClearCacheForcesRecompute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)

	f.svc.ClearCache("cand-1")
	calls := f.jobs.lists.Load()
	out, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Greater(t, f.jobs.lists.Load(), calls)

	f.svc.ClearCache("")
	assert.Equal(t, 0, f.svc.CacheStats().Entries)
}

func TestCacheExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)

	*f.now = f.now.Add(matchcache.DefaultTTL)
	out, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	assert.False(t, out.Cached)
}

func TestMatchFiltersAndLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Match(ctx, "cand-1", Options{Filters: filter.Spec{MustHaveSkills: []string{"go"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"go-berlin", "remote-go"}, ids(out))
	assert.Equal(t, 3, out.Total)

	out, err = f.svc.Match(ctx, "cand-1", Options{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"go-berlin"}, ids(out))

	bad := -5.0
	_, err = f.svc.Match(ctx, "cand-1", Options{Filters: filter.Spec{MinScore: &bad}})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestMatchProfileNotFound(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Match(context.Background(), "ghost", Options{})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.EqualValues(t, 0, f.jobs.lists.Load())
	assert.Equal(t, 1, f.logs.FilterMessage("profile not found").Len())
}

func TestMatchJobFetchError(t *testing.T) {
	f := newFixture(t)
	f.jobs.err = errors.New("connection refused")

	_, err := f.svc.Match(context.Background(), "cand-1", Options{})
	var jfe *JobFetchError
	require.ErrorAs(t, err, &jfe)
	assert.Equal(t, 0, jfe.Offset)
}

func TestSaveAndLoadResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.svc.SaveResults(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	w, ok := f.store.Weights("cand-1")
	require.True(t, ok)
	assert.Equal(t, scoring.DefaultWeights, w)

	// the display data comes from the live job, not the saved row
	require.NoError(t, f.jobs.Upsert(ctx, vacancy.Job{
		ID: "go-berlin", Title: "Senior Go Developer", Company: vacancy.Company{Name: "Acme"},
		City: "Berlin", Skills: []string{"Go", "PostgreSQL"}, PostedAt: posted,
	}))
	require.NoError(t, f.jobs.Delete(ctx, "java-munich"))

	saved, err := f.svc.LoadSavedResults(ctx, "cand-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Equal(t, "go-berlin", saved[0].JobID)
	assert.Equal(t, "Senior Go Developer", saved[0].Job.Title)
	assert.Equal(t, "java-munich", saved[2].JobID)
	assert.Empty(t, saved[2].Job.Title)

	page, err := f.svc.LoadSavedResults(ctx, "cand-1", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "remote-go", page[0].JobID)
}

func TestSaveResultsReusesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	calls := f.jobs.lists.Load()

	_, err = f.svc.SaveResults(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, calls, f.jobs.lists.Load())
}

func TestSaveResultsPersistenceError(t *testing.T) {
	jobs := &countingJobs{JobRepository: memory.NewJobRepository(corpus()...)}
	cause := errors.New("disk full")
	svc := New(memory.NewProfileRepository(candidate()), jobs, failingStore{err: cause})
	ctx := context.Background()

	_, err := svc.SaveResults(ctx, "cand-1")
	var pwe *PersistenceWriteError
	require.ErrorAs(t, err, &pwe)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cand-1", pwe.CandidateID)

	// the computed ranking is still cached
	out, err := svc.Match(ctx, "cand-1", Options{})
	require.NoError(t, err)
	assert.True(t, out.Cached)
}

func TestSaveResultsMissingProfile(t *testing.T) {
	f := newFixture(t)
	n, err := f.svc.SaveResults(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Zero(t, n)
}

type offlineProfiles struct{}

func (offlineProfiles) GetProfile(context.Context, string) (resume.Record, error) {
	return resume.Record{}, errors.New("profiles offline")
}

func TestMatchProfileStoreError(t *testing.T) {
	svc := New(offlineProfiles{}, memory.NewJobRepository(), memory.NewResultRepository())
	_, err := svc.Match(context.Background(), "cand-1", Options{})
	assert.ErrorContains(t, err, "profiles offline")
}

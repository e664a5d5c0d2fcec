package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gotest.tools/v3/poll"

	"github.com/artem13815/jobmatch/pkg/config"
	"github.com/artem13815/jobmatch/pkg/enrich"
	"github.com/artem13815/jobmatch/pkg/matching"
	"github.com/artem13815/jobmatch/pkg/repository/memory"
)

const fixtures = `
jobs:
  - id: go-berlin
    title: Go Developer
    company: {name: Acme}
    work_mode: Hybrid
    city: Berlin
    country: Germany
    skills: [Go, PostgreSQL]
    language_required: EN
    posted_at: 2026-09-01T00:00:00Z
  - id: java-munich
    title: Java Developer
    company: {name: Beta}
    work_mode: Onsite
    city: Munich
    skills: [Java]
    language_required: DE
    posted_at: 2026-09-02T00:00:00Z
profiles:
  - candidate_id: cand-1
    data:
      skills: [Go, PostgreSQL]
      languages: [English (C1)]
      location: Berlin
`

func baseConfig() config.Config {
	return config.Config{
		JWTSecret:    "secret",
		Feed:         config.FeedAuto,
		CacheTTL:     time.Hour,
		MatchLimit:   100,
		JobsPageSize: 500,
		NotifyRate:   0,
	}
}

func writeFixtures(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtures), 0o600))
	return path
}

func TestBuildMemoryWithFixtures(t *testing.T) {
	cfg := baseConfig()
	cfg.StorageDriver = config.DriverMemory
	cfg.FixturesPath = writeFixtures(t)

	a, err := Build(context.Background(), cfg, zap.NewNop(), Options{})
	require.NoError(t, err)
	defer a.Close()

	out, err := a.Service.Match(context.Background(), "cand-1", matching.Options{})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "go-berlin", out.Results[0].JobID)
	assert.NoError(t, a.Health.Ready(context.Background()))
	assert.Empty(t, a.Health.Report(context.Background()))
}

func TestBuildMemoryFeedDeliversSaves(t *testing.T) {
	cfg := baseConfig()
	cfg.StorageDriver = config.DriverMemory
	cfg.FixturesPath = writeFixtures(t)

	a, err := Build(context.Background(), cfg, zap.NewNop(), Options{})
	require.NoError(t, err)
	defer a.Close()

	got := make(chan []enrich.Result, 1)
	sub, err := a.Service.Subscribe(context.Background(), "cand-1", func(rs []enrich.Result) { got <- rs })
	require.NoError(t, err)
	defer sub.Close()

	n, err := a.Service.SaveResults(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	select {
	case rs := <-got:
		assert.Len(t, rs, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after save")
	}
}

func TestBuildSQLiteWithRedisFeed(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.StorageDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "db", "jobmatch.db")
	cfg.RedisAddr = mr.Addr()

	ctx := context.Background()
	a, err := Build(ctx, cfg, zap.NewNop(), Options{})
	require.NoError(t, err)
	defer a.Close()

	fx, err := memory.LoadFixtures(writeFixtures(t))
	require.NoError(t, err)
	nJobs, nProfiles, err := memory.Seed(ctx, fx, a.Jobs, a.Profiles)
	require.NoError(t, err)
	assert.Equal(t, 2, nJobs)
	assert.Equal(t, 1, nProfiles)

	var last atomic.Pointer[[]enrich.Result]
	sub, err := a.Service.Subscribe(ctx, "cand-1", func(rs []enrich.Result) { last.Store(&rs) })
	require.NoError(t, err)
	defer sub.Close()

	_, err = a.Service.SaveResults(ctx, "cand-1")
	require.NoError(t, err)
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if last.Load() == nil {
			return poll.Continue("waiting for the redis snapshot")
		}
		return poll.Success()
	}, poll.WithTimeout(2*time.Second), poll.WithDelay(10*time.Millisecond))
	rs := *last.Load()
	require.Len(t, rs, 2)
	assert.Equal(t, "Acme", rs[0].Job.Company)

	report := a.Health.Report(ctx)
	require.Len(t, report, 2)
	assert.Equal(t, "sqlite", report[0].Name)
	assert.Equal(t, "redis", report[1].Name)
	assert.NoError(t, a.Health.Ready(ctx))
}

func TestBuildWithoutFeed(t *testing.T) {
	cfg := baseConfig()
	cfg.StorageDriver = config.DriverMemory

	a, err := Build(context.Background(), cfg, nil, Options{WithoutFeed: true})
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Service.Subscribe(context.Background(), "cand-1", func([]enrich.Result) {})
	assert.ErrorIs(t, err, matching.ErrNoFeed)
}

func TestBuildFailures(t *testing.T) {
	cfg := baseConfig()
	cfg.StorageDriver = "oracle"
	_, err := Build(context.Background(), cfg, nil, Options{})
	assert.Error(t, err)

	cfg.StorageDriver = config.DriverMemory
	cfg.FixturesPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = Build(context.Background(), cfg, nil, Options{})
	assert.Error(t, err)

	cfg.FixturesPath = ""
	cfg.Feed = config.FeedRedis
	cfg.RedisAddr = "127.0.0.1:1"
	_, err = Build(context.Background(), cfg, nil, Options{})
	assert.Error(t, err)
}

func TestRunStopsWithContext(t *testing.T) {
	cfg := baseConfig()
	cfg.StorageDriver = config.DriverMemory
	a, err := Build(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

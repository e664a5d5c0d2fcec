package health_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/jobmatch/pkg/health"
	"github.com/artem13815/jobmatch/pkg/health/checkers"
	sqliterepo "github.com/artem13815/jobmatch/pkg/repository/sqlite"
	"github.com/artem13815/jobmatch/pkg/storage/sqlite"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                { return s.name }
func (s stubChecker) Check(context.Context) error { return s.err }

func TestReadyReportsFirstFailure(t *testing.T) {
	down := errors.New("connection refused")
	svc := health.NewService(stubChecker{name: "a"}, nil, stubChecker{name: "b", err: down})

	err := svc.Ready(context.Background())
	require.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), "b:")

	report := svc.Report(context.Background())
	require.Len(t, report, 2)
	assert.True(t, report[0].OK)
	assert.False(t, report[1].OK)
	assert.Equal(t, "connection refused", report[1].Error)
}

func TestRedisAndSQLiteCheckers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := health.NewService(checkers.NewRedisChecker(rdb), checkers.NewSQLiteChecker(db))
	err = svc.Ready(context.Background())
	require.ErrorIs(t, err, checkers.ErrNotMigrated)
	assert.Contains(t, err.Error(), "sqlite:")

	require.NoError(t, sqliterepo.Migrate(context.Background(), db, nil))
	require.NoError(t, svc.Ready(context.Background()))

	mr.Close()
	err = svc.Ready(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis:")
}

// Package app assembles the matching service from configuration: stores, change feed,
// cache and readiness checks.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/artem13815/jobmatch/pkg/config"
	"github.com/artem13815/jobmatch/pkg/feed"
	"github.com/artem13815/jobmatch/pkg/feed/redisfeed"
	"github.com/artem13815/jobmatch/pkg/health"
	"github.com/artem13815/jobmatch/pkg/health/checkers"
	"github.com/artem13815/jobmatch/pkg/matchcache"
	"github.com/artem13815/jobmatch/pkg/matching"
	"github.com/artem13815/jobmatch/pkg/repository/memory"
	pgrepo "github.com/artem13815/jobmatch/pkg/repository/postgres"
	sqliterepo "github.com/artem13815/jobmatch/pkg/repository/sqlite"
	"github.com/artem13815/jobmatch/pkg/resume"
	pgstorage "github.com/artem13815/jobmatch/pkg/storage/postgres"
	redisstorage "github.com/artem13815/jobmatch/pkg/storage/redis"
	sqlitestorage "github.com/artem13815/jobmatch/pkg/storage/sqlite"
	"github.com/artem13815/jobmatch/pkg/vacancy"
)

const appName = "jobmatch"

// Options control what Build does besides wiring.
type Options struct {
	// Migrate applies schema migrations for the postgres driver. SQLite is always migrated.
	Migrate bool
	// WithoutFeed skips the change feed; one-shot commands do not need it.
	WithoutFeed bool
}

// App owns every resource opened by Build. Close releases them.
type App struct {
	Config  config.Config
	Log     *zap.Logger
	Service *matching.Service
	Health  health.ReadinessUseCase

	Jobs     vacancy.Writer
	Profiles resume.Writer

	listener *pgrepo.Listener
	hub      *feed.Hub
	closers  []func()
}

type stores struct {
	jobs          vacancy.Repository
	jobWriter     vacancy.Writer
	profiles      resume.Repository
	profileWriter resume.Writer
	results       matching.ResultStore
}

// Build opens the configured backends and returns a ready service. On error everything
// opened so far is closed.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger, opts Options) (_ *App, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var (
		st        stores
		checks    []health.Checker
		svcOpts   []matching.Option
		feedKind  = cfg.ResolvedFeed()
		publisher feed.Publisher
		source    feed.Source
	)

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		p, err := pgstorage.Connect(ctx, cfg.DatabaseURL, pgstorage.WithAppName(appName))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		if opts.Migrate {
			if err := pgrepo.Migrate(ctx, p, log); err != nil {
				return nil, err
			}
		}
		jobs, profiles := pgrepo.NewJobRepository(p), pgrepo.NewProfileRepository(p)
		st = stores{jobs: jobs, jobWriter: jobs, profiles: profiles, profileWriter: profiles, results: pgrepo.NewResultRepository(p)}
		checks = append(checks, checkers.NewPostgresChecker(p))
		if feedKind == config.FeedPostgres && !opts.WithoutFeed {
			a.listener = pgrepo.NewListener(p, log.Named("listener"))
			source = a.listener
		}
	case config.DriverSQLite:
		db, err := sqlitestorage.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := sqliterepo.Migrate(ctx, db, log); err != nil {
			return nil, err
		}
		jobs, profiles := sqliterepo.NewJobRepository(db), sqliterepo.NewProfileRepository(db)
		st = stores{jobs: jobs, jobWriter: jobs, profiles: profiles, profileWriter: profiles, results: sqliterepo.NewResultRepository(db)}
		checks = append(checks, checkers.NewSQLiteChecker(db))
	case config.DriverMemory:
		jobs, profiles := memory.NewJobRepository(), memory.NewProfileRepository()
		st = stores{jobs: jobs, jobWriter: jobs, profiles: profiles, profileWriter: profiles, results: memory.NewResultRepository()}
		if cfg.FixturesPath != "" {
			fx, err := memory.LoadFixtures(cfg.FixturesPath)
			if err != nil {
				return nil, err
			}
			nJobs, nProfiles, err := memory.Seed(ctx, fx, jobs, profiles)
			if err != nil {
				return nil, err
			}
			log.Info("fixtures loaded", zap.String("path", cfg.FixturesPath), zap.Int("jobs", nJobs), zap.Int("profiles", nProfiles))
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if !opts.WithoutFeed {
		switch feedKind {
		case config.FeedPostgres:
			if a.listener == nil {
				return nil, errors.New("postgres feed needs the postgres driver")
			}
		case config.FeedRedis:
			rdb, err := redisstorage.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			rf := redisfeed.New(redis.UniversalClient(rdb), redisfeed.DefaultPrefix, log.Named("feed"))
			source, publisher = rf, rf
			checks = append(checks, checkers.NewRedisChecker(rdb))
		default:
			a.hub = feed.NewHub()
			source, publisher = a.hub, a.hub
		}
		svcOpts = append(svcOpts, matching.WithFeed(source, publisher))
		log.Info("change feed", zap.String("kind", feedKind))
	}

	svcOpts = append(svcOpts,
		matching.WithLogger(log.Named("matching")),
		matching.WithCache(matchcache.WithTTL(cfg.CacheTTL)),
		matching.WithPageSize(cfg.JobsPageSize),
		matching.WithDefaultLimit(cfg.MatchLimit),
		matching.WithNotifyRate(cfg.NotifyRate),
	)
	a.Service = matching.New(st.profiles, st.jobs, st.results, svcOpts...)
	a.Health = health.NewService(checks...)
	a.Jobs, a.Profiles = st.jobWriter, st.profileWriter
	return a, nil
}

// Run drives the background parts of the change feed until ctx is done. Only the
// Postgres listener needs a loop; the other feeds just wait.
func (a *App) Run(ctx context.Context) error {
	if a.listener != nil {
		return a.listener.Run(ctx)
	}
	<-ctx.Done()
	if a.hub != nil {
		a.hub.Shutdown(nil)
	}
	return nil
}

// Close releases resources in reverse order of opening. It is safe to call twice.
func (a *App) Close() {
	if a.hub != nil {
		a.hub.Shutdown(nil)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

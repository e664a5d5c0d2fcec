package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artem13815/jobmatch/pkg/app"
	"github.com/artem13815/jobmatch/pkg/config"
	"github.com/artem13815/jobmatch/pkg/repository/memory"
	pgrepo "github.com/artem13815/jobmatch/pkg/repository/postgres"
	sqliterepo "github.com/artem13815/jobmatch/pkg/repository/sqlite"
	"github.com/artem13815/jobmatch/pkg/security/jwt"
	pgstorage "github.com/artem13815/jobmatch/pkg/storage/postgres"
	sqlitestorage "github.com/artem13815/jobmatch/pkg/storage/sqlite"
)

var errMemoryDriver = errors.New("the memory driver keeps nothing between runs; use FIXTURES_PATH instead")

func (r *root) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := r.config()
			if err != nil {
				return err
			}
			log, err := r.logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return migrate(cmd.Context(), cfg, log)
		},
	}
}

func migrate(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := pgstorage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return pgrepo.Migrate(ctx, pool, log)
	case config.DriverSQLite:
		db, err := sqlitestorage.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		return sqliterepo.Migrate(ctx, db, log)
	default:
		return errMemoryDriver
	}
}

func (r *root) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load jobs and candidate profiles from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := r.config()
			if err != nil {
				return err
			}
			if cfg.StorageDriver == config.DriverMemory {
				return errMemoryDriver
			}
			log, err := r.logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			fx, err := memory.LoadFixtures(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := app.Build(ctx, cfg, log, app.Options{Migrate: true, WithoutFeed: true})
			if err != nil {
				return err
			}
			defer a.Close()

			nJobs, nProfiles, err := memory.Seed(ctx, fx, a.Jobs, a.Profiles)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d jobs and %d profiles\n", nJobs, nProfiles)
			return nil
		},
	}
}

func (r *root) tokenCommand() *cobra.Command {
	var admin bool
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a development token for the given candidate id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := r.config()
			if err != nil {
				return err
			}
			tok, err := jwt.NewGenerator(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL()).Generate(cmd.Context(), args[0], admin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin flag")
	return cmd
}

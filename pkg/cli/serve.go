package cli

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/artem13815/jobmatch/api/http"
	"github.com/artem13815/jobmatch/api/http/handlers"
	"github.com/artem13815/jobmatch/pkg/app"
	"github.com/artem13815/jobmatch/pkg/security/jwt"
)

const shutdownTimeout = 10 * time.Second

func (r *root) serveCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending postgres migrations on start")
	return cmd
}

func (r *root) serve(ctx context.Context, migrate bool) error {
	cfg, err := r.config()
	if err != nil {
		return err
	}
	log, err := r.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := app.Build(ctx, cfg, log, app.Options{Migrate: migrate})
	if err != nil {
		return err
	}
	defer a.Close()

	server := fiber.New(fiber.Config{
		AppName:               appName + " " + version,
		DisableStartupMessage: true,
		ErrorHandler:          apihttp.ErrorHandler(log),
	})
	server.Use(apihttp.RequestLogger(log.Named("http")))
	apihttp.Register(server,
		jwt.NewAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer),
		handlers.NewHealthHandler(a.Health),
		handlers.NewMatchHandler(a.Service, log.Named("http"), handlers.WithSnapshotLimit(cfg.MatchLimit)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("port", cfg.Port), zap.String("version", version))
		return server.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		return a.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return server.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

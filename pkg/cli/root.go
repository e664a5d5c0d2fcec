// Package cli is the jobmatch command line: the HTTP server plus one-shot tools for
// matching, migrations, seeding and dev tokens.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/artem13815/jobmatch/pkg/config"
	"github.com/artem13815/jobmatch/pkg/logger"
)

const appName = "jobmatch"

// Actual version can be specified in build command.
var version = "unknown"

type root struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCommand builds the command tree. Each call gets its own viper instance so
// tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	r := &root{v: viper.New()}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "jobmatch ranks job postings against candidate profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&r.cfgFile, "config", "", "a config file (yaml, json or toml); environment variables override it")
	cmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	cmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	_ = r.v.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	_ = r.v.BindPFlag("json", cmd.PersistentFlags().Lookup("json"))

	cmd.AddCommand(
		r.serveCommand(),
		r.matchCommand(),
		r.migrateCommand(),
		r.seedCommand(),
		r.tokenCommand(),
		versionCommand(),
	)
	return cmd
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (r *root) config() (config.Config, error) {
	return config.Load(r.v, r.cfgFile)
}

// logger writes to stderr so that command output on stdout stays machine readable.
func (r *root) logger(cfg config.Config) (*zap.Logger, error) {
	zc := logger.Config(cfg.JSON, cfg.Debug)
	zc.OutputPaths = []string{"stderr"}
	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return log, nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", appName, version)
		},
	}
}

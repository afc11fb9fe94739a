package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gradientharvest/internal/app"
	"gradientharvest/internal/config"
	"gradientharvest/internal/logging"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. It's a variable so tests can replace it
// with a mock factory.
var newApp = func(cfg config.Config) (*app.App, error) {
	return app.New(cfg)
}

// newRootCmd creates and configures the root command. Configuration is loaded
// and the service container built before any subcommand runs.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gradientharvest",
		Short: "Harvests the Gradient Academy course catalog into a local database.",
		Long: `gradientharvest walks the Gradient Academy private API, persisting every
course, chapter, subchapter, video, lecturer and book into a relational
store, and can download course videos through ffmpeg afterwards.`,

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			if requiresExistingDB(cmd.Name()) && cfg.DB.Driver == "sqlite" {
				if _, err := os.Stat(cfg.DB.Path); err != nil {
					return fmt.Errorf("no database at %s; run crawl first", cfg.DB.Path)
				}
			}

			appInstance, err := newApp(cfg)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*app.App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newDownloadCmd())

	return cmd
}

// requiresExistingDB reports whether a command only reads the database and
// must not silently create an empty one.
func requiresExistingDB(name string) bool {
	return name == "stats" || name == "download"
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logging.L.Error("command execution failed", zap.Error(err))
		os.Exit(1)
	}
}

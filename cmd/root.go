// Package cmd defines and implements the CLI commands for the atscrawler
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atsdata/ats-crawler/internal/config"
	"github.com/atsdata/ats-crawler/internal/logging"
	"github.com/atsdata/ats-crawler/internal/metrics"
	"github.com/atsdata/ats-crawler/internal/ratelimit"
	"github.com/atsdata/ats-crawler/internal/webclient"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App bundles the services every subcommand needs.
type App struct {
	Cfg    config.Config
	Logger *zap.Logger
	Client *webclient.Client
}

// Close flushes buffered log entries.
func (a *App) Close() {
	_ = a.Logger.Sync()
}

// newApp is the application factory. It is a variable so tests can swap in a
// stub.
var newApp = func(_ context.Context) (*App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{RPS: cfg.HTTP.RPS, Burst: cfg.HTTP.Burst})
	client := webclient.New(webclient.Config{
		UserAgent:      cfg.HTTP.UserAgent,
		ConnectTimeout: cfg.Fetch.ConnectTimeout,
		ReadTimeout:    cfg.Fetch.ReadTimeout,
	}, limiter, logger)

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	return &App{Cfg: cfg, Logger: logger, Client: client}, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atscrawler",
		Short: "Batch crawler for the Antarctic Treaty System document database.",
		Long: `atscrawler collects the public record of the Antarctic Treaty System:
it snapshots the meeting-paper metadata listing, fetches every derivable
document file, scrapes measure pages into JSON artifacts, and reconciles
fetched files back to their metadata.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus ATS_* env)")

	cmd.AddCommand(newPapersCmd())
	cmd.AddCommand(newMeasuresCmd())
	cmd.AddCommand(newReconcileCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*App, error) {
	appInstance, ok := ctx.Value(appKey).(*App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() error {
	return newRootCmd().Execute()
}

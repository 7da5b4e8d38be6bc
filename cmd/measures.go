package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atsdata/ats-crawler/internal/measures"
)

// newMeasuresCmd creates the 'measures' subcommand.
func newMeasuresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "measures",
		Short: "Scrape measure pages into JSON artifacts",
		Long: `Walks the measure id space from 1 up to the configured maximum,
parsing each page into a JSON artifact. Ids already persisted are skipped;
ids without a page are gaps in the range and the walk continues.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			crawler, err := measures.New(measures.Config{
				Endpoint:  app.Cfg.Measures.Endpoint,
				MaxID:     app.Cfg.Measures.MaxID,
				OutputDir: app.Cfg.Measures.OutputDir,
			}, app.Client, app.Logger)
			if err != nil {
				return fmt.Errorf("init measure crawler: %w", err)
			}

			summary, err := crawler.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("scrape measures: %w", err)
			}
			app.Logger.Info("measure crawl finished",
				zap.Int("scraped", summary.Scraped),
				zap.Int("missing", summary.Missing),
				zap.Int("skipped", summary.Skipped),
			)
			return nil
		},
	}
	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atsdata/ats-crawler/internal/fetch"
	"github.com/atsdata/ats-crawler/internal/listing"
)

// newPapersCmd creates the 'papers' subcommand: snapshot the metadata
// listing, then fetch every derivable document file.
func newPapersCmd() *cobra.Command {
	var metadataOnly bool

	cmd := &cobra.Command{
		Use:   "papers",
		Short: "Crawl paper metadata and fetch the document files",
		Long: `Walks the paginated document database listing into a deduplicated
metadata snapshot, then fetches the four language variants of every paper
into the output directory. Files already on disk are skipped, so reruns
only fill gaps.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			crawler, err := listing.New(listing.Config{
				Endpoint:       app.Cfg.Listing.Endpoint,
				StartPage:      app.Cfg.Listing.StartPage,
				MaxSnapshotAge: app.Cfg.Listing.MaxSnapshotAge,
			}, app.Client, app.Logger)
			if err != nil {
				return fmt.Errorf("init listing crawler: %w", err)
			}

			records, err := crawler.Records(cmd.Context(), app.Cfg.Listing.SnapshotDir)
			if err != nil {
				return fmt.Errorf("collect paper metadata: %w", err)
			}
			app.Logger.Info("paper metadata ready", zap.Int("records", len(records)))

			if metadataOnly {
				return nil
			}

			index, err := fetch.NewIndex(app.Cfg.Fetch.OutputDir)
			if err != nil {
				return fmt.Errorf("index output dir: %w", err)
			}

			fetcher, err := fetch.NewFetcher(fetch.Config{
				OutputDir:     app.Cfg.Fetch.OutputDir,
				SkipExisting:  app.Cfg.Fetch.SkipExisting,
				DocumentsBase: app.Cfg.Fetch.DocumentsBase,
			}, app.Client, index, app.Logger)
			if err != nil {
				return fmt.Errorf("init fetcher: %w", err)
			}

			driver := fetch.NewDriver(fetcher, app.Cfg.Fetch.Workers, app.Cfg.Fetch.ShuffleSeed, app.Logger)
			summary := driver.Run(cmd.Context(), records)
			app.Logger.Info("document fetch finished",
				zap.String("run_id", summary.RunID),
				zap.Int("records", summary.Records),
				zap.Int("fetched", summary.Fetched),
				zap.Int("skipped", summary.Skipped),
				zap.Int("missing", summary.Missing),
				zap.Int("failed", summary.Failed),
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&metadataOnly, "metadata-only", false, "write the metadata snapshot without fetching documents")
	return cmd
}

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atsdata/ats-crawler/internal/convert"
	"github.com/atsdata/ats-crawler/internal/listing"
	"github.com/atsdata/ats-crawler/internal/reconcile"
)

// newReconcileCmd creates the 'reconcile' subcommand: attribute fetched files
// back to their metadata records and optionally extract their text.
func newReconcileCmd() *cobra.Command {
	var (
		out     string
		extract bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match fetched document files back to their metadata",
		Long: `Parses every filename in the fetch output directory and resolves it
against the latest metadata snapshot. Each file is attributed to exactly one
record or reported unresolved. With --extract, document text is pulled via
pdftotext/pandoc/unoconv and included in the report.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			snapshots, err := listing.FindSnapshots(app.Cfg.Listing.SnapshotDir)
			if err != nil {
				return fmt.Errorf("find snapshots: %w", err)
			}
			corpus, err := listing.LoadSnapshots(snapshots...)
			if err != nil {
				return fmt.Errorf("load snapshots: %w", err)
			}
			if len(corpus) == 0 {
				return fmt.Errorf("no metadata snapshots under %s; run 'atscrawler papers' first", app.Cfg.Listing.SnapshotDir)
			}

			results, err := reconcile.New(app.Logger).ReconcileDir(app.Cfg.Fetch.OutputDir, corpus)
			if err != nil {
				return fmt.Errorf("reconcile documents: %w", err)
			}

			texts := map[string]string{}
			if extract {
				extractor := convert.New(app.Logger)
				for _, res := range results {
					path := filepath.Join(app.Cfg.Fetch.OutputDir, res.Artifact.Filename)
					text, err := extractor.Text(cmd.Context(), path)
					if err != nil {
						app.Logger.Warn("text extraction failed", zap.String("file", res.Artifact.Filename), zap.Error(err))
						continue
					}
					texts[res.Artifact.Filename] = text
				}
			}

			rows := reconcile.BuildRows(results, texts)
			if err := reconcile.WriteReport(out, rows); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			resolved := 0
			for _, res := range results {
				if res.Resolved() {
					resolved++
				}
			}
			app.Logger.Info("reconciliation finished",
				zap.Int("artifacts", len(results)),
				zap.Int("resolved", resolved),
				zap.Int("unresolved", len(results)-resolved),
				zap.String("report", out),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "ats_documents.json", "path of the JSON report to write")
	cmd.Flags().BoolVar(&extract, "extract", false, "extract document text into the report")
	return cmd
}

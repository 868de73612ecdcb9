package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/ratecheck/internal/pipeline"
	"github.com/rustyeddy/ratecheck/internal/tradefile"
)

func newReconcileCmd(rc *RootConfig) *cobra.Command {
	var (
		tradesPath  string
		reportType  string
		outPath     string
		orgPath     string
		source      string
		snapshotDir string
		failOnFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check recorded DI futures rates against the reference curve",
		Long: `Load a position export, resolve the reference curve for every valuation
date and report trades whose recorded rate differs from the curve.

Example:
  ratecheck reconcile --trades estoque.tsv --report sqlite --out ratecheck.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tradesPath == "" {
				return fmt.Errorf("--trades is required")
			}

			cfg, logger, err := rc.load(cmd)
			if err != nil {
				return err
			}
			if source != "" {
				cfg.MarketData.Source = source
			}
			if snapshotDir != "" {
				cfg.MarketData.SnapshotDir = snapshotDir
			}
			if reportType != "" {
				cfg.Report.Type = reportType
			}
			if outPath != "" {
				if cfg.Report.Type == "sqlite" {
					cfg.Report.DBPath = outPath
				} else {
					cfg.Report.CSVPath = outPath
				}
			}
			if orgPath != "" {
				cfg.Report.OrgPath = orgPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			trades, err := tradefile.Load(tradesPath, tradefile.Options{
				Product:  cfg.Reconcile.Product,
				DUColumn: cfg.Reconcile.DUColumn,
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			src, closeSrc, err := pipeline.NewSource(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeSrc()

			j, err := pipeline.OpenJournal(cfg.Report)
			if err != nil {
				return err
			}
			defer j.Close()

			runner := pipeline.NewRunner(src, cfg, logger)
			runner.Options.TradesFile = tradesPath

			res, err := runner.Run(ctx, trades, j)
			if err != nil {
				return err
			}

			pipeline.PrintResult(cmd.OutOrStdout(), res)

			if failOnFlag && (res.Run.Divergent > 0 || res.Run.Unresolved > 0 || res.Run.SettlementMismatch > 0) {
				return fmt.Errorf("%d divergent, %d unresolved, %d settlement mismatches",
					res.Run.Divergent, res.Run.Unresolved, res.Run.SettlementMismatch)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tradesPath, "trades", "", "Position export (tab or comma separated)")
	cmd.Flags().StringVar(&reportType, "report", "", "Report type: csv|sqlite (overrides config)")
	cmd.Flags().StringVar(&outPath, "out", "", "Report path (CSV file or SQLite database)")
	cmd.Flags().StringVar(&orgPath, "org", "", "Also write an Org-mode summary here")
	cmd.Flags().StringVar(&source, "source", "", "Market data source: b3|dir (overrides config)")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Directory of saved snapshots for the dir source")
	cmd.Flags().BoolVar(&failOnFlag, "fail-on-divergence", false, "Exit non-zero when any trade is flagged")

	return cmd
}

package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/ratecheck/calendar"
	"github.com/rustyeddy/ratecheck/curve"
	"github.com/rustyeddy/ratecheck/internal/pipeline"
	"github.com/rustyeddy/ratecheck/internal/ptbr"
	"github.com/rustyeddy/ratecheck/marketdata"
	"github.com/rustyeddy/ratecheck/snapshot"
)

func newCurveCmd(rc *RootConfig) *cobra.Command {
	var (
		dateStr     string
		outPath     string
		source      string
		snapshotDir string
		save        bool
		sparse      bool
	)

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Fetch the latest reference curve on or before a date and densify it",
		Long: `Fetch the PRE curve published on or before --date (today by default),
fill every running day between the first and last vertex with Flat-Forward 252
and write it as CSV.

Example:
  ratecheck curve --date 2025-07-08 --out pre-2025-07-08.csv --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if err := cfg.Validate(); err != nil {
				return err
			}

			date := civil.DateOf(time.Now())
			if dateStr != "" {
				if date, err = ptbr.ParseDate(dateStr); err != nil {
					return fmt.Errorf("bad --date: %w", err)
				}
			}

			ctx := cmd.Context()

			src, closeSrc, err := pipeline.NewSource(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeSrc()

			cal := calendar.New(calendar.Brazil())
			fetcher := snapshot.New(src, cal,
				snapshot.WithMaxAttempts(cfg.MarketData.MaxAttempts),
				snapshot.WithLogger(logger),
			)

			s, err := fetcher.FetchCurveFor(ctx, date)
			if err != nil {
				return err
			}

			if save && cfg.MarketData.Source != "dir" {
				quotes := make([]marketdata.Quote, 0, s.Len())
				for _, p := range s.Points() {
					quotes = append(quotes, marketdata.Quote{DU: p.DU, Rate: p.Rate.Percent()})
				}
				dir := marketdata.NewDirSource(cfg.MarketData.SnapshotDir)
				if err := dir.WriteSnapshot(s.Date(), quotes); err != nil {
					return fmt.Errorf("save snapshot: %w", err)
				}
			}

			points := s.Points()
			if !sparse {
				d, err := curve.Densify(s)
				if err != nil {
					return err
				}
				points = d.Points()
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return writeCurve(w, cal, s.Date(), points)
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Valuation date (YYYY-MM-DD or DD/MM/YYYY); default today")
	cmd.Flags().StringVar(&outPath, "out", "", "Output CSV (default stdout)")
	cmd.Flags().StringVar(&source, "source", "", "Market data source: b3|dir (overrides config)")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Snapshot directory for the dir source and --save")
	cmd.Flags().BoolVar(&save, "save", false, "Save the fetched snapshot to the snapshot directory")
	cmd.Flags().BoolVar(&sparse, "sparse", false, "Write only the published vertices")

	return cmd
}

// writeCurve writes one row per point, labelled with the maturity it implies
// and the business days to it.
func writeCurve(w io.Writer, cal *calendar.Calendar, date civil.Date, points []curve.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"curve_date", "du", "maturity", "business_days", "rate_pct"}); err != nil {
		return err
	}
	// Points are ascending, so business days accumulate from one row to the next.
	last, bd := date, 0
	for _, p := range points {
		maturity := date.AddDays(p.DU)
		n, err := cal.BusinessDaysBetween(last, maturity)
		if err != nil {
			return err
		}
		last, bd = maturity, bd+n
		if err := cw.Write([]string{
			date.String(),
			strconv.Itoa(p.DU),
			maturity.String(),
			strconv.Itoa(bd),
			strconv.FormatFloat(float64(p.Rate.Percent()), 'f', 6, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

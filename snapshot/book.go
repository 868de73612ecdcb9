package snapshot

import (
	"context"
	"log/slog"
	"sync"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/ratecheck/curve"
)

// BuildBook resolves a dense curve for every distinct date, up to
// parallelism at a time. A date that cannot be resolved is left out of the
// book and its error is reported in the returned map; it never blocks the
// other dates. The only error that stops the whole build is ctx being done.
func (f *Fetcher) BuildBook(ctx context.Context, dates []civil.Date, parallelism int) (*curve.Book, map[civil.Date]error, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	var (
		mu     sync.Mutex
		curves = make(map[civil.Date]*curve.Dense)
		failed = make(map[civil.Date]error)
		seen   = make(map[civil.Date]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, date := range dates {
		if seen[date] {
			continue
		}
		seen[date] = true

		date := date
		g.Go(func() error {
			d, err := f.Dense(gctx, date)
			if gctx.Err() != nil {
				return gctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[date] = err
				f.logger.WarnContext(gctx, "curve unresolved",
					slog.String("date", date.String()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			curves[date] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	f.logger.InfoContext(ctx, "curve book built",
		slog.Int("resolved", len(curves)),
		slog.Int("unresolved", len(failed)),
	)
	return curve.NewBook(curves), failed, nil
}

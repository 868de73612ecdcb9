package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"

	"github.com/rustyeddy/ratecheck/calendar"
	"github.com/rustyeddy/ratecheck/curve"
	"github.com/rustyeddy/ratecheck/marketdata"
)

// DefaultMaxAttempts is how many business days are tried before giving up.
const DefaultMaxAttempts = 10

// ErrUnavailable means no business day within the attempt bound had a
// published curve.
var ErrUnavailable = errors.New("curve unavailable")

// Fetcher finds the most recent published curve on or before a date.
type Fetcher struct {
	src         marketdata.Source
	cal         *calendar.Calendar
	maxAttempts int
	logger      *slog.Logger
}

type Option func(*Fetcher)

// WithMaxAttempts sets the attempt bound. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n >= 1 {
			f.maxAttempts = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

func New(src marketdata.Source, cal *calendar.Calendar, opts ...Option) *Fetcher {
	f := &Fetcher{
		src:         src,
		cal:         cal,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(slog.String("component", "snapshot"))
	return f
}

// FetchCurveFor walks back from date one business day at a time until the
// source returns a non-empty snapshot. The returned curve is stamped with
// the date it was found under. Source errors count as "not published".
func (f *Fetcher) FetchCurveFor(ctx context.Context, date civil.Date) (*curve.Sparse, error) {
	current, err := f.cal.OnOrBefore(date)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f.logger.DebugContext(ctx, "requesting snapshot",
			slog.String("date", current.String()),
			slog.Int("attempt", attempt),
		)

		quotes, err := f.src.Snapshot(ctx, current)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.InfoContext(ctx, "snapshot request failed, stepping back",
				slog.String("date", current.String()),
				slog.String("error", err.Error()),
			)
		case len(quotes) == 0:
			f.logger.InfoContext(ctx, "no snapshot published, stepping back",
				slog.String("date", current.String()),
			)
		default:
			s, err := curve.NewSparse(current, marketdata.ToPoints(quotes))
			if err != nil {
				return nil, fmt.Errorf("snapshot: %w", err)
			}
			if current != date {
				f.logger.InfoContext(ctx, "using earlier snapshot",
					slog.String("requested", date.String()),
					slog.String("found", current.String()),
				)
			}
			return s, nil
		}

		if attempt == f.maxAttempts {
			break
		}
		current, err = f.cal.Previous(current)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}

	return nil, fmt.Errorf("snapshot: %v after %d attempts: %w", date, f.maxAttempts, ErrUnavailable)
}

// Dense fetches the curve for date and densifies it.
func (f *Fetcher) Dense(ctx context.Context, date civil.Date) (*curve.Dense, error) {
	s, err := f.FetchCurveFor(ctx, date)
	if err != nil {
		return nil, err
	}
	d, err := curve.Densify(s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return d, nil
}

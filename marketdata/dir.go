package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/rustyeddy/ratecheck/curve"
)

// DirSource serves snapshots saved as <dir>/<YYYY-MM-DD>.csv with rows
//
//	du,rate_pct
//
// A missing file means nothing was published for that date.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) path(date civil.Date) string {
	return filepath.Join(s.Dir, date.String()+".csv")
}

func (s *DirSource) Snapshot(ctx context.Context, date civil.Date) ([]Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(date))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readQuotes(f)
}

// WriteSnapshot saves quotes for date so that Snapshot can serve them later.
func (s *DirSource) WriteSnapshot(date civil.Date, quotes []Quote) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.path(date))
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"du", "rate_pct"}); err != nil {
		f.Close()
		return err
	}
	for _, q := range quotes {
		row := []string{strconv.Itoa(q.DU), strconv.FormatFloat(float64(q.Rate), 'f', -1, 64)}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readQuotes(r io.Reader) ([]Quote, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out []Quote
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 2 {
			continue
		}

		// Allow a single header row
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), "du") {
				continue
			}
		}

		du, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("bad du %q: %w", row[0], err)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad rate %q: %w", row[1], err)
		}
		out = append(out, Quote{DU: du, Rate: curve.Percent(rate)})
	}
}

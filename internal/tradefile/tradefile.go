// Package tradefile loads back-office position exports into trade records.
package tradefile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rustyeddy/ratecheck/curve"
	"github.com/rustyeddy/ratecheck/internal/ptbr"
	"github.com/rustyeddy/ratecheck/reconcile"
)

const (
	DefaultProduct  = "Futuro de DI"
	DefaultDUColumn = "n_dias_corridos"
)

// Column names as exported by the back office.
const (
	colDate         = "data_referencia"
	colPrevDate     = "data_anterior"
	colTrader       = "id_trader"
	colProduct      = "nome_produto"
	colQuantity     = "quantidade"
	colSide         = "comprado/vendido"
	colInstrument   = "ativo"
	colBusinessDays = "n_dias_uteis"
	colPrevBusiness = "n_dias_uteis_anterior"
	colPrice        = "preco_data_referencia"
	colPrevPrice    = "preco_data_anterior"
	colCarry        = "fator_cdi"
	colResult       = "resultado"
	previousSuffix  = "_anterior"
)

type Options struct {
	// Product keeps only rows whose nome_produto matches. Empty means
	// DefaultProduct.
	Product string
	// DUColumn names the curve-key column for the current date; the previous
	// date uses the same name with "_anterior" appended.
	DUColumn string
}

func (o Options) withDefaults() Options {
	if o.Product == "" {
		o.Product = DefaultProduct
	}
	if o.DUColumn == "" {
		o.DUColumn = DefaultDUColumn
	}
	return o
}

// Load reads a tab or comma separated export from path.
func Load(path string, opts Options) ([]reconcile.TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	trades, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("tradefile: %s: %w", path, err)
	}
	return trades, nil
}

// Read parses an export. The delimiter is taken from the header row: tab if
// it has one, comma otherwise. Rows for other products are skipped.
func Read(r io.Reader, opts Options) ([]reconcile.TradeRecord, error) {
	opts = opts.withDefaults()

	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	line, _, _ := strings.Cut(string(head), "\n")

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if strings.Contains(line, "\t") {
		cr.Comma = '\t'
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	required := []string{
		colDate, colPrevDate, colTrader, colProduct, colQuantity, colSide,
		colInstrument, colBusinessDays, colPrevBusiness, opts.DUColumn,
		opts.DUColumn + previousSuffix, colPrice, colPrevPrice,
	}
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var trades []reconcile.TradeRecord
	lineNo := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lineNo++

		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		if get(colProduct) != opts.Product {
			continue
		}

		t, err := parseRow(get, opts)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func parseRow(get func(string) string, opts Options) (reconcile.TradeRecord, error) {
	var (
		t   reconcile.TradeRecord
		err error
	)

	t.TraderID = get(colTrader)
	t.Instrument = get(colInstrument)

	if t.Side, err = reconcile.ParseSide(get(colSide)); err != nil {
		return t, err
	}
	if t.Quantity, err = ptbr.ParseFloat(get(colQuantity)); err != nil {
		return t, fmt.Errorf("%s: %w", colQuantity, err)
	}
	if s := get(colCarry); s != "" {
		if t.CarryFactor, err = ptbr.ParseFloat(s); err != nil {
			return t, fmt.Errorf("%s: %w", colCarry, err)
		}
	}
	if s := get(colResult); s != "" {
		if t.RecordedResult, err = ptbr.ParseFloat(s); err != nil {
			return t, fmt.Errorf("%s: %w", colResult, err)
		}
	}

	if t.Current, err = parseLeg(get, colDate, opts.DUColumn, colBusinessDays, colPrice); err != nil {
		return t, err
	}
	if t.Previous, err = parseLeg(get, colPrevDate, opts.DUColumn+previousSuffix, colPrevBusiness, colPrevPrice); err != nil {
		return t, err
	}
	return t, nil
}

func parseLeg(get func(string) string, dateCol, duCol, bdCol, priceCol string) (reconcile.Leg, error) {
	var (
		l   reconcile.Leg
		err error
	)
	if l.Date, err = ptbr.ParseDate(get(dateCol)); err != nil {
		return l, fmt.Errorf("%s: %w", dateCol, err)
	}
	if l.DU, err = ptbr.ParseInt(get(duCol)); err != nil {
		return l, fmt.Errorf("%s: %w", duCol, err)
	}
	if l.BusinessDays, err = ptbr.ParseInt(get(bdCol)); err != nil {
		return l, fmt.Errorf("%s: %w", bdCol, err)
	}
	pct, err := ptbr.ParseFloat(get(priceCol))
	if err != nil {
		return l, fmt.Errorf("%s: %w", priceCol, err)
	}
	l.Rate = curve.Percent(pct).Rate()
	return l, nil
}

package reconcile

import (
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ratecheck/curve"
)

var (
	today     = civil.Date{Year: 2025, Month: time.July, Day: 8}
	yesterday = civil.Date{Year: 2025, Month: time.July, Day: 7}
)

func mustDense(t *testing.T, d civil.Date, pts ...curve.Point) *curve.Dense {
	t.Helper()
	s, err := curve.NewSparse(d, pts)
	require.NoError(t, err)
	dense, err := curve.Densify(s)
	require.NoError(t, err)
	return dense
}

// flatBook has a flat 13.31% curve on both days covering DU 1000..1300.
func flatBook(t *testing.T) *curve.Book {
	t.Helper()
	return curve.NewBook(map[civil.Date]*curve.Dense{
		today:     mustDense(t, today, curve.Point{DU: 1000, Rate: 0.1331}, curve.Point{DU: 1300, Rate: 0.1331}),
		yesterday: mustDense(t, yesterday, curve.Point{DU: 1000, Rate: 0.1331}, curve.Point{DU: 1300, Rate: 0.1331}),
	})
}

func di1f29(side Side, qty float64) TradeRecord {
	return TradeRecord{
		TraderID:       "8",
		Instrument:     "DI1F29",
		Side:           side,
		Quantity:       qty,
		CarryFactor:    1.000551,
		RecordedResult: 71.74,
		Current:        Leg{Date: today, DU: 1274, BusinessDays: 873, Rate: 0.1331},
		Previous:       Leg{Date: yesterday, DU: 1275, BusinessDays: 874, Rate: 0.1331},
	}
}

func TestReconcile_SoldMatching(t *testing.T) {
	t.Parallel()

	trade := di1f29(Sold, 20)
	trade.RecordedResult = -71.3337

	got, err := New(DefaultOptions()).Reconcile([]TradeRecord{trade}, flatBook(t))
	require.NoError(t, err)
	require.Len(t, got, 1)

	v := got[0]
	assert.Equal(t, StatusMatching, v.Status)
	assert.False(t, v.Divergent)
	assert.True(t, v.Current.Resolved)
	assert.True(t, v.Previous.Resolved)
	assert.InDelta(t, 0.1331, float64(v.Current.Implied), 1e-12)
	require.True(t, v.HasResult)
	assert.InDelta(t, -71.3337, v.Result, 1e-3)
	assert.False(t, v.SettlementMismatch)
}

func TestReconcile_SettlementMath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		side     Side
		qty      float64
		carry    float64
		expected float64
	}{
		{name: "bought", side: Bought, qty: 20, carry: 1.000551, expected: 71.33372606753255},
		{name: "sold", side: Sold, qty: 20, carry: 1.000551, expected: -71.33372606753255},
		{name: "bought five", side: Bought, qty: 5, carry: 1.000551, expected: 17.83343151688314},
		// No carry: the previous price grows toward par by one day only.
		{name: "carry absent", side: Bought, qty: 20, carry: 0, expected: 20 * (64831.185451691126 - 64863.34074857163)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trade := di1f29(tt.side, tt.qty)
			trade.CarryFactor = tt.carry

			got, err := New(DefaultOptions()).Reconcile([]TradeRecord{trade}, flatBook(t))
			require.NoError(t, err)
			require.True(t, got[0].HasResult)
			assert.InDelta(t, tt.expected, got[0].Result, 1e-6)
		})
	}
}

func TestReconcile_SettlementMismatch(t *testing.T) {
	t.Parallel()

	// The recorded 71,74 does not match the recomputed 71,334.
	got, err := New(DefaultOptions()).Reconcile([]TradeRecord{di1f29(Bought, 20)}, flatBook(t))
	require.NoError(t, err)
	assert.True(t, got[0].SettlementMismatch)
	assert.Equal(t, StatusMatching, got[0].Status)
	assert.Equal(t, 1, Summarize(got).SettlementMismatch)
}

func TestReconcile_Divergent(t *testing.T) {
	t.Parallel()

	trade := di1f29(Bought, 20)
	trade.Current.Rate = 0.1335

	got, err := New(DefaultOptions()).Reconcile([]TradeRecord{trade}, flatBook(t))
	require.NoError(t, err)

	v := got[0]
	assert.Equal(t, StatusDivergent, v.Status)
	assert.True(t, v.Divergent)
	assert.Equal(t, curve.Rate(0.1335), v.Current.Recorded)
	assert.InDelta(t, 0.1331, float64(v.Current.Implied), 1e-12)
	assert.True(t, v.HasResult)
}

func TestReconcile_Tolerance(t *testing.T) {
	t.Parallel()

	trade := di1f29(Bought, 20)
	trade.Current.Rate = 0.13315

	opts := DefaultOptions()
	opts.RateTolerance = 1e-4

	got, err := New(opts).Reconcile([]TradeRecord{trade}, flatBook(t))
	require.NoError(t, err)
	assert.Equal(t, StatusMatching, got[0].Status)
}

func TestReconcile_MissingDU(t *testing.T) {
	t.Parallel()

	trade := di1f29(Bought, 20)
	trade.Current.DU = 2004

	got, err := New(DefaultOptions()).Reconcile([]TradeRecord{trade}, flatBook(t))
	require.NoError(t, err)
	require.Len(t, got, 1)

	v := got[0]
	assert.Equal(t, StatusUnresolved, v.Status)
	assert.False(t, v.Divergent)
	assert.False(t, v.HasResult)
	assert.Zero(t, v.Result)
	assert.False(t, v.SettlementMismatch)

	assert.False(t, v.Current.Resolved)
	assert.ErrorIs(t, v.Current.Err, ErrUnresolvedTradeSide)
	assert.Contains(t, v.Current.Err.Error(), "du 2004 outside")
	assert.Zero(t, v.Current.Implied)
	assert.Equal(t, today, v.Current.CurveDate)

	assert.True(t, v.Previous.Resolved)
	assert.NoError(t, v.Previous.Err)
	assert.InDelta(t, 0.1331, float64(v.Previous.Implied), 1e-12)
	assert.Equal(t, curve.Rate(0.1331), v.Previous.Recorded)
}

func TestReconcile_OneSideOutsideCurve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*TradeRecord)
		current bool
	}{
		{name: "current below curve", mutate: func(tr *TradeRecord) { tr.Current.DU = 999 }, current: false},
		{name: "current above curve", mutate: func(tr *TradeRecord) { tr.Current.DU = 1301 }, current: false},
		{name: "previous above curve", mutate: func(tr *TradeRecord) { tr.Previous.DU = 1301 }, current: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trade := di1f29(Bought, 20)
			tt.mutate(&trade)

			got, err := New(DefaultOptions()).Reconcile([]TradeRecord{trade}, flatBook(t))
			require.NoError(t, err)
			v := got[0]

			resolved, missing := v.Previous, v.Current
			if tt.current {
				resolved, missing = v.Current, v.Previous
			}
			assert.Equal(t, StatusUnresolved, v.Status)
			assert.False(t, v.HasResult)
			assert.True(t, resolved.Resolved)
			assert.NoError(t, resolved.Err)
			assert.InDelta(t, 0.1331, float64(resolved.Implied), 1e-12)
			assert.False(t, missing.Resolved)
			assert.ErrorIs(t, missing.Err, ErrUnresolvedTradeSide)
		})
	}
}

func TestReconcile_ResultOutOfRange(t *testing.T) {
	t.Parallel()

	// At a rate near -100% over a thousand years the unit price overflows.
	book := curve.NewBook(map[civil.Date]*curve.Dense{
		today:     mustDense(t, today, curve.Point{DU: 1000, Rate: -0.99}, curve.Point{DU: 1300, Rate: -0.99}),
		yesterday: mustDense(t, yesterday, curve.Point{DU: 1000, Rate: -0.99}, curve.Point{DU: 1300, Rate: -0.99}),
	})
	trade := di1f29(Bought, 20)
	trade.Current.Rate, trade.Previous.Rate = -0.99, -0.99
	trade.Current.BusinessDays, trade.Previous.BusinessDays = 252_000, 252_001

	var got []Verdict
	var err error
	require.NotPanics(t, func() {
		got, err = New(DefaultOptions()).Reconcile([]TradeRecord{trade}, book)
	})
	require.NoError(t, err)

	v := got[0]
	assert.Equal(t, StatusMatching, v.Status)
	assert.False(t, v.HasResult)
	assert.Zero(t, v.Result)
	assert.True(t, v.SettlementMismatch)
}

func TestReconcile_MissingCurve(t *testing.T) {
	t.Parallel()

	book := curve.NewBook(map[civil.Date]*curve.Dense{
		today: mustDense(t, today, curve.Point{DU: 1000, Rate: 0.1331}, curve.Point{DU: 1300, Rate: 0.1331}),
	})

	got, err := New(DefaultOptions()).Reconcile([]TradeRecord{di1f29(Sold, 5)}, book)
	require.NoError(t, err)
	assert.Equal(t, StatusUnresolved, got[0].Status)
	assert.True(t, got[0].Current.Resolved)
	assert.ErrorIs(t, got[0].Previous.Err, ErrUnresolvedTradeSide)

	// A nil book leaves everything unresolved.
	got, err = New(DefaultOptions()).Reconcile([]TradeRecord{di1f29(Sold, 5)}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusUnresolved, got[0].Status)
}

func TestReconcile_StaleCurve(t *testing.T) {
	t.Parallel()

	// The curve for today was only found under yesterday's date.
	stale := mustDense(t, yesterday, curve.Point{DU: 1000, Rate: 0.1331}, curve.Point{DU: 1300, Rate: 0.1331})
	book := curve.NewBook(map[civil.Date]*curve.Dense{today: stale, yesterday: stale})

	got, err := New(DefaultOptions()).Reconcile([]TradeRecord{di1f29(Bought, 20)}, book)
	require.NoError(t, err)
	v := got[0]
	assert.Equal(t, StatusUnresolved, v.Status)
	assert.Equal(t, yesterday, v.Current.CurveDate)
	assert.ErrorIs(t, v.Current.Err, ErrUnresolvedTradeSide)

	opts := DefaultOptions()
	opts.RequireExactDate = false
	got, err = New(opts).Reconcile([]TradeRecord{di1f29(Bought, 20)}, book)
	require.NoError(t, err)
	assert.Equal(t, StatusMatching, got[0].Status)
	assert.Equal(t, yesterday, got[0].Current.CurveDate)
}

func TestReconcile_InvalidTrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*TradeRecord)
	}{
		{name: "missing date", mutate: func(tr *TradeRecord) { tr.Current.Date = civil.Date{} }},
		{name: "invalid date", mutate: func(tr *TradeRecord) { tr.Previous.Date = civil.Date{Year: 2025, Month: time.February, Day: 30} }},
		{name: "negative du", mutate: func(tr *TradeRecord) { tr.Current.DU = -1 }},
		{name: "negative business days", mutate: func(tr *TradeRecord) { tr.Previous.BusinessDays = -3 }},
		{name: "unknown side", mutate: func(tr *TradeRecord) { tr.Side = 0 }},
		{name: "zero quantity", mutate: func(tr *TradeRecord) { tr.Quantity = 0 }},
		{name: "negative carry", mutate: func(tr *TradeRecord) { tr.CarryFactor = -1 }},
		{name: "nan quantity", mutate: func(tr *TradeRecord) { tr.Quantity = math.NaN() }},
		{name: "infinite quantity", mutate: func(tr *TradeRecord) { tr.Quantity = math.Inf(1) }},
		{name: "nan carry", mutate: func(tr *TradeRecord) { tr.CarryFactor = math.NaN() }},
		{name: "infinite carry", mutate: func(tr *TradeRecord) { tr.CarryFactor = math.Inf(1) }},
		{name: "nan recorded result", mutate: func(tr *TradeRecord) { tr.RecordedResult = math.NaN() }},
		{name: "infinite recorded result", mutate: func(tr *TradeRecord) { tr.RecordedResult = math.Inf(-1) }},
		{name: "nan current rate", mutate: func(tr *TradeRecord) { tr.Current.Rate = curve.Rate(math.NaN()) }},
		{name: "infinite previous rate", mutate: func(tr *TradeRecord) { tr.Previous.Rate = curve.Rate(math.Inf(1)) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bad := di1f29(Bought, 20)
			tt.mutate(&bad)

			var (
				got []Verdict
				err error
			)
			require.NotPanics(t, func() {
				got, err = New(DefaultOptions()).Reconcile([]TradeRecord{di1f29(Sold, 20), bad}, flatBook(t))
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTrade))
			assert.Contains(t, err.Error(), "trade 1")
			assert.Nil(t, got)
		})
	}
}

func TestReconcile_PreservesOrder(t *testing.T) {
	t.Parallel()

	trades := []TradeRecord{di1f29(Bought, 5), di1f29(Sold, 20), di1f29(Bought, 20)}
	trades[0].TraderID = "9"
	trades[1].TraderID = "4"
	trades[1].Current.DU = 5000

	got, err := New(DefaultOptions()).Reconcile(trades, flatBook(t))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "9", got[0].TraderID)
	assert.Equal(t, "4", got[1].TraderID)
	assert.Equal(t, "8", got[2].TraderID)
	assert.Equal(t, StatusUnresolved, got[1].Status)

	// Verdicts do not alias the input.
	trades[0].TraderID = "changed"
	assert.Equal(t, "9", got[0].TraderID)

	assert.Equal(t, Summary{Total: 3, Matching: 2, Unresolved: 1, SettlementMismatch: 2}, Summarize(got))
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	r := New(Options{SettlementPlaces: -1})
	opts := r.Options()
	assert.Equal(t, DefaultNotional, opts.Notional)
	assert.Equal(t, DefaultRateTolerance, opts.RateTolerance)
	assert.Equal(t, int32(DefaultSettlementPlaces), opts.SettlementPlaces)
	assert.False(t, opts.RequireExactDate)
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Side{"C": Bought, "V": Sold, "buy": Bought, "sold": Sold} {
		got, err := ParseSide(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSide("X")
	assert.Error(t, err)
	assert.Equal(t, "sold", Sold.String())
}

func TestDistinctDates(t *testing.T) {
	t.Parallel()

	a := di1f29(Bought, 1)
	b := di1f29(Sold, 1)
	b.Current.Date = civil.Date{Year: 2025, Month: time.July, Day: 9}
	b.Previous.Date = today

	assert.Equal(t, []civil.Date{yesterday, today, b.Current.Date}, DistinctDates([]TradeRecord{a, b}))
	assert.Empty(t, DistinctDates(nil))
}

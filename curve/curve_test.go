package curve

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = civil.Date{Year: 2025, Month: time.July, Day: 8}

func mustSparse(t *testing.T, pts ...Point) *Sparse {
	t.Helper()
	s, err := NewSparse(asOf, pts)
	require.NoError(t, err)
	return s
}

func TestPercentRateConversion(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.1331, float64(Percent(13.31).Rate()), 1e-15)
	assert.InDelta(t, 13.31, float64(Rate(0.1331).Percent()), 1e-12)
	assert.True(t, Rate(0).Valid())
	assert.False(t, Rate(-1).Valid())
	assert.False(t, Rate(math.NaN()).Valid())
}

func TestNewSparseSortsAndValidates(t *testing.T) {
	t.Parallel()

	s := mustSparse(t, Point{60, 0.12}, Point{30, 0.10}, Point{1, 0.149})
	assert.Equal(t, asOf, s.Date())
	assert.Equal(t, []Point{{1, 0.149}, {30, 0.10}, {60, 0.12}}, s.Points())

	tests := []struct {
		name string
		pts  []Point
	}{
		{"empty", nil},
		{"duplicate du", []Point{{30, 0.1}, {30, 0.11}}},
		{"negative du", []Point{{-1, 0.1}, {30, 0.11}}},
		{"rate at -1", []Point{{30, -1}}},
		{"nan rate", []Point{{30, Rate(math.NaN())}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewSparse(asOf, tt.pts)
			assert.ErrorIs(t, err, ErrInvalidCurve)
		})
	}
}

func TestNewSparseDoesNotRetainInput(t *testing.T) {
	t.Parallel()

	in := []Point{{30, 0.10}, {60, 0.12}}
	s := mustSparse(t, in...)
	in[0].Rate = 0.5

	pts := s.Points()
	assert.Equal(t, Rate(0.10), pts[0].Rate)
}

func TestDensifyScenario(t *testing.T) {
	t.Parallel()

	d, err := Densify(mustSparse(t, Point{30, 0.10}, Point{60, 0.12}))
	require.NoError(t, err)

	assert.Equal(t, 30, d.Min())
	assert.Equal(t, 60, d.Max())
	assert.Equal(t, 31, d.Len())

	factor30 := math.Pow(1.10, 30.0/252)
	factor60 := math.Pow(1.12, 60.0/252)
	ratio := factor60 / factor30
	combined := factor30 * math.Pow(ratio, 0.5)
	want := math.Pow(combined, 252.0/45) - 1

	got, ok := d.At(45)
	require.True(t, ok)
	assert.InDelta(t, want, float64(got), 1e-12)
	assert.InDelta(t, 0.11329, float64(got), 1e-5)
}

func TestDensifyKeyRangeAndVertices(t *testing.T) {
	t.Parallel()

	pts := []Point{{1, 0.1490}, {21, 0.1495}, {42, 0.1502}, {126, 0.1492}, {252, 0.1470}, {504, 0.1405}}
	s := mustSparse(t, pts...)

	d, err := Densify(s)
	require.NoError(t, err)

	assert.Equal(t, 1, d.Min())
	assert.Equal(t, 504, d.Max())
	assert.Len(t, d.Points(), 504)

	_, ok := d.At(0)
	assert.False(t, ok, "no extrapolation below the first vertex")
	_, ok = d.At(505)
	assert.False(t, ok, "no extrapolation above the last vertex")

	for _, p := range pts {
		got, ok := d.At(p.DU)
		require.True(t, ok)
		assert.Equal(t, p.Rate, got, "vertex %d must be unchanged", p.DU)
	}

	for i, p := range d.Points() {
		assert.Equal(t, 1+i, p.DU)
	}
}

func TestDensifyFactorsAreMonotoneBetweenVertices(t *testing.T) {
	t.Parallel()

	pts := []Point{{10, 0.14}, {40, 0.10}, {90, 0.16}}
	d, err := Densify(mustSparse(t, pts...))
	require.NoError(t, err)

	for i := 1; i < len(pts); i++ {
		prev, next := pts[i-1], pts[i]
		up := Factor(next.DU, next.Rate) > Factor(prev.DU, prev.Rate)

		last := Factor(prev.DU, prev.Rate)
		for du := prev.DU + 1; du <= next.DU; du++ {
			r, ok := d.At(du)
			require.True(t, ok)
			f := Factor(du, r)
			if up {
				assert.GreaterOrEqual(t, f, last, "du %d", du)
			} else {
				assert.LessOrEqual(t, f, last, "du %d", du)
			}
			last = f
		}
	}
}

func TestDensifyIsIdempotentOnKnownPoints(t *testing.T) {
	t.Parallel()

	known := []Point{{5, 0.1321}, {17, 0.1333}, {63, 0.1350}, {64, 0.1351}, {200, 0.1300}}
	first, err := Densify(mustSparse(t, known...))
	require.NoError(t, err)

	again := make([]Point, 0, len(known))
	for _, p := range known {
		r, ok := first.At(p.DU)
		require.True(t, ok)
		again = append(again, Point{DU: p.DU, Rate: r})
	}
	second, err := Densify(mustSparse(t, again...))
	require.NoError(t, err)

	assert.Equal(t, first.Points(), second.Points())
}

func TestDensifySinglePoint(t *testing.T) {
	t.Parallel()

	d, err := Densify(mustSparse(t, Point{126, 0.1492}))
	require.NoError(t, err)
	assert.Equal(t, []Point{{126, 0.1492}}, d.Points())
	assert.Equal(t, asOf, d.Date())
}

func TestDensifyAdjacentVerticesUntouched(t *testing.T) {
	t.Parallel()

	d, err := Densify(mustSparse(t, Point{0, 0.15}, Point{1, 0.149}, Point{2, 0.1488}))
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 0.15}, {1, 0.149}, {2, 0.1488}}, d.Points())
}

func TestDensifyFromZeroVertex(t *testing.T) {
	t.Parallel()

	d, err := Densify(mustSparse(t, Point{0, 0.15}, Point{5, 0.14}))
	require.NoError(t, err)

	r, ok := d.At(0)
	require.True(t, ok)
	assert.Equal(t, Rate(0.15), r)

	// Flat forward from a unit factor at du 0 gives the same rate all the way.
	for du := 1; du < 5; du++ {
		r, ok := d.At(du)
		require.True(t, ok)
		assert.InDelta(t, 0.14, float64(r), 1e-12)
	}
}

func TestDensifyRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Densify(nil)
	assert.ErrorIs(t, err, ErrInvalidCurve)

	_, err = Densify(&Sparse{})
	assert.ErrorIs(t, err, ErrInvalidCurve)

	_, err = Densify(&Sparse{date: asOf, points: []Point{{30, 0.1}, {20, 0.1}}})
	assert.ErrorIs(t, err, ErrInvalidCurve)
}

func TestFlatForward(t *testing.T) {
	t.Parallel()

	r, err := FlatForward(Point{30, 0.10}, Point{60, 0.12}, 45)
	require.NoError(t, err)
	assert.InDelta(t, 0.11329, float64(r), 1e-5)

	_, err = FlatForward(Point{30, 0.10}, Point{60, 0.12}, 30)
	assert.ErrorIs(t, err, ErrInvalidCurve)

	_, err = FlatForward(Point{0, 0.10}, Point{60, 0.12}, 0)
	assert.ErrorIs(t, err, ErrInvalidCurve)

	// A factor that overflows float64 must not leak an infinite rate.
	_, err = FlatForward(Point{1, 0.10}, Point{252_000, 1e300}, 2)
	assert.ErrorIs(t, err, ErrInvalidCurve)
}

func TestBook(t *testing.T) {
	t.Parallel()

	d1, err := Densify(mustSparse(t, Point{30, 0.10}))
	require.NoError(t, err)

	later := asOf.AddDays(1)
	src := map[civil.Date]*Dense{later: d1, asOf: d1, asOf.AddDays(2): nil}
	b := NewBook(src)
	delete(src, asOf)

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []civil.Date{asOf, later}, b.Dates())

	got, ok := b.Get(asOf)
	require.True(t, ok)
	assert.Same(t, d1, got)

	_, ok = b.Get(asOf.AddDays(2))
	assert.False(t, ok)

	var nilBook *Book
	_, ok = nilBook.Get(asOf)
	assert.False(t, ok)
	assert.Equal(t, 0, nilBook.Len())
}

package curve

import (
	"sort"

	"cloud.google.com/go/civil"
)

// Book maps a requested calendar date to the dense curve resolved for it.
// It is read-only once built.
type Book struct {
	curves map[civil.Date]*Dense
}

// NewBook copies curves into a new Book. Nil entries are dropped.
func NewBook(curves map[civil.Date]*Dense) *Book {
	m := make(map[civil.Date]*Dense, len(curves))
	for d, c := range curves {
		if c != nil {
			m[d] = c
		}
	}
	return &Book{curves: m}
}

// Get returns the curve resolved for date. A nil Book holds nothing.
func (b *Book) Get(date civil.Date) (*Dense, bool) {
	if b == nil {
		return nil, false
	}
	c, ok := b.curves[date]
	return c, ok
}

// Len is the number of dates with a curve.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.curves)
}

// Dates returns the requested dates in ascending order.
func (b *Book) Dates() []civil.Date {
	if b == nil {
		return nil
	}
	out := make([]civil.Date, 0, len(b.curves))
	for d := range b.curves {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Package id issues run identifiers.
package id

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID string. IDs sort by creation time, so runs list in the
// order they happened.
func New() string {
	return ulid.Make().String()
}

// Time returns the creation time encoded in a ULID produced by New.
func Time(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}

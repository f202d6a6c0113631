// Package clock supplies the current time in the application's canonical
// timezone. Components take a Clock instead of calling time.Now so date
// windows and cooldown dates can be pinned in tests.
package clock

import (
	"fmt"
	"time"
)

// DefaultTimezone is the zone the call center reports in.
const DefaultTimezone = "Asia/Manila"

// Clock returns the current instant in its configured location.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type system struct {
	loc *time.Location
}

// System returns a wall clock reporting in loc.
func System(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return system{loc: loc}
}

func (s system) Now() time.Time           { return time.Now().In(s.loc) }
func (s system) Location() *time.Location { return s.loc }

// Fixed always reports t, converted to t's location.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time           { return f.T }
func (f Fixed) Location() *time.Location { return f.T.Location() }

// LoadLocation resolves a zone name, falling back to DefaultTimezone when
// name is empty.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

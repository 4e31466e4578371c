package timesync

import "time"

// Converter maps monotonic trace timestamps to wall-clock time.
type Converter struct {
	base   time.Time
	origin int64
}

// NewConverter creates a converter that maps the trace timestamp origin
// to the given wall-clock base.
func NewConverter(base time.Time, origin int64) *Converter {
	return &Converter{base: base, origin: origin}
}

// ToWallClock converts a monotonic trace timestamp (nanoseconds) to
// wall-clock time.
func (c *Converter) ToWallClock(nanos int64) time.Time {
	return c.base.Add(time.Duration(nanos - c.origin))
}

// Base returns the wall-clock instant the trace origin is pinned to.
func (c *Converter) Base() time.Time {
	return c.base
}

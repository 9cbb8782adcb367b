package reconcile

import "time"

// Clock supplies the timestamps stamped on written rows.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a reference location.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the configured location, or UTC.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

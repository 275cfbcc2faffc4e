package core

import (
	"time"
)

// Timestamp is a UTC instant with microsecond precision, the resolution
// Postgres stores
type Timestamp time.Time

// NewTimestamp normalizes t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Truncate(time.Microsecond))
}

// Now returns the current timestamp
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) IsZero() bool { return time.Time(t).IsZero() }

// Before reports whether t is earlier than u
func (t Timestamp) Before(u Timestamp) bool { return t.Time().Before(u.Time()) }

// String formats the timestamp as RFC3339
func (t Timestamp) String() string {
	return t.Time().Format(time.RFC3339)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return t.Time().MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = NewTimestamp(tm)
	return nil
}

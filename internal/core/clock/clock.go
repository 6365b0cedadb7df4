// Package clock abstracts time for the scheduling core.
// Everything that classifies templates as due receives a Clock instead of
// reading the system time directly.
package clock

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock (UTC).
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant. For tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// NewFixed creates a Fixed clock at the given instant.
func NewFixed(t time.Time) Fixed { return Fixed{T: t} }

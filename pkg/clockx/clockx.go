// Package clockx abstracts the wall clock so token lifetimes can be pinned
// in tests. Core logic never calls time.Now directly.
package clockx

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always reports the same instant. Advance it explicitly in tests.
type Fixed struct {
	t time.Time
}

// NewFixed returns a Fixed clock pinned at t (UTC).
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t.UTC()}
}

func (f *Fixed) Now() time.Time { return f.t }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.t = f.t.Add(d) }

// Set pins the fixed clock at t.
func (f *Fixed) Set(t time.Time) { f.t = t.UTC() }

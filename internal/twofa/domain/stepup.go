package domain

import "time"

// StepUpSession is the server-side context a step-up verification runs in.
// Submitting codes without one is a hard failure, not a retry.
type StepUpSession struct {
	ID        string // ULID
	SubjectID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has lapsed at the given instant.
func (s StepUpSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

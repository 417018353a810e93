package flow

// InitialAttempts is the hard ceiling of failed verification attempts per
// challenge.
const InitialAttempts = 3

// Attempts tracks the remaining verification attempts for a single
// challenge. It is a pure value type so the lockout policy can be tested
// without any transport.
type Attempts struct {
	remaining int
}

// NewAttempts starts a fresh counter at the ceiling.
func NewAttempts() Attempts {
	return Attempts{remaining: InitialAttempts}
}

// RecordFailure burns one attempt, floor zero.
func (a Attempts) RecordFailure() Attempts {
	if a.remaining > 0 {
		a.remaining--
	}
	return a
}

// LockedOut reports whether the ceiling has been exhausted.
func (a Attempts) LockedOut() bool {
	return a.remaining == 0
}

// Remaining returns the attempts left before lockout.
func (a Attempts) Remaining() int {
	return a.remaining
}

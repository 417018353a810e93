package service

import (
	"errors"
	"sync"

	"github.com/huddlehq/twofa/internal/twofa/flow"
	"github.com/huddlehq/twofa/pkg/idx"
)

var ErrChallengeNotFound = errors.New("service: challenge not found")

// Challenge is a registered verification challenge plus the bookkeeping the
// HTTP layer needs to route submissions.
type Challenge struct {
	ID              string
	SubjectID       string
	StepUpSessionID string
	Flow            *flow.Verification
}

// ChallengeRegistry tracks the in-memory flow instances: at most one
// enrollment per subject and any number of verification challenges keyed by
// id. Flow instances are process-local, so a multi-replica deployment needs
// sticky routing for the duration of a flow.
type ChallengeRegistry struct {
	mu          sync.Mutex
	enrollments map[string]*flow.Enrollment
	challenges  map[string]*Challenge
}

func NewChallengeRegistry() *ChallengeRegistry {
	return &ChallengeRegistry{
		enrollments: make(map[string]*flow.Enrollment),
		challenges:  make(map[string]*Challenge),
	}
}

// PutEnrollment registers an enrollment for the subject. Any prior
// enrollment for the same subject is cancelled first; re-entry always starts
// from scratch.
func (r *ChallengeRegistry) PutEnrollment(subject string, e *flow.Enrollment) {
	r.mu.Lock()
	prev := r.enrollments[subject]
	r.enrollments[subject] = e
	r.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
}

// GetEnrollment returns the subject's active enrollment, if any.
func (r *ChallengeRegistry) GetEnrollment(subject string) (*flow.Enrollment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[subject]
	return e, ok
}

// RemoveEnrollment drops the subject's enrollment from the registry.
func (r *ChallengeRegistry) RemoveEnrollment(subject string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.enrollments, subject)
}

// NewChallenge registers a verification challenge under a fresh id.
func (r *ChallengeRegistry) NewChallenge(subjectID, stepUpSessionID string, v *flow.Verification) *Challenge {
	c := &Challenge{
		ID:              idx.New().String(),
		SubjectID:       subjectID,
		StepUpSessionID: stepUpSessionID,
		Flow:            v,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[c.ID] = c
	return c
}

// GetChallenge returns a challenge by id.
func (r *ChallengeRegistry) GetChallenge(id string) (*Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	return c, nil
}

// RemoveChallenge drops a challenge from the registry.
func (r *ChallengeRegistry) RemoveChallenge(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.challenges, id)
}

// SweepClosed removes resolved challenges. Fatal resolutions (lockout,
// expiry) linger until a sweep so late submissions still get the precise
// error back instead of a not-found.
func (r *ChallengeRegistry) SweepClosed() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, c := range r.challenges {
		if c.Flow.Closed() {
			delete(r.challenges, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of registered challenges.
func (r *ChallengeRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.challenges)
}

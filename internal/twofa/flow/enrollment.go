package flow

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"
)

// Stage is the enrollment progress marker. Stages only advance forward; an
// initialization failure terminates the flow instead of rewinding it.
type Stage int

const (
	StageInitializing Stage = iota
	StageAwaitingVerification
	StageAwaitingBackupAck
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageInitializing:
		return "initializing"
	case StageAwaitingVerification:
		return "awaiting_verification"
	case StageAwaitingBackupAck:
		return "awaiting_backup_ack"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

var totpCodeRe = regexp.MustCompile(`^[0-9]{6}$`)

// Enrollment drives a subject from "no 2FA" to "2FA enabled with
// acknowledged backup codes". One instance per subject at a time; restarting
// always begins from scratch, abandoned sessions are never resumed.
type Enrollment struct {
	p Provisioner

	// settleDelay postpones the completion signal so a confirmation can be
	// perceived before the flow is torn down.
	settleDelay time.Duration

	// onDone fires exactly once when the flow reaches StageComplete.
	onDone func()

	mu          sync.Mutex
	subject     string
	stage       Stage
	material    EnrollmentMaterial
	backupCodes []string
	inFlight    bool
	closed      bool
	doneOnce    sync.Once
}

// NewEnrollment creates an enrollment flow for the subject. onDone may be
// nil.
func NewEnrollment(p Provisioner, subject string, settleDelay time.Duration, onDone func()) *Enrollment {
	return &Enrollment{
		p:           p,
		settleDelay: settleDelay,
		onDone:      onDone,
		subject:     subject,
		stage:       StageInitializing,
	}
}

// Start asks provisioning for the secret and provisioning URI. On failure
// the flow terminates with ErrSetupFailed and must be recreated.
func (e *Enrollment) Start(ctx context.Context) (EnrollmentMaterial, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return EnrollmentMaterial{}, ErrFlowClosed
	}
	if e.stage != StageInitializing {
		e.mu.Unlock()
		return EnrollmentMaterial{}, fmt.Errorf("%w: enrollment already started", ErrFlowClosed)
	}
	e.inFlight = true
	e.mu.Unlock()

	material, err := e.p.BeginEnrollment(ctx, e.subject)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false

	if e.closed {
		return EnrollmentMaterial{}, ErrFlowClosed
	}
	if err != nil {
		e.closed = true
		return EnrollmentMaterial{}, fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}

	e.material = material
	e.stage = StageAwaitingVerification
	return material, nil
}

// SubmitCode checks the first authenticator code. Malformed codes are
// rejected locally and never reach the provisioner. A wrong code keeps the
// flow open; enrollment has no attempt ceiling. On success the credential is
// enabled and a fresh backup code set is issued, exactly once.
func (e *Enrollment) SubmitCode(ctx context.Context, code string) ([]string, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrFlowClosed
	}
	if e.stage != StageAwaitingVerification {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: not awaiting verification", ErrFlowClosed)
	}
	if e.inFlight {
		e.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if !totpCodeRe.MatchString(code) {
		e.mu.Unlock()
		return nil, ErrCodeFormat
	}
	e.inFlight = true
	e.mu.Unlock()

	ok, err := e.p.CompleteEnrollment(ctx, e.subject, code)

	e.mu.Lock()
	e.inFlight = false
	if e.closed {
		e.mu.Unlock()
		return nil, ErrFlowClosed
	}
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("complete enrollment: %w", err)
	}
	if !ok {
		e.mu.Unlock()
		return nil, ErrInvalidCode
	}
	e.inFlight = true
	e.mu.Unlock()

	codes, err := e.p.IssueBackupCodes(ctx, e.subject)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	if e.closed {
		return nil, ErrFlowClosed
	}
	if err != nil {
		// The credential is enabled but the codes never reached the caller.
		// Surface the failure; a regeneration can mint a set later.
		return nil, fmt.Errorf("issue backup codes: %w", err)
	}

	e.backupCodes = codes
	e.stage = StageAwaitingBackupAck
	return codes, nil
}

// Acknowledge records that the subject has seen or exported their backup
// codes and advances to StageComplete. The completion signal fires once,
// after the settle delay.
func (e *Enrollment) Acknowledge() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrFlowClosed
	}
	if e.stage != StageAwaitingBackupAck {
		return fmt.Errorf("%w: not awaiting acknowledgment", ErrFlowClosed)
	}

	e.stage = StageComplete
	e.backupCodes = nil

	e.doneOnce.Do(func() {
		if e.onDone == nil {
			return
		}
		if e.settleDelay <= 0 {
			e.onDone()
			return
		}
		time.AfterFunc(e.settleDelay, e.onDone)
	})
	return nil
}

// Cancel discards the flow. A result from an in-flight provisioning call is
// ignored once the flow is cancelled.
func (e *Enrollment) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.backupCodes = nil
}

// Stage returns the current enrollment stage.
func (e *Enrollment) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

// Subject returns the enrolling subject's identifier.
func (e *Enrollment) Subject() string {
	return e.subject
}

// BackupCodes returns the freshly issued codes while the flow is awaiting
// acknowledgment. Nil at any other stage.
func (e *Enrollment) BackupCodes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backupCodes
}

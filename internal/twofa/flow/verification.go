package flow

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"
)

// Mode selects what a verification challenge gates.
type Mode int

const (
	// ModeLogin gates a fresh sign-in, keyed by subject identifier.
	ModeLogin Mode = iota
	// ModeStepUp re-authenticates an existing session inside a time-boxed
	// window, keyed by step-up session id.
	ModeStepUp
)

func (m Mode) String() string {
	switch m {
	case ModeLogin:
		return "login"
	case ModeStepUp:
		return "step_up"
	default:
		return "unknown"
	}
}

// Path is the active input path of a challenge.
type Path int

const (
	PathTOTP Path = iota
	PathBackup
)

func (p Path) String() string {
	switch p {
	case PathTOTP:
		return "totp"
	case PathBackup:
		return "backup"
	default:
		return "unknown"
	}
}

var backupCodeRe = regexp.MustCompile(`^[0-9]{8}$`)

// ChallengeContext carries the identifiers a challenge verifies against.
// Login mode needs Subject; step-up mode needs both Subject (for backup code
// redemption) and StepUpSessionID.
type ChallengeContext struct {
	Subject         string
	StepUpSessionID string
}

// VerificationConfig configures a new challenge.
type VerificationConfig struct {
	Mode    Mode
	Context ChallengeContext

	// WindowSeconds is the step-up countdown length. Zero means the default
	// 300 second window. Ignored in login mode.
	WindowSeconds int

	// TickInterval is how much wall time one countdown tick represents.
	// Zero means one second. Tests compress time with a short interval.
	TickInterval time.Duration

	// OnResolve fires exactly once when the challenge closes: nil on
	// success, the fatal error kind otherwise. May be nil.
	OnResolve func(err error)
}

// Verification gates a sign-in or step-up behind a second factor. It
// enforces the attempt ceiling, offers the backup code escape hatch and, in
// step-up mode, self-terminates when its window expires.
//
// A single instance serves one challenge; it is safe to call from multiple
// goroutines but permits only one in-flight verifier call at a time.
type Verification struct {
	p Provisioner

	mode  Mode
	cctx  ChallengeContext
	clock *SessionClock

	onResolve   func(err error)
	resolveOnce sync.Once

	mu       sync.Mutex
	path     Path
	input    string
	attempts Attempts
	inFlight bool
	closed   bool
	// closeReason is what later submissions get back once the challenge has
	// resolved. Fatal kinds are preserved so a post-lockout submission still
	// reads as ErrTooManyAttempts.
	closeReason error
}

// NewVerification opens a challenge. Login mode without a subject, or
// step-up mode without both a subject and session id, is ErrMissingContext.
// The step-up countdown starts immediately.
func NewVerification(p Provisioner, cfg VerificationConfig) (*Verification, error) {
	switch cfg.Mode {
	case ModeLogin:
		if cfg.Context.Subject == "" {
			return nil, fmt.Errorf("%w: login challenge needs a subject", ErrMissingContext)
		}
	case ModeStepUp:
		if cfg.Context.Subject == "" || cfg.Context.StepUpSessionID == "" {
			return nil, fmt.Errorf("%w: step-up challenge needs a subject and session id", ErrMissingContext)
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode", ErrMissingContext)
	}

	v := &Verification{
		p:         p,
		mode:      cfg.Mode,
		cctx:      cfg.Context,
		onResolve: cfg.OnResolve,
		path:      PathTOTP,
		attempts:  NewAttempts(),
	}

	if cfg.Mode == ModeStepUp {
		seconds := cfg.WindowSeconds
		if seconds <= 0 {
			seconds = StepUpWindowSeconds
		}
		v.clock = NewSessionClock(seconds, cfg.TickInterval, nil, v.expire)
		v.clock.Start()
	}

	return v, nil
}

// Submit checks a code on the active path. Malformed codes are rejected
// locally without a verifier call or an attempt. TOTP failures and transport
// errors burn an attempt; backup code failures never do. A successful check
// resolves the challenge.
func (v *Verification) Submit(ctx context.Context, code string) error {
	v.mu.Lock()
	if v.closed {
		reason := v.closeReason
		v.mu.Unlock()
		return reason
	}
	if v.inFlight {
		v.mu.Unlock()
		return ErrSubmissionInFlight
	}

	path := v.path
	if path == PathBackup {
		if !backupCodeRe.MatchString(code) {
			v.mu.Unlock()
			return ErrCodeFormat
		}
	} else if !totpCodeRe.MatchString(code) {
		v.mu.Unlock()
		return ErrCodeFormat
	}
	v.inFlight = true
	v.mu.Unlock()

	ok, verr := v.dispatch(ctx, path, code)

	v.mu.Lock()
	v.inFlight = false

	// A challenge cancelled or expired mid-call discards the late result.
	if v.closed {
		v.mu.Unlock()
		return ErrFlowClosed
	}

	if verr != nil {
		// An unstable verifier must not grant unlimited retries, so a
		// transport error burns an attempt just like a wrong code.
		v.attempts = v.attempts.RecordFailure()
		if v.attempts.LockedOut() {
			v.closeLocked(ErrTooManyAttempts)
			v.mu.Unlock()
			v.finish(ErrTooManyAttempts)
			return ErrTooManyAttempts
		}
		v.mu.Unlock()
		return fmt.Errorf("verify: %w", verr)
	}

	if !ok {
		if path == PathBackup {
			v.mu.Unlock()
			return ErrBackupCodeInvalid
		}

		v.attempts = v.attempts.RecordFailure()
		v.input = ""
		if v.attempts.LockedOut() {
			v.closeLocked(ErrTooManyAttempts)
			v.mu.Unlock()
			v.finish(ErrTooManyAttempts)
			return ErrTooManyAttempts
		}
		v.mu.Unlock()
		return ErrInvalidCode
	}

	v.closeLocked(nil)
	v.mu.Unlock()
	v.finish(nil)
	return nil
}

// dispatch routes the submission to the verifier matching the mode and path.
func (v *Verification) dispatch(ctx context.Context, path Path, code string) (bool, error) {
	if path == PathBackup {
		return v.p.RedeemBackupCode(ctx, v.cctx.Subject, code)
	}
	if v.mode == ModeStepUp {
		return v.p.VerifyStepUp(ctx, v.cctx.StepUpSessionID, code)
	}
	return v.p.VerifyLogin(ctx, v.cctx.Subject, code)
}

// SwitchPath toggles between TOTP and backup code entry. Switching clears
// any partial input from the path being left and never touches the attempt
// counter.
func (v *Verification) SwitchPath(path Path) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return v.closeReason
	}
	if path != v.path {
		v.path = path
		v.input = ""
	}
	return nil
}

// UpdateInput stores partial input for the active path.
func (v *Verification) UpdateInput(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.input = s
	}
}

// Input returns the buffered partial input.
func (v *Verification) Input() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.input
}

// Cancel abandons the challenge. The countdown stops before Cancel returns
// and a verifier result still in flight is discarded on arrival.
func (v *Verification) Cancel() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closeLocked(ErrFlowClosed)
	v.mu.Unlock()
	v.finish(ErrFlowClosed)
}

// expire is the countdown's expiry callback.
func (v *Verification) expire() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.closeReason = ErrSessionExpired
	v.mu.Unlock()

	// The clock stops itself after expiry, no Stop needed here.
	v.resolveOnce.Do(func() {
		if v.onResolve != nil {
			v.onResolve(ErrSessionExpired)
		}
	})
}

// closeLocked marks the challenge resolved. Callers hold v.mu.
func (v *Verification) closeLocked(reason error) {
	v.closed = true
	if reason != nil && Fatal(reason) {
		v.closeReason = reason
	} else {
		v.closeReason = ErrFlowClosed
	}
	v.input = ""
}

// finish stops the countdown and fires the resolve callback exactly once.
// Must be called without v.mu held: stopping the clock waits for its
// goroutine, which may itself be blocked on the mutex in expire.
func (v *Verification) finish(reason error) {
	if v.clock != nil {
		v.clock.Stop()
	}
	v.resolveOnce.Do(func() {
		if v.onResolve != nil {
			v.onResolve(reason)
		}
	})
}

// Mode returns the challenge mode.
func (v *Verification) Mode() Mode {
	return v.mode
}

// Context returns the identifiers the challenge verifies against.
func (v *Verification) Context() ChallengeContext {
	return v.cctx
}

// Path returns the active input path.
func (v *Verification) Path() Path {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.path
}

// AttemptsRemaining returns the attempts left before lockout.
func (v *Verification) AttemptsRemaining() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attempts.Remaining()
}

// Closed reports whether the challenge has resolved.
func (v *Verification) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// WindowRemaining returns the seconds left on a step-up countdown, or zero
// for login challenges.
func (v *Verification) WindowRemaining() int {
	if v.clock == nil {
		return 0
	}
	return v.clock.Remaining()
}

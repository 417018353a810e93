package flow

import "errors"

// Error kinds surfaced by the enrollment and verification flows. Handlers map
// these onto wire errors; the flows themselves never format user-facing text.
var (
	// ErrSetupFailed means provisioning could not produce a secret. Fatal to
	// the enrollment, the caller must start over.
	ErrSetupFailed = errors.New("flow: setup failed")

	// ErrInvalidCode means a well-formed code was rejected by the verifier.
	// Recoverable; in verification the attempt ceiling applies.
	ErrInvalidCode = errors.New("flow: invalid code")

	// ErrCodeFormat means the code failed local format validation and was
	// never sent to the verifier. Never consumes an attempt.
	ErrCodeFormat = errors.New("flow: malformed code")

	// ErrTooManyAttempts means the attempt ceiling was reached. Fatal to the
	// challenge.
	ErrTooManyAttempts = errors.New("flow: too many attempts")

	// ErrSessionExpired means the step-up window lapsed. Fatal to the
	// challenge.
	ErrSessionExpired = errors.New("flow: session expired")

	// ErrBackupCodeInvalid means a backup code was wrong or already redeemed.
	// Recoverable and never counted against the ceiling.
	ErrBackupCodeInvalid = errors.New("flow: backup code invalid")

	// ErrMissingContext means the challenge was created without the
	// identifier its mode requires. Precondition violation, not retryable.
	ErrMissingContext = errors.New("flow: missing context")

	// ErrSubmissionInFlight means a previous submission is still awaiting its
	// verifier result. The new submission is rejected, not queued.
	ErrSubmissionInFlight = errors.New("flow: submission in flight")

	// ErrFlowClosed means the flow already resolved (success, cancel or a
	// fatal error) and accepts no further operations.
	ErrFlowClosed = errors.New("flow: closed")
)

// Fatal reports whether err terminates its flow instance.
func Fatal(err error) bool {
	return errors.Is(err, ErrSetupFailed) ||
		errors.Is(err, ErrTooManyAttempts) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrMissingContext)
}

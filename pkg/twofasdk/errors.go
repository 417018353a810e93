package twofasdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/huddlehq/twofa/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeServerError        = "server_error"
	ErrorCodeSetupFailed        = "setup_failed"
	ErrorCodeInvalidCode        = "invalid_code"
	ErrorCodeCodeFormat         = "code_format"
	ErrorCodeTooManyAttempts    = "too_many_attempts"
	ErrorCodeSessionExpired     = "session_expired"
	ErrorCodeBackupCodeInvalid  = "backup_code_invalid"
	ErrorCodeMissingContext     = "missing_context"
	ErrorCodeSubmissionInFlight = "submission_in_flight"
	ErrorCodeChallengeNotFound  = "challenge_not_found"
	ErrorCodeNotEnrolled        = "not_enrolled"
	ErrorCodeAlreadyEnrolled    = "already_enrolled"
	ErrorCodeInsufficientScope  = "insufficient_scope"
)

// ============================================================================
// Error - wire error type
// ============================================================================

// Error is the JSON error shape the service speaks. It implements the error
// interface so the same type serves both the HTTP handlers (to write
// responses) and the SDK client (to surface failures to callers).
type Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g. "invalid_code")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// AttemptsRemaining is set on recoverable code failures so clients can
	// show how many tries are left before lockout.
	AttemptsRemaining *int `json:"attempts_remaining,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this Error to an HTTP response writer.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// WithAttempts returns a copy of the error carrying an attempts_remaining
// count. The receiver is not mutated so the predefined errors stay clean.
func (e *Error) WithAttempts(n int) *Error {
	dup := *e
	dup.AttemptsRemaining = &n
	return &dup
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned when the request body is malformed or
	// missing required fields.
	ErrInvalidRequest = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidToken is returned when the bearer token is missing, invalid
	// or expired.
	ErrInvalidToken = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid or expired",
	}

	// ErrServerError is returned for unexpected internal failures.
	ErrServerError = &Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	// ErrSetupFailed is returned when enrollment provisioning fails before a
	// secret could be established. The enrollment can be retried from scratch.
	ErrSetupFailed = &Error{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeSetupFailed,
		Description: "two-factor setup could not be completed, try again",
	}

	// ErrInvalidCode is returned when a submitted authenticator code does not
	// verify. Recoverable while attempts remain.
	ErrInvalidCode = &Error{
		StatusCode:  http.StatusUnprocessableEntity,
		Code:        ErrorCodeInvalidCode,
		Description: "the verification code is incorrect",
	}

	// ErrCodeFormat is returned when a code fails local format validation and
	// was never sent for verification.
	ErrCodeFormat = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeCodeFormat,
		Description: "the code must be 6 digits",
	}

	// ErrTooManyAttempts is returned once the failed-attempt ceiling is hit.
	// The challenge is closed and a new one must be started.
	ErrTooManyAttempts = &Error{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeTooManyAttempts,
		Description: "too many failed attempts, start a new verification",
	}

	// ErrSessionExpired is returned when the challenge window lapsed before a
	// successful verification.
	ErrSessionExpired = &Error{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeSessionExpired,
		Description: "the verification session has expired",
	}

	// ErrBackupCodeInvalid is returned when a backup code does not match any
	// unused code on record. Never counts against the attempt ceiling.
	ErrBackupCodeInvalid = &Error{
		StatusCode:  http.StatusUnprocessableEntity,
		Code:        ErrorCodeBackupCodeInvalid,
		Description: "the backup code is not recognized",
	}

	// ErrMissingContext is returned when a step-up verification is attempted
	// without an active step-up session.
	ErrMissingContext = &Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeMissingContext,
		Description: "no active step-up session for this verification",
	}

	// ErrSubmissionInFlight is returned when a code is submitted while a
	// previous submission is still being verified.
	ErrSubmissionInFlight = &Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeSubmissionInFlight,
		Description: "a previous submission is still being verified",
	}

	// ErrChallengeNotFound is returned for an unknown or already resolved
	// challenge id.
	ErrChallengeNotFound = &Error{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeChallengeNotFound,
		Description: "no such verification challenge",
	}

	// ErrNotEnrolled is returned when an operation requires an enabled
	// two-factor credential and the subject has none.
	ErrNotEnrolled = &Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeNotEnrolled,
		Description: "two-factor authentication is not enabled for this account",
	}

	// ErrAlreadyEnrolled is returned when enrollment is started for a subject
	// that already has an enabled credential.
	ErrAlreadyEnrolled = &Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeAlreadyEnrolled,
		Description: "two-factor authentication is already enabled for this account",
	}
)

// NewError creates an Error with the given status code, error code and
// description, for cases the predefined errors don't cover.
func NewError(statusCode int, code, description string) *Error {
	return &Error{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx HTTP response into a typed *Error.
// Returns nil for success responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp Error
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
		errResp.StatusCode = resp.StatusCode
		return &errResp
	}

	return &Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

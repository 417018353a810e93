package twofasdk

// ============================================================================
// Enrollment
// ============================================================================

// StartEnrollmentResponse is returned when a new enrollment begins. The
// secret and URI are shown exactly once, clients must not persist them.
type StartEnrollmentResponse struct {
	// Stage is the current enrollment stage
	Stage string `json:"stage"`

	// Secret is the shared TOTP secret in base32, for manual entry
	Secret string `json:"secret"`

	// ProvisioningURI is the otpauth:// URI encoded in the QR code
	ProvisioningURI string `json:"provisioning_uri"`

	// QRCode is a data: URL with a PNG render of the provisioning URI
	QRCode string `json:"qr_code"`
}

// VerifyEnrollmentRequest submits the first authenticator code to prove the
// secret was captured.
type VerifyEnrollmentRequest struct {
	Code string `json:"code"`
}

// VerifyEnrollmentResponse is returned when the enrollment code verifies.
// Backup codes appear here exactly once.
type VerifyEnrollmentResponse struct {
	Stage       string   `json:"stage"`
	BackupCodes []string `json:"backup_codes"`
}

// AckEnrollmentResponse confirms the enrollment is complete and the
// credential enabled.
type AckEnrollmentResponse struct {
	Stage     string `json:"stage"`
	EnabledAt string `json:"enabled_at"`
}

// EnrollmentStatusResponse reports whether the subject has an enabled
// credential.
type EnrollmentStatusResponse struct {
	Enabled   bool   `json:"enabled"`
	EnabledAt string `json:"enabled_at,omitempty"`
}

// ============================================================================
// Backup Codes
// ============================================================================

// RegenerateBackupCodesResponse carries a fresh batch of backup codes. Any
// previous codes are invalid from this point.
type RegenerateBackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

// ============================================================================
// Verification Challenges
// ============================================================================

// Verification modes.
const (
	ModeLogin  = "login"
	ModeStepUp = "step_up"
)

// Input paths.
const (
	PathTOTP   = "totp"
	PathBackup = "backup"
)

// StartChallengeRequest opens a verification challenge.
type StartChallengeRequest struct {
	// Mode is "login" or "step_up"
	Mode string `json:"mode"`
}

// StartChallengeResponse describes a freshly opened challenge.
type StartChallengeResponse struct {
	ChallengeID string `json:"challenge_id"`

	// Path is the active input path, initially "totp"
	Path string `json:"path"`

	// ExpiresInSeconds is how long the challenge stays open
	ExpiresInSeconds int `json:"expires_in_seconds"`

	AttemptsRemaining int `json:"attempts_remaining"`
}

// SwitchPathRequest changes the active input path of a challenge. Switching
// discards anything typed on the previous path.
type SwitchPathRequest struct {
	Path string `json:"path"`
}

// SwitchPathResponse confirms the new active path.
type SwitchPathResponse struct {
	ChallengeID string `json:"challenge_id"`
	Path        string `json:"path"`
}

// SubmitCodeRequest submits a code on the challenge's active path.
type SubmitCodeRequest struct {
	Code string `json:"code"`
}

// SubmitCodeResponse is returned on a successful verification. Grant is only
// present for step-up challenges.
type SubmitCodeResponse struct {
	Verified bool `json:"verified"`

	// Grant is a short-lived signed token proving the step-up succeeded
	Grant string `json:"grant,omitempty"`

	// GrantExpiresIn is the grant lifetime in seconds
	GrantExpiresIn int `json:"grant_expires_in,omitempty"`
}

// ============================================================================
// Service Health
// ============================================================================

// HealthResponse is returned by the liveness and readiness endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// ErrorResponse is the generic wire error shape.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

package flow

import "context"

// EnrollmentMaterial is what provisioning hands back when an enrollment
// begins. The flow holds it only for display; it is never persisted here.
type EnrollmentMaterial struct {
	Secret          string
	ProvisioningURI string
}

// Provisioner is the external credential service the flows call out to. It
// owns all secret material and redemption state; the flows never cache or
// re-derive either.
type Provisioner interface {
	// BeginEnrollment provisions a fresh secret for the subject.
	BeginEnrollment(ctx context.Context, subject string) (EnrollmentMaterial, error)

	// CompleteEnrollment checks the first authenticator code and, if it
	// matches, enables the credential. ok=false means the code was wrong.
	CompleteEnrollment(ctx context.Context, subject, code string) (ok bool, err error)

	// IssueBackupCodes mints a fresh ordered set of one-time codes,
	// invalidating any previously issued set for the subject.
	IssueBackupCodes(ctx context.Context, subject string) ([]string, error)

	// VerifyLogin checks a TOTP code against the subject's credential.
	VerifyLogin(ctx context.Context, subject, code string) (ok bool, err error)

	// VerifyStepUp checks a TOTP code in the context of a step-up session.
	VerifyStepUp(ctx context.Context, sessionID, code string) (ok bool, err error)

	// RedeemBackupCode atomically consumes a backup code. ok=false means the
	// code was wrong or already redeemed.
	RedeemBackupCode(ctx context.Context, subject, code string) (ok bool, err error)

	// CreateStepUpSession opens a new step-up window for the subject and
	// returns its id.
	CreateStepUpSession(ctx context.Context, subject string) (string, error)
}

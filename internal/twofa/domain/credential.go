package domain

import "time"

// Credential is a subject's TOTP credential. A credential exists from the
// moment enrollment provisions a secret; it only counts as active once
// EnabledAt is set, which happens when the subject acknowledges their backup
// codes.
type Credential struct {
	SubjectID string
	Secret    string     // TOTP secret, base32 encoded
	EnabledAt *time.Time // nil while enrollment is still in progress
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Enabled reports whether the credential has completed enrollment.
func (c Credential) Enabled() bool {
	return c.EnabledAt != nil
}

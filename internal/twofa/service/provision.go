package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/domain"
	"github.com/huddlehq/twofa/internal/twofa/flow"
	"github.com/huddlehq/twofa/internal/twofa/store"
	"github.com/huddlehq/twofa/pkg/cryptox"
	"github.com/huddlehq/twofa/pkg/idx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
)

const (
	backupCodeCount  = 8 // codes per issued set
	backupCodeDigits = 8 // decimal digits per code

	qrImageSize = 256
)

var (
	ErrNotEnrolled     = errors.New("service: two-factor not enabled")
	ErrAlreadyEnrolled = errors.New("service: two-factor already enabled")
	ErrNoStepUpSession = errors.New("service: step-up session not found or expired")
)

// ProvisioningService is the credential side of the house: it owns secret
// material, backup code hashes and step-up sessions. The flows in
// internal/twofa/flow drive it through the flow.Provisioner interface and
// never see storage.
type ProvisioningService struct {
	Store  store.Store
	Issuer string // TOTP issuer label (e.g. "Huddle")

	// StepUpWindow overrides the step-up session length. Zero means the
	// default 300 seconds.
	StepUpWindow time.Duration
}

var _ flow.Provisioner = (*ProvisioningService)(nil)

// BeginEnrollment provisions a fresh TOTP secret for the subject. The secret
// is persisted as a pending credential; it only becomes active once
// CompleteEnrollment sees a matching code.
func (s *ProvisioningService) BeginEnrollment(ctx context.Context, subject string) (flow.EnrollmentMaterial, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: subject,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return flow.EnrollmentMaterial{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := s.Store.Credentials().UpsertSecret(ctx, subject, key.Secret()); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return flow.EnrollmentMaterial{}, ErrAlreadyEnrolled
		}
		return flow.EnrollmentMaterial{}, fmt.Errorf("failed to store secret: %w", err)
	}

	return flow.EnrollmentMaterial{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
	}, nil
}

// CompleteEnrollment checks the first authenticator code against the pending
// secret and enables the credential on a match. ok=false means the code was
// wrong and the enrollment stays pending.
func (s *ProvisioningService) CompleteEnrollment(ctx context.Context, subject, code string) (bool, error) {
	cred, err := s.Store.Credentials().GetCredential(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrNotEnrolled
		}
		return false, fmt.Errorf("failed to get credential: %w", err)
	}
	if cred.Enabled() {
		return false, ErrAlreadyEnrolled
	}

	if !totp.Validate(code, cred.Secret) {
		return false, nil
	}

	if err := s.Store.Credentials().Enable(ctx, subject, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("failed to enable credential: %w", err)
	}
	return true, nil
}

// IssueBackupCodes mints a fresh set of one-time codes and stores their
// salted hashes, replacing any previous set in a single transaction. The
// plaintext codes exist only in the return value.
func (s *ProvisioningService) IssueBackupCodes(ctx context.Context, subject string) ([]string, error) {
	codes := make([]string, backupCodeCount)
	for i := range codes {
		code, err := generateBackupCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = code
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, subject); err != nil {
			return fmt.Errorf("failed to delete old backup codes: %w", err)
		}
		for _, code := range codes {
			hash, err := cryptox.HashSecret(code)
			if err != nil {
				return fmt.Errorf("failed to hash backup code: %w", err)
			}
			if err := tx.BackupCodes().CreateBackupCode(ctx, subject, hash); err != nil {
				return fmt.Errorf("failed to store backup code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return codes, nil
}

// VerifyLogin checks a TOTP code against the subject's enabled credential.
func (s *ProvisioningService) VerifyLogin(ctx context.Context, subject, code string) (bool, error) {
	cred, err := s.enabledCredential(ctx, subject)
	if err != nil {
		return false, err
	}
	return totp.Validate(code, cred.Secret), nil
}

// VerifyStepUp checks a TOTP code in the context of a step-up session. A
// missing or lapsed session is a hard error, not a wrong-code result.
func (s *ProvisioningService) VerifyStepUp(ctx context.Context, sessionID, code string) (bool, error) {
	sess, err := s.Store.StepUpSessions().GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrNoStepUpSession
		}
		return false, fmt.Errorf("failed to get step-up session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return false, ErrNoStepUpSession
	}

	cred, err := s.enabledCredential(ctx, sess.SubjectID)
	if err != nil {
		return false, err
	}
	return totp.Validate(code, cred.Secret), nil
}

// RedeemBackupCode consumes a backup code: match and delete inside one
// transaction so a code can never be accepted twice, even under retry. The
// stored hashes are salted, so the submitted code is checked against each
// unredeemed hash in turn.
func (s *ProvisioningService) RedeemBackupCode(ctx context.Context, subject, code string) (bool, error) {
	accepted := false
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		hashes, err := tx.BackupCodes().ListBackupCodes(ctx, subject)
		if err != nil {
			return fmt.Errorf("failed to load backup codes: %w", err)
		}
		for _, hash := range hashes {
			if cryptox.VerifySecret(code, hash) != nil {
				continue
			}
			if err := tx.BackupCodes().DeleteBackupCode(ctx, subject, hash); err != nil {
				return fmt.Errorf("failed to consume backup code: %w", err)
			}
			accepted = true
			return nil
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return accepted, nil
}

// CreateStepUpSession opens a time-boxed step-up window for the subject.
func (s *ProvisioningService) CreateStepUpSession(ctx context.Context, subject string) (string, error) {
	if _, err := s.enabledCredential(ctx, subject); err != nil {
		return "", err
	}

	window := s.StepUpWindow
	if window <= 0 {
		window = flow.StepUpWindowSeconds * time.Second
	}

	now := time.Now().UTC()
	sess := domain.StepUpSession{
		ID:        idx.New().String(),
		SubjectID: subject,
		CreatedAt: now,
		ExpiresAt: now.Add(window),
	}
	if err := s.Store.StepUpSessions().CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("failed to create step-up session: %w", err)
	}
	return sess.ID, nil
}

// CloseStepUpSession discards a step-up session once its challenge resolves.
func (s *ProvisioningService) CloseStepUpSession(ctx context.Context, sessionID string) error {
	err := s.Store.StepUpSessions().DeleteSession(ctx, sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// GetCredential returns the subject's credential for status reporting.
func (s *ProvisioningService) GetCredential(ctx context.Context, subject string) (domain.Credential, error) {
	cred, err := s.Store.Credentials().GetCredential(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Credential{}, ErrNotEnrolled
		}
		return domain.Credential{}, err
	}
	return cred, nil
}

// Disable removes the subject's credential and, via schema cascade, their
// backup codes.
func (s *ProvisioningService) Disable(ctx context.Context, subject string) error {
	err := s.Store.Credentials().Delete(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotEnrolled
	}
	return err
}

// RenderQRDataURL renders the provisioning URI as a PNG data URL suitable
// for an <img> tag.
func RenderQRDataURL(provisioningURI string) (string, error) {
	png, err := qrcode.Encode(provisioningURI, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func (s *ProvisioningService) enabledCredential(ctx context.Context, subject string) (domain.Credential, error) {
	cred, err := s.Store.Credentials().GetCredential(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Credential{}, ErrNotEnrolled
		}
		return domain.Credential{}, fmt.Errorf("failed to get credential: %w", err)
	}
	if !cred.Enabled() {
		return domain.Credential{}, ErrNotEnrolled
	}
	return cred, nil
}

// generateBackupCode draws 8 decimal digits from crypto/rand.
func generateBackupCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < backupCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", backupCodeDigits, n), nil
}

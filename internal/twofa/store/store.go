package store

import (
	"context"
	"errors"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and to
// stop callers from accidentally nesting transactions.
type Store interface {
	Credentials() Credentials
	BackupCodes() BackupCodes
	StepUpSessions() StepUpSessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rollback if fn errors,
	// commit otherwise. This is the recommended way to do multi-step
	// operations that must be atomic (e.g. backup code replacement).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Credentials interface {
	// GetCredential returns the subject's credential, enabled or pending.
	GetCredential(ctx context.Context, subjectID string) (domain.Credential, error)

	// UpsertSecret creates or replaces the subject's pending credential with
	// a fresh secret. Fails with ErrAlreadyExists if the credential is
	// already enabled.
	UpsertSecret(ctx context.Context, subjectID, secret string) error

	// Enable marks the credential enabled at the given instant.
	Enable(ctx context.Context, subjectID string, at time.Time) error

	// Delete removes the credential. Backup codes cascade per schema.
	Delete(ctx context.Context, subjectID string) error

	// DeletePendingOlderThan removes credentials that never finished
	// enrollment and were created before the cutoff.
	DeletePendingOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type BackupCodes interface {
	// CreateBackupCode stores one salted code hash for the subject.
	CreateBackupCode(ctx context.Context, subjectID, codeHash string) error

	// ListBackupCodes returns the subject's unredeemed code hashes. The
	// hashes are salted, so redemption matches a submitted code against
	// each in turn.
	ListBackupCodes(ctx context.Context, subjectID string) ([]string, error)

	// DeleteBackupCode removes one code by its stored hash. Redemption is
	// match+delete inside a single transaction.
	DeleteBackupCode(ctx context.Context, subjectID, codeHash string) error

	// DeleteAllBackupCodes wipes the subject's set, used for full
	// replacement on reissue.
	DeleteAllBackupCodes(ctx context.Context, subjectID string) error

	// CountBackupCodes returns how many unredeemed codes the subject holds.
	CountBackupCodes(ctx context.Context, subjectID string) (int, error)
}

type StepUpSessions interface {
	// CreateSession stores a fresh step-up session.
	CreateSession(ctx context.Context, s domain.StepUpSession) error

	// GetSession returns a session by id.
	GetSession(ctx context.Context, id string) (domain.StepUpSession, error)

	// DeleteSession removes a session once its challenge resolves.
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpired removes sessions whose window lapsed before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

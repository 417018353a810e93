package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/domain"
	"github.com/huddlehq/twofa/internal/twofa/store"
)

type credentialsRepo struct {
	db dbtx
}

const getCredential = `
SELECT subject_id, secret, enabled_at, created_at, updated_at
FROM credentials
WHERE subject_id = ?
`

func (r *credentialsRepo) GetCredential(ctx context.Context, subjectID string) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx, getCredential, subjectID)

	var c domain.Credential
	var enabledAt sql.NullTime
	if err := row.Scan(&c.SubjectID, &c.Secret, &enabledAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	c.EnabledAt = mapNullTimePtr(enabledAt)
	return c, nil
}

const upsertSecret = `
INSERT INTO credentials (subject_id, secret, enabled_at, created_at, updated_at)
VALUES (?, ?, NULL, ?, ?)
ON CONFLICT (subject_id) DO UPDATE
SET secret = excluded.secret, updated_at = excluded.updated_at
WHERE credentials.enabled_at IS NULL
`

func (r *credentialsRepo) UpsertSecret(ctx context.Context, subjectID, secret string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, upsertSecret, subjectID, secret, now, now)
	if err != nil {
		return err
	}

	// The conditional upsert touches no row when the credential is already
	// enabled; starting enrollment over an enabled credential is a conflict.
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

const enableCredential = `
UPDATE credentials
SET enabled_at = ?, updated_at = ?
WHERE subject_id = ? AND enabled_at IS NULL
`

func (r *credentialsRepo) Enable(ctx context.Context, subjectID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, enableCredential, at.UTC(), time.Now().UTC(), subjectID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

const deleteCredential = `DELETE FROM credentials WHERE subject_id = ?`

func (r *credentialsRepo) Delete(ctx context.Context, subjectID string) error {
	res, err := r.db.ExecContext(ctx, deleteCredential, subjectID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

const deletePendingOlderThan = `
DELETE FROM credentials
WHERE enabled_at IS NULL AND created_at < ?
`

func (r *credentialsRepo) DeletePendingOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deletePendingOlderThan, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

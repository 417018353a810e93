package sqlite

import (
	"context"
	"time"
)

type backupCodesRepo struct {
	db dbtx
}

const createBackupCode = `
INSERT INTO backup_codes (subject_id, code_hash, created_at)
VALUES (?, ?, ?)
`

func (r *backupCodesRepo) CreateBackupCode(ctx context.Context, subjectID, codeHash string) error {
	_, err := r.db.ExecContext(ctx, createBackupCode, subjectID, codeHash, time.Now().UTC())
	return err
}

const listBackupCodes = `
SELECT code_hash FROM backup_codes
WHERE subject_id = ?
ORDER BY created_at
`

func (r *backupCodesRepo) ListBackupCodes(ctx context.Context, subjectID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listBackupCodes, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, rows.Err()
}

const deleteBackupCode = `
DELETE FROM backup_codes
WHERE subject_id = ? AND code_hash = ?
`

func (r *backupCodesRepo) DeleteBackupCode(ctx context.Context, subjectID, codeHash string) error {
	_, err := r.db.ExecContext(ctx, deleteBackupCode, subjectID, codeHash)
	return err
}

const deleteAllBackupCodes = `DELETE FROM backup_codes WHERE subject_id = ?`

func (r *backupCodesRepo) DeleteAllBackupCodes(ctx context.Context, subjectID string) error {
	_, err := r.db.ExecContext(ctx, deleteAllBackupCodes, subjectID)
	return err
}

const countBackupCodes = `SELECT COUNT(*) FROM backup_codes WHERE subject_id = ?`

func (r *backupCodesRepo) CountBackupCodes(ctx context.Context, subjectID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, countBackupCodes, subjectID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

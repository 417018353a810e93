package sqlite

import (
	"context"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/domain"
	"github.com/huddlehq/twofa/internal/twofa/store"
)

type stepUpSessionsRepo struct {
	db dbtx
}

const createSession = `
INSERT INTO stepup_sessions (id, subject_id, created_at, expires_at)
VALUES (?, ?, ?, ?)
`

func (r *stepUpSessionsRepo) CreateSession(ctx context.Context, s domain.StepUpSession) error {
	_, err := r.db.ExecContext(ctx, createSession, s.ID, s.SubjectID, s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	return err
}

const getSession = `
SELECT id, subject_id, created_at, expires_at
FROM stepup_sessions
WHERE id = ?
`

func (r *stepUpSessionsRepo) GetSession(ctx context.Context, id string) (domain.StepUpSession, error) {
	row := r.db.QueryRowContext(ctx, getSession, id)

	var s domain.StepUpSession
	if err := row.Scan(&s.ID, &s.SubjectID, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return domain.StepUpSession{}, mapNotFound(err)
	}
	return s, nil
}

const deleteSession = `DELETE FROM stepup_sessions WHERE id = ?`

func (r *stepUpSessionsRepo) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteSession, id)
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

const deleteExpiredSessions = `DELETE FROM stepup_sessions WHERE expires_at < ?`

func (r *stepUpSessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredSessions, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

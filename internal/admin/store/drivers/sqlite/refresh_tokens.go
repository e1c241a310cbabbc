package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
	"github.com/aussiebroadwan/scripthub/internal/admin/store"
)

type refreshTokensRepo struct {
	db dbtx
}

const createRefreshToken = `
INSERT INTO refresh_tokens (id, session_id, subject, expires_at, created_at)
VALUES (?, ?, ?, ?, ?)`

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, createRefreshToken,
		t.ID, t.SessionID, t.Subject, toUnix(t.ExpiresAt), toUnix(t.CreatedAt))
	return mapConstraint(err)
}

const getRefreshToken = `
SELECT id, session_id, subject, expires_at, consumed_at, revoked, created_at
FROM refresh_tokens WHERE id = ?`

func (r *refreshTokensRepo) GetRefreshToken(ctx context.Context, id string) (domain.RefreshToken, error) {
	var (
		t                    domain.RefreshToken
		expiresAt, createdAt int64
		consumedAt           sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, getRefreshToken, id).Scan(
		&t.ID, &t.SessionID, &t.Subject, &expiresAt, &consumedAt, &t.Revoked, &createdAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.ExpiresAt = fromUnix(expiresAt)
	t.CreatedAt = fromUnix(createdAt)
	t.ConsumedAt = fromNullUnix(consumedAt)
	return t, nil
}

// The WHERE clause is the compare-and-swap: a second consumer finds
// consumed_at already set and updates nothing.
const consumeRefreshToken = `
UPDATE refresh_tokens SET consumed_at = ?
WHERE id = ? AND consumed_at IS NULL AND revoked = 0 AND expires_at > ?`

func (r *refreshTokensRepo) ConsumeRefreshToken(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, consumeRefreshToken, toUnix(at), id, toUnix(at))
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

const revokeSession = `UPDATE refresh_tokens SET revoked = 1 WHERE session_id = ? AND revoked = 0`

func (r *refreshTokensRepo) RevokeSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, revokeSession, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpiredRefreshTokens = `DELETE FROM refresh_tokens WHERE expires_at <= ?`

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredRefreshTokens, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

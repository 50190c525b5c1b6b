package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kavehjam/go-rbac-service/internal/model"
	"github.com/kavehjam/go-rbac-service/internal/utils"
)

// TokenRepo is the sole authority over refresh token state.  Rows hold only
// the SHA-256 digest of the opaque raw string; every method here accepts the
// raw string and hashes it internally.  The invariant maintained by IssueFor
// is that at most one non-revoked token exists per user at any moment.
type TokenRepo struct {
	DB      *sql.DB
	ttlDays int
}

// NewTokenRepo binds the repository to a database and a refresh token
// lifetime in days.
func NewTokenRepo(db *sql.DB, ttlDays int) *TokenRepo {
	return &TokenRepo{DB: db, ttlDays: ttlDays}
}

// IssueFor revokes every active token owned by the user and inserts a fresh
// one inside a single transaction, so two concurrent calls for the same owner
// can never leave two tokens active.  The raw string is returned to hand to
// the client; it is not recoverable from storage afterwards.
func (r *TokenRepo) IssueFor(ctx context.Context, userID uint64) (utils.RefreshToken, error) {
	token, err := utils.NewRefreshToken(r.ttlDays)
	if err != nil {
		return utils.RefreshToken{}, err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return utils.RefreshToken{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID); err != nil {
		return utils.RefreshToken{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, utils.HashRefreshRaw(token.Raw), token.Exp); err != nil {
		return utils.RefreshToken{}, err
	}
	if err := tx.Commit(); err != nil {
		return utils.RefreshToken{}, err
	}
	return token, nil
}

// Verify resolves a raw token string to its stored record.  Unknown and
// revoked tokens fail with ErrInvalidToken.  An expired token also fails,
// and its row is deleted on the way out so a second lookup fails as unknown.
func (r *TokenRepo) Verify(ctx context.Context, raw string) (model.RefreshToken, error) {
	hash := utils.HashRefreshRaw(raw)
	var (
		t         model.RefreshToken
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		hash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revokedAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrInvalidToken
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	if revokedAt.Valid {
		rv := revokedAt.Time
		t.RevokedAt = &rv
		return model.RefreshToken{}, ErrInvalidToken
	}
	if t.Expired(time.Now().UTC()) {
		// Lazy reclamation: the record is gone after the first expired read.
		_, _ = r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id=?", t.ID)
		return model.RefreshToken{}, ErrInvalidToken
	}
	return t, nil
}

// Revoke marks the matching token revoked.  Unknown or already-revoked
// tokens are a no-op, never an error.
func (r *TokenRepo) Revoke(ctx context.Context, raw string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		utils.HashRefreshRaw(raw))
	return err
}

// RevokeAllFor revokes every active token owned by the user.
func (r *TokenRepo) RevokeAllFor(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// SweepExpired deletes every token whose expiry lies strictly before now and
// returns the number removed.  The comparison runs inside the DELETE, so a
// token rotated into validity by a concurrent IssueFor cannot be matched by
// a stale snapshot.
func (r *TokenRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.  Each token
// belongs to exactly one user.  The opaque raw string handed to the client is
// never stored; only its SHA-256 hash.  At most one non-revoked token exists
// per user at any time: issuing a new one revokes all predecessors in the
// same storage transaction.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	TokenHash – SHA-256 hex digest of the raw token value.
//	ExpiresAt – expiration timestamp (UTC).
//	RevokedAt – when the token was revoked (nil while active).
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Revoked reports whether the token has been revoked.
func (t RefreshToken) Revoked() bool { return t.RevokedAt != nil }

// Expired reports whether the token's expiry is strictly before now.
func (t RefreshToken) Expired(now time.Time) bool { return now.After(t.ExpiresAt) }

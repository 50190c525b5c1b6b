package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding and decoding functions
	"strings"       // joining and splitting the roles claim
	"time"          // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short-lived and encoded
// in the Authorization header when calling protected endpoints.  They are
// self-contained: verification needs no store lookup.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access tokens.
// The Raw field contains the raw token string returned to the client.  The Exp
// field records when it expires.  In the database only a SHA-256 hash of the
// raw string is stored for security reasons.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS512 JWT for a principal.  It takes the
// signing secret, the subject (the user's email), the names of every role the
// user currently holds, and a TTL in minutes.  The roles are embedded as one
// comma-joined claim so the authorization middleware can evaluate them
// without a database read.  The JWT carries the standard claims: subject
// (sub), roles, expiration (exp) and issued at (iat).
func NewAccessToken(secret, subject string, roles []string, ttlMin int) (AccessToken, error) {
	// Calculate the expiration time by adding the TTL to the current UTC time.
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   subject,
		"roles": strings.Join(roles, ","),
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	// HS512 keeps the MAC over the canonical claim encoding; the secret is
	// shared process-wide configuration.
	t := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates the signature and expiry of a serialized access
// token and extracts the subject and role names.  Every failure mode —
// malformed encoding, wrong signing method, bad signature, missing claims or
// past expiry — collapses into ok=false.  Callers never see low-level
// crypto or parse errors.
func ParseAccessToken(secret, raw string) (subject string, roles []string, ok bool) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject any token not signed with the HMAC family.
		if _, isHMAC := t.Method.(*jwt.SigningMethodHMAC); !isHMAC {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", nil, false
	}
	claims, isMap := tok.Claims.(jwt.MapClaims)
	if !isMap {
		return "", nil, false
	}
	sub, isStr := claims["sub"].(string)
	if !isStr || sub == "" {
		return "", nil, false
	}
	joined, isStr := claims["roles"].(string)
	if !isStr {
		return "", nil, false
	}
	if joined != "" {
		roles = strings.Split(joined, ",")
	}
	return sub, roles, true
}

// IsTokenExpired reports whether the exp claim of a serialized token lies in
// the past.  The signature is deliberately not checked; this is a
// diagnostics helper, never an authorization decision.  Unparseable tokens
// count as expired.
func IsTokenExpired(raw string) bool {
	tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return true
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Before(time.Now().UTC())
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  Refresh tokens live longer than access tokens and
// are exchanged for new access tokens.  The ttlDays parameter controls
// how many days the refresh token is valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	// 48 random bytes -> 96 hex chars; effectively collision-free.
	raw, err := randomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string.  Storing only the hash in the database prevents attackers from
// using stolen database entries to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

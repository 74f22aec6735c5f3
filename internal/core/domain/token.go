package domain

import "time"

// TokenType is reported to clients alongside every issued token.
const TokenType = "Bearer"

// DefaultTokenName labels tokens minted by login and registration.
const DefaultTokenName = "auth_token"

// AccessToken is the stored half of an opaque bearer token. Only the SHA-256
// digest of the plaintext is kept.
type AccessToken struct {
	ID        string
	UserID    int64
	Name      string
	Hash      string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the token carries an expiry that has passed at now.
func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

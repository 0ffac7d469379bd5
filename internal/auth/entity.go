// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// Token is one issued bearer credential. Only the SHA-256 hash of the
// secret is stored; the plaintext leaves the server exactly once, in the
// login/register response.
type Token struct {
	ID         string     `db:"id"`
	UserID     string     `db:"user_id"`
	TokenHash  string     `db:"token_hash"`
	CreatedAt  time.Time  `db:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at"`
	ExpiresAt  time.Time  `db:"expires_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
}

func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *Token) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *Token) IsValid() bool {
	return !t.IsExpired() && !t.IsRevoked()
}

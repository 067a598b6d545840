package models

import "time"

type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Usable reports whether the token may still be exchanged.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && !t.Expired(now)
}

// Package refreshtokens stores issued refresh tokens and their revocation
// state. PostgreSQL and Redis implementations are provided.
package refreshtokens

import (
	"context"
	"time"

	"github.com/romcom/romcom-auth/internal/server/models"
)

// Repository is the refresh token store.
//
// Records are created once and never reactivated. Revoke is a conditional
// "revoke if still active": of several concurrent callers for one token
// exactly one gets true.
type Repository interface {
	Create(ctx context.Context, userID int64, token string, expiresAt, createdAt time.Time) (int64, error)

	// Find returns common.ErrorNotFound when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Revoke reports whether this call performed the revocation. An unknown
	// or already revoked token yields (false, nil).
	Revoke(ctx context.Context, token string, at time.Time) (bool, error)

	// RevokeAll revokes every active token of the user and returns how many
	// were revoked. Zero is not an error.
	RevokeAll(ctx context.Context, userID int64, at time.Time) (int64, error)
}

package users

import (
	"context"
	"time"

	"github.com/romcom/romcom-auth/internal/server/models"
)

// Repository is the persistence the auth core needs from the user store.
type Repository interface {
	// ValidateUser loads the user and stored password digest by username.
	ValidateUser(ctx context.Context, userName string) (*models.User, string, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUserName(ctx context.Context, userName string) (*models.User, error)
	GetPasswordDigest(ctx context.Context, userID int64) (string, error)
	// UpdatePasswordDigest replaces (or creates) the user's credential.
	UpdatePasswordDigest(ctx context.Context, userID int64, digest string, at time.Time) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error

	Create(ctx context.Context, user *models.User) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

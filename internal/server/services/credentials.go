package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/dbx"
	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server/models"
	"github.com/romcom/romcom-auth/internal/server/repositories/repomanager"
)

// CredentialService sets passwords out of band, for operators seeding or
// resetting accounts. It needs no signing key.
type CredentialService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	log         logging.Logger
	now         func() time.Time
}

func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, log logging.Logger) *CredentialService {
	return &CredentialService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		log:         log.With("module", "credential_service"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetPassword stores a new digest for userName and revokes the user's
// refresh tokens. When the user does not exist and template is non-nil, the
// user is created from template first. It returns the user and the number of
// revoked tokens.
func (s *CredentialService) SetPassword(ctx context.Context, userName, password string, template *models.User) (*models.User, int64, error) {
	if blank(userName) {
		return nil, 0, validationError("username is required")
	}
	if len(password) < minPasswordLength {
		return nil, 0, validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, 0, fmt.Errorf("hash password: %w", err)
	}

	var (
		user    *models.User
		revoked int64
		now     = s.now()
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		u, err := users.GetUserByUserName(ctx, userName)
		switch {
		case errors.Is(err, common.ErrorNotFound) && template != nil:
			nu := *template
			nu.UserName = userName
			if u, err = users.Create(ctx, &nu); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			s.log.Info(ctx, "user created", "user_id", u.ID)
		case errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("user %q: %w", userName, common.ErrorNotFound)
		case err != nil:
			return err
		}

		if err := users.UpdatePasswordDigest(ctx, u.ID, digest, now); err != nil {
			return fmt.Errorf("update digest: %w", err)
		}
		n, err := s.repomanager.RefreshTokens(tx).RevokeAll(ctx, u.ID, now)
		if err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}

		user, revoked = u, n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.log.Info(ctx, "password set", "user_id", user.ID, "revoked_tokens", revoked)
	return user, revoked, nil
}

// Package services contains the server-side business logic. AuthService
// implements login, refresh token rotation, password change and logout on
// top of the repositories, the password hasher and the token signer.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/dbx"
	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server/config"
	"github.com/romcom/romcom-auth/internal/server/models"
	"github.com/romcom/romcom-auth/internal/server/repositories/refreshtokens"
	"github.com/romcom/romcom-auth/internal/server/repositories/repomanager"
)

const (
	minPasswordLength = 6
	refreshTokenBytes = 32
)

// PasswordHasher produces and checks stored password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
	VerifyDummy(plaintext string)
}

// TokenSigner issues and validates session tokens.
type TokenSigner interface {
	Issue(u models.User, ttl time.Duration) (string, time.Time, error)
	Validate(token string) (*models.User, error)
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	signer      TokenSigner
	log         logging.Logger

	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	writeTimeout                 time.Duration

	now           func() time.Time
	newRefreshTok func() (string, error)
}

func NewAuthService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	hasher PasswordHasher,
	signer TokenSigner,
	cfg *config.Config,
	log logging.Logger,
) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		hasher:                       hasher,
		signer:                       signer,
		log:                          log.With("module", "auth_service"),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		writeTimeout:                 cfg.WriteTimeout,
		now:                          func() time.Time { return time.Now().UTC() },
		newRefreshTok:                func() (string, error) { return common.MakeRandHexString(refreshTokenBytes) },
	}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// writeContext detaches ctx from the caller's cancellation and bounds it with
// the write timeout, so a dropped client cannot leave a write half done.
func (s *AuthService) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.writeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.writeTimeout)
}

// Login verifies the username/password pair and opens a session.
func (s *AuthService) Login(ctx context.Context, userName, password string) (*models.Session, error) {
	const op = "services.Login"
	log := s.log.With("op", op)

	if blank(userName) {
		return nil, validationError("username is required")
	}
	if blank(password) {
		return nil, validationError("password is required")
	}

	user, digest, err := s.repomanager.Users(s.db).ValidateUser(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			log.Info(ctx, "login rejected")
			return nil, common.ErrorUnauthorized
		}
		log.Error(ctx, "failed to load user", logging.Err(err))
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Verify(password, digest)
	if err != nil {
		log.Error(ctx, "stored digest unusable", "user_id", user.ID, logging.Err(err))
		return nil, common.ErrorInternal
	}
	if !ok {
		log.Info(ctx, "login rejected", "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	if err := s.repomanager.Users(s.db).UpdateLastLogin(wctx, user.ID, s.now()); err != nil {
		log.Warn(ctx, "failed to update last login", "user_id", user.ID, logging.Err(err))
	}

	session, err := s.openSession(wctx, s.repomanager.RefreshTokens(s.db), *user)
	if err != nil {
		log.Error(ctx, "failed to open session", "user_id", user.ID, logging.Err(err))
		return nil, common.ErrorInternal
	}

	log.Info(ctx, "login succeeded", "user_id", user.ID)
	return session, nil
}

// RefreshToken exchanges an active refresh token for a new session. The
// presented token is revoked; of several concurrent exchanges of the same
// token exactly one succeeds.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	const op = "services.RefreshToken"
	log := s.log.With("op", op)

	if blank(refreshToken) {
		return nil, validationError("refresh token is required")
	}

	rec, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenNotFound
		}
		log.Error(ctx, "failed to look up refresh token", logging.Err(err))
		return nil, common.ErrorInternal
	}

	now := s.now()
	switch {
	case rec.Expired(now):
		return nil, common.ErrRefreshTokenExpired
	case rec.Revoked:
		log.Warn(ctx, "revoked refresh token presented", "user_id", rec.UserID)
		return nil, common.ErrRefreshTokenRevoked
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			log.Warn(ctx, "refresh token owner missing", "user_id", rec.UserID)
			return nil, fmt.Errorf("user %d: %w", rec.UserID, common.ErrorNotFound)
		}
		log.Error(ctx, "failed to load user", "user_id", rec.UserID, logging.Err(err))
		return nil, common.ErrorInternal
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	var session *models.Session
	err = dbx.WithTx(wctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.RefreshTokens(tx)

		revoked, err := tokens.Revoke(ctx, refreshToken, now)
		if err != nil {
			return err
		}
		if !revoked {
			return common.ErrRefreshTokenRevoked
		}

		session, err = s.openSession(ctx, tokens, *user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenRevoked) {
			log.Warn(ctx, "refresh token lost rotation race", "user_id", user.ID)
			return nil, common.ErrRefreshTokenRevoked
		}
		log.Error(ctx, "failed to rotate refresh token", "user_id", user.ID, logging.Err(err))
		return nil, common.ErrorInternal
	}

	log.Info(ctx, "refresh token rotated", "user_id", user.ID)
	return session, nil
}

// ChangePassword replaces the user's password after checking the current
// one, then revokes every refresh token the user holds.
func (s *AuthService) ChangePassword(ctx context.Context, userName, oldPassword, newPassword, confirmPassword string) error {
	const op = "services.ChangePassword"
	log := s.log.With("op", op)

	switch {
	case blank(userName):
		return validationError("username is required")
	case blank(oldPassword):
		return validationError("current password is required")
	case blank(newPassword):
		return validationError("new password is required")
	case len(newPassword) < minPasswordLength:
		return validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	case newPassword != confirmPassword:
		return validationError("passwords do not match")
	case newPassword == oldPassword:
		return validationError("new password must differ from the current one")
	}

	users := s.repomanager.Users(s.db)

	user, err := users.GetUserByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("user %q: %w", userName, common.ErrorNotFound)
		}
		log.Error(ctx, "failed to load user", logging.Err(err))
		return common.ErrorInternal
	}

	digest, err := users.GetPasswordDigest(ctx, user.ID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.hasher.VerifyDummy(oldPassword)
		return common.ErrCurrentPasswordIncorrect
	case err != nil:
		log.Error(ctx, "failed to load password digest", "user_id", user.ID, logging.Err(err))
		return common.ErrorInternal
	}

	ok, err := s.hasher.Verify(oldPassword, digest)
	if err != nil {
		log.Error(ctx, "stored digest unusable", "user_id", user.ID, logging.Err(err))
		return common.ErrorInternal
	}
	if !ok {
		log.Info(ctx, "current password mismatch", "user_id", user.ID)
		return common.ErrCurrentPasswordIncorrect
	}

	newDigest, err := s.hasher.Hash(newPassword)
	if err != nil {
		log.Error(ctx, "failed to hash password", logging.Err(err))
		return common.ErrorInternal
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	now := s.now()
	var revoked int64
	err = dbx.WithTx(wctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePasswordDigest(ctx, user.ID, newDigest, now); err != nil {
			return fmt.Errorf("update digest: %w", err)
		}
		n, err := s.repomanager.RefreshTokens(tx).RevokeAll(ctx, user.ID, now)
		if err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		revoked = n
		return nil
	})
	if err != nil {
		log.Error(ctx, "failed to change password", "user_id", user.ID, logging.Err(err))
		return common.ErrorInternal
	}

	log.Info(ctx, "password changed", "user_id", user.ID, "revoked_tokens", revoked)
	return nil
}

// Logout revokes every refresh token of the user. Calling it again is a
// no-op.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	const op = "services.Logout"
	log := s.log.With("op", op)

	if userID <= 0 {
		return validationError("user id is required")
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	n, err := s.repomanager.RefreshTokens(s.db).RevokeAll(wctx, userID, s.now())
	if err != nil {
		log.Error(ctx, "failed to revoke sessions", "user_id", userID, logging.Err(err))
		return common.ErrorInternal
	}

	log.Info(ctx, "logged out", "user_id", userID, "revoked_tokens", n)
	return nil
}

// Authenticate validates a session token and returns the identity snapshot
// it carries.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if blank(token) {
		return nil, common.ErrInvalidToken
	}
	u, err := s.signer.Validate(token)
	if err != nil {
		s.log.Debug(ctx, "session token rejected", logging.Err(err))
		return nil, err
	}
	return u, nil
}

func (s *AuthService) openSession(ctx context.Context, tokens refreshtokens.Repository, user models.User) (*models.Session, error) {
	access, expiresAt, err := s.signer.Issue(user, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	refresh, err := s.newRefreshTok()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now()
	if _, err := tokens.Create(ctx, user.ID, refresh, now.Add(s.refreshTokenValidityDuration), now); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &models.Session{
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

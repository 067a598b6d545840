package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server/models"
)

func newCredentialService(f *fixture) *CredentialService {
	return NewCredentialService(f.svc.db, f.svc.repomanager, f.hasher, logging.Nop{})
}

func TestSetPassword_ExistingUser(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 7, "ana", "secret")
	ctx := context.Background()

	s, err := f.svc.Login(ctx, "ana", "secret")
	require.NoError(t, err)

	u, revoked, err := newCredentialService(f).SetPassword(ctx, "ana", "reset-123", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, int64(1), revoked)

	_, err = f.svc.RefreshToken(ctx, s.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenRevoked)

	_, err = f.svc.Login(ctx, "ana", "reset-123")
	assert.NoError(t, err)
}

func TestSetPassword_CreatesFromTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tmpl := &models.User{Email: "bob@example.com", RoleID: 1, RoleName: "admin"}
	u, revoked, err := newCredentialService(f).SetPassword(ctx, "bob", "hunter22", tmpl)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.UserName)
	assert.Equal(t, "admin", u.RoleName)
	assert.Zero(t, revoked)
	assert.Empty(t, tmpl.UserName, "template is not modified")

	s, err := f.svc.Login(ctx, "bob", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.User.ID)
}

func TestSetPassword_Rejections(t *testing.T) {
	f := newFixture(t)
	svc := newCredentialService(f)
	ctx := context.Background()

	_, _, err := svc.SetPassword(ctx, " ", "hunter22", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, _, err = svc.SetPassword(ctx, "bob", "short", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, _, err = svc.SetPassword(ctx, "ghost", "hunter22", nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.addUser(t, 7, "ana", "secret")
	f.faults.revokeAllErr = errBoom
	_, _, err = svc.SetPassword(ctx, "ana", "hunter22", nil)
	assert.ErrorIs(t, err, errBoom)
}

func TestSetPassword_UsesClock(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 7, "ana", "secret")
	svc := newCredentialService(f)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return at }

	s, err := f.svc.Login(context.Background(), "ana", "secret")
	require.NoError(t, err)

	_, _, err = svc.SetPassword(context.Background(), "ana", "reset-123", nil)
	require.NoError(t, err)

	rec, err := f.tokens.Find(context.Background(), s.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, rec.RevokedAt)
	assert.True(t, rec.RevokedAt.Equal(at))
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	_ "modernc.org/sqlite"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/cryptox"
	"github.com/romcom/romcom-auth/internal/dbx"
	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server/auth"
	"github.com/romcom/romcom-auth/internal/server/config"
	"github.com/romcom/romcom-auth/internal/server/models"
	"github.com/romcom/romcom-auth/internal/server/repositories/refreshtokens"
	"github.com/romcom/romcom-auth/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// memUsers is an in-memory users.Repository with error injection.
type memUsers struct {
	mu      sync.Mutex
	byID    map[int64]*models.User
	digests map[int64]string

	validateErr   error
	getErr        error
	digestErr     error
	updateErr     error
	lastLoginErr  error
	countErr      error
	lastLoginSeen map[int64]time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{
		byID:          make(map[int64]*models.User),
		digests:       make(map[int64]string),
		lastLoginSeen: make(map[int64]time.Time),
	}
}

func (m *memUsers) add(u models.User, digest string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := u
	m.byID[u.ID] = &cp
	if digest != "" {
		m.digests[u.ID] = digest
	}
}

func (m *memUsers) byName(name string) *models.User {
	for _, u := range m.byID {
		if u.UserName == name {
			return u
		}
	}
	return nil
}

func (m *memUsers) ValidateUser(_ context.Context, userName string) (*models.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validateErr != nil {
		return nil, "", m.validateErr
	}
	u := m.byName(userName)
	if u == nil {
		return nil, "", common.ErrorNotFound
	}
	d, ok := m.digests[u.ID]
	if !ok {
		return nil, "", common.ErrorNotFound
	}
	cp := *u
	return &cp, d, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetUserByUserName(_ context.Context, userName string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u := m.byName(userName)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetPasswordDigest(_ context.Context, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.digestErr != nil {
		return "", m.digestErr
	}
	d, ok := m.digests[userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return d, nil
}

func (m *memUsers) UpdatePasswordDigest(ctx context.Context, userID int64, digest string, _ time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.digests[userID] = digest
	return nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastLoginErr != nil {
		return m.lastLoginErr
	}
	m.lastLoginSeen[userID] = at
	return nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = int64(len(m.byID) + 1)
	cp := *u
	m.byID[u.ID] = &cp
	return u, nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.byID)), nil
}

// faultyTokens wraps a store and fails selected operations.
type faultyTokens struct {
	refreshtokens.Repository
	findErr      error
	createErr    error
	revokeErr    error
	revokeAllErr error
}

func (f *faultyTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.Repository.Find(ctx, token)
}

func (f *faultyTokens) Create(ctx context.Context, userID int64, token string, exp, created time.Time) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	return f.Repository.Create(ctx, userID, token, exp, created)
}

func (f *faultyTokens) Revoke(ctx context.Context, token string, at time.Time) (bool, error) {
	if f.revokeErr != nil {
		return false, f.revokeErr
	}
	return f.Repository.Revoke(ctx, token, at)
}

func (f *faultyTokens) RevokeAll(ctx context.Context, userID int64, at time.Time) (int64, error) {
	if f.revokeAllErr != nil {
		return 0, f.revokeAllErr
	}
	return f.Repository.RevokeAll(ctx, userID, at)
}

type fakeRepoManager struct {
	u *memUsers
	r refreshtokens.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }

// newTxDB returns a real database handle so dbx.WithTx can begin and commit.
// The fakes ignore it.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var testHasherParams = cryptox.Params{Memory: 64, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

type fixture struct {
	svc    *AuthService
	users  *memUsers
	tokens *refreshtokens.MemoryRepository
	faults *faultyTokens
	hasher *cryptox.Hasher
	signer *auth.Signer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	h, err := cryptox.NewHasher(testHasherParams)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	signer, err := auth.NewSigner("test-secret")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()

	f := &fixture{
		users:  newMemUsers(),
		tokens: refreshtokens.NewMemoryRepository(),
		hasher: h,
		signer: signer,
	}
	f.faults = &faultyTokens{Repository: f.tokens}

	f.svc = NewAuthService(newTxDB(t), &fakeRepoManager{u: f.users, r: f.faults}, h, signer, cfg, logging.Nop{})
	return f
}

func (f *fixture) addUser(t *testing.T, id int64, name, password string) models.User {
	t.Helper()
	d, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := models.User{
		ID:       id,
		UserName: name,
		Email:    gofakeit.Email(),
		RoleID:   2,
		RoleName: "member",
	}
	f.users.add(u, d)
	return u
}

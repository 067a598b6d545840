package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romcom/romcom-auth/internal/client/client"
	"github.com/romcom/romcom-auth/internal/server/models"
)

type fakeClient struct {
	loggedIn  bool
	gotUser   string
	gotPw     string
	changeArg []string
	loginErr  error
	refreshE  error
	closed    bool
	deadline  bool
}

func (f *fakeClient) Login(ctx context.Context, user, pw string) (*models.User, error) {
	_, f.deadline = ctx.Deadline()
	f.gotUser, f.gotPw = user, pw
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.loggedIn = true
	return &models.User{ID: 7, UserName: user, RoleName: "member"}, nil
}

func (f *fakeClient) Refresh(context.Context) error { return f.refreshE }

func (f *fakeClient) CurrentUser(context.Context) (*models.User, error) {
	return &models.User{ID: 7, UserName: "ana", Email: "ana@example.com", RoleName: "member"}, nil
}

func (f *fakeClient) ChangePassword(_ context.Context, old, newPwd, confirm string) error {
	f.changeArg = []string{old, newPwd, confirm}
	return nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.loggedIn = false
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func (f *fakeClient) LoggedIn() bool { return f.loggedIn }

func newTestApp(c AuthClient, input string, secrets ...string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	a := newApp(c, strings.NewReader(input), &out, time.Second)
	a.readSecret = func(string) (string, error) {
		if len(secrets) == 0 {
			return "", errors.New("no more secrets")
		}
		s := secrets[0]
		secrets = secrets[1:]
		return s, nil
	}
	return a, &out
}

func TestLogin(t *testing.T) {
	f := &fakeClient{}
	a, out := newTestApp(f, "ana\n", "secret")

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, "ana", f.gotUser)
	assert.Equal(t, "secret", f.gotPw)
	assert.True(t, f.deadline)
	assert.Equal(t, "ana", a.status())
	assert.Contains(t, out.String(), "Logged in as ana (id=7, role=member)")
}

func TestLogin_Failure(t *testing.T) {
	f := &fakeClient{loginErr: fmt.Errorf("%w: invalid credentials", client.ErrUnauthorized)}
	a, out := newTestApp(f, "ana\n", "nope")

	require.ErrorIs(t, a.Login(context.Background()), client.ErrUnauthorized)
	assert.Equal(t, "anonymous", a.status())
	assert.Contains(t, out.String(), "Login unsuccessful")
}

func TestChangePassword_ReadsThreeSecrets(t *testing.T) {
	f := &fakeClient{loggedIn: true}
	a, _ := newTestApp(f, "", "secret", "newpass1", "newpass1")

	require.NoError(t, a.ChangePassword(context.Background()))
	assert.Equal(t, []string{"secret", "newpass1", "newpass1"}, f.changeArg)
}

func TestChangePassword_PromptError(t *testing.T) {
	f := &fakeClient{loggedIn: true}
	a, _ := newTestApp(f, "", "secret")

	require.Error(t, a.ChangePassword(context.Background()))
	assert.Nil(t, f.changeArg)
}

func TestRefresh_UnauthorizedForgetsUser(t *testing.T) {
	f := &fakeClient{refreshE: fmt.Errorf("%w: refresh token revoked", client.ErrUnauthorized)}
	a, out := newTestApp(f, "")
	a.userName = "ana"

	require.Error(t, a.Refresh(context.Background()))
	assert.Equal(t, "anonymous", a.status())
	assert.Contains(t, out.String(), "refresh token revoked")
}

func TestRun_Session(t *testing.T) {
	f := &fakeClient{}
	a, out := newTestApp(f, "login\nana\nwhoami\nlogout\nexit\n", "secret")

	a.Run(context.Background())

	assert.True(t, f.closed)
	assert.False(t, f.loggedIn)
	assert.Contains(t, out.String(), "id=7 username=ana email=ana@example.com role=member")
	assert.Contains(t, out.String(), "Logged out")
	assert.Contains(t, out.String(), "Bye!")
}

// Package cli implements the interactive romcom-auth client.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/romcom/romcom-auth/internal/client/client"
	"github.com/romcom/romcom-auth/internal/client/config"
	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/prompt"
	"github.com/romcom/romcom-auth/internal/server/models"
)

// AuthClient is the remote API the CLI drives.
type AuthClient interface {
	Login(ctx context.Context, userName, password string) (*models.User, error)
	Refresh(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) error
	Logout(ctx context.Context) error
	LoggedIn() bool
	Close() error
}

type App struct {
	client   AuthClient
	reader   *bufio.Reader
	out      io.Writer
	timeout  time.Duration
	userName string

	// readSecret reads a value without echo.
	readSecret func(label string) (string, error)
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return newApp(apiClient, os.Stdin, os.Stdout, c.RequestTimeout), nil
}

func newApp(c AuthClient, in io.Reader, out io.Writer, timeout time.Duration) *App {
	a := &App{
		client:  c,
		reader:  bufio.NewReader(in),
		out:     out,
		timeout: timeout,
	}
	a.readSecret = func(label string) (string, error) {
		pw, err := prompt.GetPassword(a.out, label)
		if err != nil {
			return "", err
		}
		defer common.WipeByteArray(pw)
		return string(pw), nil
	}
	return a
}

func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) status() string {
	if a.userName == "" {
		return "anonymous"
	}
	return a.userName
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// Run starts the REPL and closes the connection when it ends.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()
	a.printf("romcom-auth client (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader, a.out)
}

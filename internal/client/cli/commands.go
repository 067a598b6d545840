package cli

import (
	"context"
	"errors"

	"github.com/romcom/romcom-auth/internal/client/client"
	"github.com/romcom/romcom-auth/internal/prompt"
)

func (a *App) Login(ctx context.Context) error {
	userName, err := prompt.GetSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret("Enter password")
	if err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	u, err := a.client.Login(ctx, userName, password)
	if err != nil {
		a.printf("Login unsuccessful: %v", err)
		return err
	}

	a.userName = u.UserName
	a.printf("Logged in as %s (id=%d, role=%s)", u.UserName, u.ID, u.RoleName)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	u, err := a.client.CurrentUser(ctx)
	if err != nil {
		a.printf("error: %v", err)
		return err
	}
	a.printf("id=%d username=%s email=%s role=%s", u.ID, u.UserName, u.Email, u.RoleName)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	if err := a.client.Refresh(ctx); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.userName = ""
		}
		a.printf("Refresh unsuccessful: %v", err)
		return err
	}
	a.printf("Session refreshed")
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	oldPassword, err := a.readSecret("Current password")
	if err != nil {
		return err
	}
	newPassword, err := a.readSecret("New password")
	if err != nil {
		return err
	}
	confirm, err := a.readSecret("Confirm new password")
	if err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	if err := a.client.ChangePassword(ctx, oldPassword, newPassword, confirm); err != nil {
		a.printf("Password change unsuccessful: %v", err)
		return err
	}
	a.printf("Password changed; other sessions were signed out")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	if err := a.client.Logout(ctx); err != nil {
		a.printf("Logout unsuccessful: %v", err)
		return err
	}
	a.userName = ""
	a.printf("Logged out")
	return nil
}

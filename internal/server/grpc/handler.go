package grpc

import (
	"context"

	"google.golang.org/grpc/status"

	"github.com/romcom/romcom-auth/internal/authapi"
	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/server/results"
)

type handler struct {
	auth AuthService
}

func toStatus(err error) error {
	c := results.Classify(err)
	return status.Error(c.Code, c.Message)
}

func (h *handler) Login(ctx context.Context, req *authapi.LoginRequest) (*authapi.SessionResponse, error) {
	s, err := h.auth.Login(ctx, req.UserName, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return s, nil
}

func (h *handler) RefreshToken(ctx context.Context, req *authapi.RefreshTokenRequest) (*authapi.SessionResponse, error) {
	s, err := h.auth.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return s, nil
}

func (h *handler) ChangePassword(ctx context.Context, req *authapi.ChangePasswordRequest) (*authapi.Empty, error) {
	u, ok := userFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrInvalidToken)
	}
	if err := h.auth.ChangePassword(ctx, u.UserName, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return nil, toStatus(err)
	}
	return &authapi.Empty{}, nil
}

func (h *handler) Logout(ctx context.Context, _ *authapi.Empty) (*authapi.Empty, error) {
	u, ok := userFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrInvalidToken)
	}
	if err := h.auth.Logout(ctx, u.ID); err != nil {
		return nil, toStatus(err)
	}
	return &authapi.Empty{}, nil
}

func (h *handler) GetCurrentUser(ctx context.Context, _ *authapi.Empty) (*authapi.UserResponse, error) {
	u, ok := userFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrInvalidToken)
	}
	return u, nil
}

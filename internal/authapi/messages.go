package authapi

import "github.com/romcom/romcom-auth/internal/server/models"

type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type Empty struct{}

// SessionResponse is returned by Login and RefreshToken.
type SessionResponse = models.Session

// UserResponse is returned by GetCurrentUser.
type UserResponse = models.User

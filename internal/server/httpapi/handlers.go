package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server/results"
)

type handler struct {
	svc AuthService
	log logging.Logger
}

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *handler) badBody(c *gin.Context, err error) {
	h.log.Debug(c.Request.Context(), "request body rejected", logging.Err(err))
	respondError(c, fmt.Errorf("%w: invalid request body", common.ErrorValidation))
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	s, err := h.svc.Login(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, results.Success(s))
}

func (h *handler) refreshToken(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	s, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, results.Success(s))
}

func (h *handler) changePassword(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		respondError(c, common.ErrInvalidToken)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), u.UserName, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		respondError(c, err)
		return
	}
	respond(c, results.Success(true))
}

func (h *handler) logout(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		respondError(c, common.ErrInvalidToken)
		return
	}

	if err := h.svc.Logout(c.Request.Context(), u.ID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, results.Success(true))
}

func (h *handler) currentUser(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		respondError(c, common.ErrInvalidToken)
		return
	}
	respond(c, results.Success(u))
}

// databaseHealth reports the raw health document rather than an envelope.
func (h *handler) databaseHealth(c *gin.Context) {
	health, err := h.svc.CheckDatabase(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, health)
		return
	}
	c.JSON(http.StatusOK, health)
}

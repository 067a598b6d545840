// Package httpapi exposes the auth service over HTTP using gin.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server/models"
	"github.com/romcom/romcom-auth/internal/server/services"
)

// AuthService is the part of services.AuthService the HTTP layer needs.
type AuthService interface {
	Login(ctx context.Context, userName, password string) (*models.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	ChangePassword(ctx context.Context, userName, oldPassword, newPassword, confirmPassword string) error
	Logout(ctx context.Context, userID int64) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
	CheckDatabase(ctx context.Context) (*services.DatabaseHealth, error)
}

// NewRouter constructs the gin engine with the auth routes wired.
func NewRouter(svc AuthService, log logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(log), Recovery(log))

	h := &handler{svc: svc, log: log}

	api := r.Group("/api/Auth")
	{
		api.POST("/Login", h.login)
		api.POST("/RefreshToken", h.refreshToken)
		api.GET("/health/database", h.databaseHealth)

		authed := api.Group("", BearerAuth(svc))
		authed.POST("/ChangePassword", h.changePassword)
		authed.POST("/Logout", h.logout)
		authed.GET("/GetCurrentUser", h.currentUser)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "route not found", "statusCode": http.StatusNotFound})
	})

	return r
}

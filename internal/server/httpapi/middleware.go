package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server/models"
	"github.com/romcom/romcom-auth/internal/server/results"
)

const userKey = "user"

// RequestLogger tags each request with an id and logs one line when it is done.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(common.RequestIDHeaderName, id)

		start := time.Now()
		c.Next()

		log.Info(c.Request.Context(), "http request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Recovery turns a panic into a 500 envelope.
func Recovery(log logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error(c.Request.Context(), "panic while serving request",
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, results.Failure(common.ErrorInternal))
	})
}

// BearerAuth validates "Authorization: Bearer <token>" and stores the
// identity snapshot under the user key.
func BearerAuth(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			respondError(c, common.ErrInvalidToken)
			c.Abort()
			return
		}

		u, err := svc.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(userKey, u)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

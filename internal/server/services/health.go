package services

import (
	"context"
	"time"

	"github.com/romcom/romcom-auth/internal/logging"
)

// DatabaseHealth is reported by the database health endpoint.
type DatabaseHealth struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	UserCount int64     `json:"userCount"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// CheckDatabase pings the database and counts users.
func (s *AuthService) CheckDatabase(ctx context.Context) (*DatabaseHealth, error) {
	h := &DatabaseHealth{Timestamp: s.now()}

	err := s.db.PingContext(ctx)
	if err == nil {
		h.UserCount, err = s.repomanager.Users(s.db).Count(ctx)
	}
	if err != nil {
		s.log.Error(ctx, "database health check failed", logging.Err(err))
		h.Status = "error"
		h.Message = "Database connection failed"
		h.Error = err.Error()
		return h, err
	}

	h.Status = "success"
	h.Message = "Database connection is working"
	return h, nil
}

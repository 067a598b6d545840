// Package results renders service outcomes as the uniform response envelope
// shared by the HTTP and gRPC transports.
package results

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/romcom/romcom-auth/internal/common"
)

const (
	messageSuccess  = "Success"
	messageInternal = "An error occurred"
)

// Result is built fresh for each call. Data is set only on success.
type Result struct {
	Status     bool   `json:"status"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	StatusCode int    `json:"statusCode"`
}

func Success(data any) Result {
	return Result{
		Status:     true,
		Message:    messageSuccess,
		Data:       data,
		StatusCode: http.StatusOK,
	}
}

// Failure maps err to an envelope. Internal failures get a generic message;
// the caller is expected to have logged the cause.
func Failure(err error) Result {
	c := Classify(err)
	return Result{
		Status:     false,
		Message:    c.Message,
		StatusCode: c.HTTPStatus,
	}
}

// Class is the transport-facing view of an error.
type Class struct {
	HTTPStatus int
	Code       codes.Code
	Message    string
}

var authSentinels = []error{
	common.ErrorUnauthorized,
	common.ErrCurrentPasswordIncorrect,
	common.ErrRefreshTokenNotFound,
	common.ErrRefreshTokenRevoked,
	common.ErrRefreshTokenExpired,
	common.ErrTokenExpired,
	common.ErrInvalidToken,
}

func Classify(err error) Class {
	switch {
	case err == nil:
		return Class{HTTPStatus: http.StatusOK, Code: codes.OK, Message: messageSuccess}
	case errors.Is(err, common.ErrorValidation):
		return Class{HTTPStatus: http.StatusBadRequest, Code: codes.InvalidArgument, Message: err.Error()}
	case common.IsAuthError(err):
		// report the sentinel text only, never wrapped detail
		msg := common.ErrorUnauthorized.Error()
		for _, s := range authSentinels {
			if errors.Is(err, s) {
				msg = s.Error()
				break
			}
		}
		return Class{HTTPStatus: http.StatusUnauthorized, Code: codes.Unauthenticated, Message: msg}
	case errors.Is(err, common.ErrorNotFound):
		return Class{HTTPStatus: http.StatusNotFound, Code: codes.NotFound, Message: common.ErrorNotFound.Error()}
	default:
		return Class{HTTPStatus: http.StatusInternalServerError, Code: codes.Internal, Message: messageInternal}
	}
}

package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/romcom/romcom-auth/internal/authapi"
	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

var protectedMethods = map[string]bool{
	authapi.ChangePasswordFullMethodName: true,
	authapi.LogoutFullMethodName:         true,
	authapi.GetCurrentUserFullMethodName: true,
}

func firstMetadata(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if protectedMethods[info.FullMethod] {

		accessToken := firstMetadata(ctx, common.AccessTokenHeaderName)
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		u, err := s.auth.Authenticate(ctx, accessToken)
		if err != nil {
			return nil, toStatus(err)
		}

		ctx = context.WithValue(ctx, userKey, u)
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	id := firstMetadata(ctx, common.RequestIDHeaderName)
	if id == "" {
		id = uuid.NewString()
	}

	start := time.Now()
	resp, err := handler(ctx, req)

	s.logger.Info(ctx, "grpc request",
		"request_id", id,
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}

func (s *GRPCServer) recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "panic while serving request", "method", info.FullMethod, "panic", r)
			err = toStatus(common.ErrorInternal)
		}
	}()
	return handler(ctx, req)
}

func userFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

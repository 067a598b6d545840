// Package grpc serves the auth service over gRPC.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/romcom/romcom-auth/internal/authapi"
	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server/models"
)

// AuthService is the part of services.AuthService the gRPC layer needs.
type AuthService interface {
	Login(ctx context.Context, userName, password string) (*models.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	ChangePassword(ctx context.Context, userName, oldPassword, newPassword, confirmPassword string) error
	Logout(ctx context.Context, userID int64) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type GRPCServer struct {
	address string
	auth    AuthService
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, svc AuthService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    svc,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		s.recoveryInterceptor,
		s.accessTokenInterceptor,
	))
	authapi.RegisterAuthServiceServer(srv, &handler{auth: s.auth})
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	return srv.Serve(listen)
}

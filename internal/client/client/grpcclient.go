package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/romcom/romcom-auth/internal/authapi"
	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/server/models"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      authapi.AuthServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setSession(sess *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil {
		s.accessToken, s.refreshToken = "", ""
		return
	}
	s.accessToken, s.refreshToken = sess.Token, sess.RefreshToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if method == authapi.LoginFullMethodName || method == authapi.RefreshTokenFullMethodName {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	accessToken, refreshToken := s.tokens()

	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refreshToken == "" {
		return err
	}

	sess, rerr := s.client.RefreshToken(ctx, &authapi.RefreshTokenRequest{RefreshToken: refreshToken})
	if rerr != nil {
		return rerr
	}
	s.setSession(sess)

	// retry once with the rotated token
	return invoker(withAccessToken(ctx, sess.Token), method, req, reply, cc, opts...)
}

// NewGRPCClient dials endpointURL. Extra options are appended to the
// defaults, which use plaintext transport.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(c.endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = authapi.NewAuthServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Login(ctx context.Context, userName, password string) (*models.User, error) {
	sess, err := s.client.Login(ctx, &authapi.LoginRequest{UserName: userName, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.setSession(sess)
	return &sess.User, nil
}

// Refresh rotates the refresh token explicitly.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	_, refreshToken := s.tokens()
	if refreshToken == "" {
		return ErrNotLoggedIn
	}
	sess, err := s.client.RefreshToken(ctx, &authapi.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return s.mapError(err)
	}
	s.setSession(sess)
	return nil
}

func (s *GRPCClient) CurrentUser(ctx context.Context) (*models.User, error) {
	u, err := s.client.GetCurrentUser(ctx, &authapi.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

func (s *GRPCClient) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) error {
	_, err := s.client.ChangePassword(ctx, &authapi.ChangePasswordRequest{
		OldPassword:     oldPassword,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	})
	if err != nil {
		return s.mapError(err)
	}
	// every refresh token was revoked server-side
	s.mu.Lock()
	s.refreshToken = ""
	s.mu.Unlock()
	return nil
}

func (s *GRPCClient) Logout(ctx context.Context) error {
	if _, err := s.client.Logout(ctx, &authapi.Empty{}); err != nil {
		return s.mapError(err)
	}
	s.setSession(nil)
	return nil
}

func (s *GRPCClient) LoggedIn() bool {
	access, _ := s.tokens()
	return access != ""
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

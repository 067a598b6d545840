package authapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "romcom.auth.AuthService"

const (
	LoginFullMethodName          = "/" + ServiceName + "/Login"
	RefreshTokenFullMethodName   = "/" + ServiceName + "/RefreshToken"
	ChangePasswordFullMethodName = "/" + ServiceName + "/ChangePassword"
	LogoutFullMethodName         = "/" + ServiceName + "/Logout"
	GetCurrentUserFullMethodName = "/" + ServiceName + "/GetCurrentUser"
)

// AuthServiceServer is implemented by the gRPC transport.
type AuthServiceServer interface {
	Login(context.Context, *LoginRequest) (*SessionResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*SessionResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*Empty, error)
	Logout(context.Context, *Empty) (*Empty, error)
	GetCurrentUser(context.Context, *Empty) (*UserResponse, error)
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

// unary builds a method handler that decodes Req and calls fn, going through
// the server interceptor chain when one is configured.
func unary[Req any, Resp any](
	fullMethod string,
	fn func(AuthServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Login",
			Handler:    unary(LoginFullMethodName, AuthServiceServer.Login),
		},
		{
			MethodName: "RefreshToken",
			Handler:    unary(RefreshTokenFullMethodName, AuthServiceServer.RefreshToken),
		},
		{
			MethodName: "ChangePassword",
			Handler:    unary(ChangePasswordFullMethodName, AuthServiceServer.ChangePassword),
		},
		{
			MethodName: "Logout",
			Handler:    unary(LogoutFullMethodName, AuthServiceServer.Logout),
		},
		{
			MethodName: "GetCurrentUser",
			Handler:    unary(GetCurrentUserFullMethodName, AuthServiceServer.GetCurrentUser),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "romcom/auth.json",
}

// Package client contains the client-side gRPC binding of the auth service.
//
// # Overview
//
// GRPCClient manages a connection, keeps the current session token and
// refresh token, injects the session token via an interceptor and
// transparently rotates it when the server reports "token expired".
//
// # Error Handling
//
// gRPC status codes are mapped to sentinel errors that callers can match with
// errors.Is: ErrUnauthorized, ErrUnavailable, ErrInvalidInput. The server's
// message is kept in the wrapped error text.
//
// # Concurrency
//
// Token state is guarded by a mutex; a GRPCClient may be shared between
// goroutines.
package client

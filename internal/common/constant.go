package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on inbound requests.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName carries the per-request id on HTTP responses and
// gRPC metadata.
const RequestIDHeaderName = "x-request-id"

// Package client is the remote half of authentication: a gRPC client of the
// identity service.
//
// # Overview
//
// GRPCClient implements Client. It keeps the access/refresh token pair of the
// signed-in account, attaches the access token to every call through an
// interceptor and transparently refreshes it when the server reports it as
// expired.
//
// After SignIn or SignUp the client opens the WatchIdentity stream so that
// sign-outs and profile changes made elsewhere reach local subscribers. The
// stream ends silently on error; the next sign-in opens a new one.
//
// # Error Handling
//
// gRPC status codes are mapped to the sentinels in internal/common
// (ErrUserNotFound, ErrWrongCredential, ErrDuplicateAccount, ErrRateLimited,
// ErrNetworkUnavailable); anything else wraps ErrUnknown.
package client

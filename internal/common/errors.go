package common

import "errors"

// Authentication taxonomy. Every failure surfaced to the form layer wraps
// exactly one of these values; callers match them with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrPinMismatch        = errors.New("pin mismatch")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongCredential    = errors.New("wrong credential")
	ErrDuplicateAccount   = errors.New("duplicate account")
	ErrRateLimited        = errors.New("rate limited")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrUnknown            = errors.New("unknown error")
)

var (
	// ErrNoSession means there is no authenticated identity and the caller
	// has to be sent to the login surface.
	ErrNoSession = errors.New("no session")

	// ErrBackendUnavailable is returned by the capability probe when the
	// remote identity service cannot be used.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrNotInitialized is returned by lifecycle-bound components that are
	// used before Init or after Shutdown.
	ErrNotInitialized = errors.New("not initialized")
)

// Repository and token errors used by the identity server.
var (
	ErrorNotFound          = errors.New("not found")
	ErrorInternal          = errors.New("internal error")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// ErrorKind is the stable, user-facing code of an authentication failure.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "INVALID_INPUT"
	KindPinMismatch        ErrorKind = "PIN_MISMATCH"
	KindUserNotFound       ErrorKind = "USER_NOT_FOUND"
	KindWrongCredential    ErrorKind = "WRONG_CREDENTIAL"
	KindDuplicateAccount   ErrorKind = "DUPLICATE_ACCOUNT"
	KindRateLimited        ErrorKind = "RATE_LIMITED"
	KindNetworkUnavailable ErrorKind = "NETWORK_UNAVAILABLE"
	KindUnknown            ErrorKind = "UNKNOWN"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrPinMismatch, KindPinMismatch},
	{ErrUserNotFound, KindUserNotFound},
	{ErrWrongCredential, KindWrongCredential},
	{ErrDuplicateAccount, KindDuplicateAccount},
	{ErrRateLimited, KindRateLimited},
	{ErrNetworkUnavailable, KindNetworkUnavailable},
}

// KindOf classifies err into the fixed taxonomy. Anything that does not wrap
// one of the known sentinels is KindUnknown.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// Classified reports whether err already belongs to the taxonomy.
func Classified(err error) bool {
	return err != nil && (KindOf(err) != KindUnknown || errors.Is(err, ErrUnknown))
}

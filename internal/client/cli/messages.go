package cli

import (
	"errors"

	"github.com/dmitrijs2005/pinsession/internal/common"
)

// Form identifies which form a message belongs to; the generic failure text
// differs between them.
type Form int

const (
	FormLogin Form = iota
	FormSignup
)

const (
	MsgFillAllFields   = "PLEASE_FILL_ALL_FIELDS"
	MsgInvalidInput    = "INVALID_INPUT_FORMAT_(USERNAME:_3-20_CHARS,_PIN:_4_DIGITS)"
	MsgPinMismatch     = "PINS_DO_NOT_MATCH"
	MsgUserNotFound    = "USER_NOT_FOUND_PLEASE_REGISTER"
	MsgInvalidPin      = "INVALID_PIN"
	MsgUsernameTaken   = "USERNAME_ALREADY_EXISTS"
	MsgTooManyAttempts = "TOO_MANY_ATTEMPTS_TRY_LATER"
	MsgNetworkError    = "NETWORK_ERROR_CHECK_CONNECTION"
	MsgLoginFailed     = "LOGIN_FAILED"
	MsgSignupFailed    = "ACCOUNT_CREATION_FAILED"
	MsgAccessGranted   = "ACCESS_GRANTED_REDIRECTING..."
	MsgAccountCreated  = "ACCOUNT_CREATED_REDIRECTING..."
	MsgSessionRequired = "SESSION_EXPIRED_PLEASE_LOGIN"
	MsgLoggedOut       = "SESSION_TERMINATED"
)

var messages = map[common.ErrorKind]string{
	common.KindInvalidInput:       MsgInvalidInput,
	common.KindPinMismatch:        MsgPinMismatch,
	common.KindUserNotFound:       MsgUserNotFound,
	common.KindWrongCredential:    MsgInvalidPin,
	common.KindDuplicateAccount:   MsgUsernameTaken,
	common.KindRateLimited:        MsgTooManyAttempts,
	common.KindNetworkUnavailable: MsgNetworkError,
}

// MessageFor returns the fixed user-facing text for err on form.
func MessageFor(err error, form Form) string {
	if errors.Is(err, common.ErrNoSession) {
		return MsgSessionRequired
	}
	if msg, ok := messages[common.KindOf(err)]; ok {
		return msg
	}
	if form == FormSignup {
		return MsgSignupFailed
	}
	return MsgLoginFailed
}

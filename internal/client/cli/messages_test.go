package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/pinsession/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestMessageFor(t *testing.T) {
	tests := []struct {
		err  error
		form Form
		want string
	}{
		{common.ErrInvalidInput, FormLogin, MsgInvalidInput},
		{common.ErrPinMismatch, FormSignup, MsgPinMismatch},
		{common.ErrUserNotFound, FormLogin, MsgUserNotFound},
		{common.ErrWrongCredential, FormLogin, MsgInvalidPin},
		{common.ErrDuplicateAccount, FormSignup, MsgUsernameTaken},
		{common.ErrRateLimited, FormLogin, MsgTooManyAttempts},
		{fmt.Errorf("dial: %w", common.ErrNetworkUnavailable), FormSignup, MsgNetworkError},
		{common.ErrNoSession, FormLogin, MsgSessionRequired},
		{errors.New("boom"), FormLogin, MsgLoginFailed},
		{errors.New("boom"), FormSignup, MsgSignupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, MessageFor(tt.err, tt.form))
		})
	}
}

// Package cryptox derives and checks PIN verifiers.
//
// A PIN is never stored. Both the device-local user table and the identity
// server keep an argon2id verifier together with its random salt.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pinsession/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 16
	KeySize  = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4

	recordPrefix = "argon2id"
)

// ErrMalformedRecord is returned when an encoded verifier cannot be parsed.
var ErrMalformedRecord = errors.New("malformed pin record")

// DeriveVerifier stretches secret with salt using argon2id.
func DeriveVerifier(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, KeySize)
}

// CheckVerifier compares a stored verifier with one derived from candidate
// in constant time.
func CheckVerifier(verifier []byte, candidate []byte, salt []byte) bool {
	derived := DeriveVerifier(candidate, salt)
	defer common.WipeByteArray(derived)
	return subtle.ConstantTimeCompare(verifier, derived) == 1
}

// HashPin returns an opaque, self-describing record
// "argon2id$<salt>$<verifier>" suitable for storing as a string.
func HashPin(pin string) string {
	salt := common.GenerateRandByteArray(SaltSize)
	verifier := DeriveVerifier([]byte(pin), salt)
	enc := base64.RawStdEncoding
	return strings.Join([]string{recordPrefix, enc.EncodeToString(salt), enc.EncodeToString(verifier)}, "$")
}

// VerifyPin reports whether pin matches a record produced by HashPin.
func VerifyPin(record string, pin string) (bool, error) {
	parts := strings.Split(record, "$")
	if len(parts) != 3 || parts[0] != recordPrefix {
		return false, ErrMalformedRecord
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", ErrMalformedRecord, err)
	}
	verifier, err := enc.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("%w: verifier: %v", ErrMalformedRecord, err)
	}
	return CheckVerifier(verifier, []byte(pin), salt), nil
}

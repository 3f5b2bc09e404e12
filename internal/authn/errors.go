// Package authn holds the authentication primitives of the backend: password
// hashing, signed session tokens, sign-in throttling and the classified error
// codes surfaced to clients.
package authn

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies an authentication failure.
type Code string

const (
	CodeEmailInUse          Code = "auth/email-already-in-use"
	CodeInvalidEmail        Code = "auth/invalid-email"
	CodeWeakPassword        Code = "auth/weak-password"
	CodeUserNotFound        Code = "auth/user-not-found"
	CodeWrongPassword       Code = "auth/wrong-password"
	CodeTooManyRequests     Code = "auth/too-many-requests"
	CodeNetworkFailed       Code = "auth/network-request-failed"
	CodeInvalidCredential   Code = "auth/invalid-credential"
	CodeRequiresRecentLogin Code = "auth/requires-recent-login"
	CodeUnauthenticated     Code = "auth/unauthenticated"
)

// Error is a classified authentication error.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Errorf builds an *Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Parse recovers an *Error from its string form "auth/<code>: <message>".
func Parse(s string) (*Error, bool) {
	code, msg, ok := strings.Cut(s, ": ")
	if !ok || !strings.HasPrefix(code, "auth/") {
		return nil, false
	}
	return &Error{Code: Code(code), Message: msg}, true
}

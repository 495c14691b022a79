package auth

import (
	"errors"
	"fmt"
)

// Identity-provider error codes.
const (
	CodeEmailInUse      = "auth/email-already-in-use"
	CodeInvalidEmail    = "auth/invalid-email"
	CodeWeakPassword    = "auth/weak-password"
	CodeUserNotFound    = "auth/user-not-found"
	CodeWrongPassword   = "auth/wrong-password"
	CodeInvalidCred     = "auth/invalid-credential"
	CodeTooManyRequests = "auth/too-many-requests"
	CodeNetworkFailed   = "auth/network-request-failed"
)

var (
	// ErrPasswordMismatch is returned by sign-up when the confirmation differs.
	ErrPasswordMismatch = errors.New("passwords don't match")
	// ErrNoSession means the presented token is missing, unknown or signed out.
	ErrNoSession = errors.New("no active session")
)

// ProviderError is a failure reported by the identity provider.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func providerErr(code, msg string) error {
	return &ProviderError{Code: code, Message: msg}
}

var messages = map[string]string{
	CodeEmailInUse:      "An account with this email already exists.",
	CodeInvalidEmail:    "Please enter a valid email address.",
	CodeWeakPassword:    "Password should be at least 6 characters.",
	CodeUserNotFound:    "No account found with this email.",
	CodeWrongPassword:   "Incorrect password. Please try again.",
	CodeInvalidCred:     "Invalid email or password.",
	CodeTooManyRequests: "Too many failed attempts. Please try again later.",
	CodeNetworkFailed:   "Network error. Check your connection and try again.",
}

// UserMessage turns an auth error into text fit for display. Unknown
// provider codes are shown as "<code> - <message>".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if msg, ok := messages[pe.Code]; ok {
			return msg
		}
		return fmt.Sprintf("%s - %s", pe.Code, pe.Message)
	}
	if errors.Is(err, ErrPasswordMismatch) {
		return "Passwords don't match"
	}
	return err.Error()
}

// IsCredentialError reports whether err means the caller is not who they
// claim to be, as opposed to a malformed request.
func IsCredentialError(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Code {
	case CodeUserNotFound, CodeWrongPassword, CodeInvalidCred, CodeTooManyRequests:
		return true
	}
	return false
}

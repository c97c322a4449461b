package authgw

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Typed failures of the authentication endpoints. Callers branch with
// errors.Is rather than inspecting status codes.
var (
	// ErrInvalidCredentials means the username/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConflict means the username or email is already registered.
	ErrConflict = errors.New("username or email already registered")
	// ErrRefreshRejected means the refresh token is expired or revoked.
	// Terminal: the session cannot be renewed without a fresh login.
	ErrRefreshRejected = errors.New("refresh token rejected")
	// ErrTokenInvalid means the access token failed verification.
	ErrTokenInvalid = errors.New("access token invalid")
	// ErrServerUnavailable means the server was unreachable or failed (5xx).
	ErrServerUnavailable = errors.New("authentication server unavailable")
)

// ValidationError carries per-field registration errors from a 422 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

package platform

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrArgument      = errors.New("platform: invalid argument")
	ErrAuthorization = errors.New("platform: authorization failed")
	ErrRemoteRequest = errors.New("platform: remote request failed")
)

// ArgumentError reports a missing or malformed named parameter. No request is
// sent when one is returned.
type ArgumentError struct {
	Field   string
	Message string
}

func (e *ArgumentError) Error() string {
	return e.Message
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrArgument
}

func argumentError(field, format string, args ...any) *ArgumentError {
	return &ArgumentError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError is returned when credentials are missing locally or the
// Platform answers 401.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrAuthorization
}

// RemoteRequestFailure is returned when the Platform reports a failure or its
// response cannot be understood.
type RemoteRequestFailure struct {
	StatusCode int
	Messages   []string
	Body       string // first 512 bytes
	cause      string
}

func (e *RemoteRequestFailure) Error() string {
	var b strings.Builder
	b.WriteString("unable to perform remote action on Moxi Works platform")
	if e.cause != "" {
		b.WriteString(": ")
		b.WriteString(e.cause)
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, ","))
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	return b.String()
}

func (e *RemoteRequestFailure) Is(target error) bool {
	return target == ErrRemoteRequest
}

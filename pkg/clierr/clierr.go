package clierr

import (
	"context"
	"errors"

	"github.com/pomyannik/pomyannik/client"
)

// Type categorizes a CLI-facing error for consistent messaging & exit codes.
type Type string

const (
	Validation Type = "validation"
	NotFound   Type = "not_found"
	Auth       Type = "auth"
	Network    Type = "network"
	Download   Type = "download"
	Internal   Type = "internal"
)

// Error is a structured user-facing error.
type Error struct {
	Type    Type
	Message string
	Err     error // optional underlying error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// New constructs a new CLI Error.
func New(t Type, msg string, err error) *Error { return &Error{Type: t, Message: msg, Err: err} }

// FromError classifies err for display. Errors that already are *Error are returned as is.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr
	}

	switch {
	case errors.Is(err, client.ErrSessionExpired):
		return New(Auth, "Your session has expired. Please log in again.", err)
	case errors.Is(err, client.ErrNotAuthenticated), errors.Is(err, client.ErrNoRefreshToken):
		return New(Auth, "You are not logged in. Run 'pomyannik login' first.", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return New(Network, "Operation cancelled or timed out.", err)
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case client.KindValidation:
			return New(Validation, apiErr.Message, err)
		case client.KindNotFound:
			return New(NotFound, apiErr.Message, err)
		case client.KindAuthentication:
			return New(Auth, apiErr.Message, err)
		case client.KindTransport:
			return New(Network, "Could not reach the server: "+apiErr.Message, err)
		}
		return New(Internal, apiErr.Message, err)
	}
	return New(Internal, err.Error(), err)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch FromError(err).Type {
	case Validation:
		return 2
	case Auth:
		return 3
	case NotFound:
		return 4
	case Network:
		return 5
	default:
		return 1
	}
}

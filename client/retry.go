package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Session supplies the bearer token for protected calls and renews it when the
// server rejects it.
type Session interface {
	// AccessToken returns the current access token, "" when logged out.
	AccessToken() string
	// Refresh obtains a new access token. staleToken is the token the server
	// just rejected; when it has already been replaced the current token is
	// returned without a network call. Concurrent callers share one refresh.
	Refresh(ctx context.Context, staleToken string) (string, error)
}

// withAuthRetry runs call with the session's access token. When the server
// rejects the token, the session is refreshed once and call is retried once;
// the result of the retry is returned as is.
func withAuthRetry[T any](ctx context.Context, s Session, call func(ctx context.Context, token string) (T, error)) (T, error) {
	var zero T

	token := s.AccessToken()
	if token == "" {
		return zero, ErrNotAuthenticated
	}

	result, err := call(ctx, token)
	if err == nil || !IsAuthenticationError(err) {
		return result, err
	}

	log.Debug().Msg("Access token rejected, refreshing session")
	fresh, refreshErr := s.Refresh(ctx, token)
	if refreshErr != nil {
		log.Warn().Err(refreshErr).Msg("Session refresh failed")
		if errors.Is(refreshErr, ErrSessionExpired) {
			return zero, refreshErr
		}
		return zero, fmt.Errorf("%w: %w", ErrSessionExpired, refreshErr)
	}
	return call(ctx, fresh)
}

// noResult adapts calls that only report an error to withAuthRetry.
func noResult(call func(ctx context.Context, token string) error) func(context.Context, string) (struct{}, error) {
	return func(ctx context.Context, token string) (struct{}, error) {
		return struct{}{}, call(ctx, token)
	}
}

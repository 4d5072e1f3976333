package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pomyannik/pomyannik/client"
	"github.com/pomyannik/pomyannik/db"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Options tunes a Service. The zero value is usable.
type Options struct {
	RefreshPolicy RefreshPolicy
	// Navigator is told where to send the user after login, logout and session expiry.
	Navigator func(Destination)
	// OnStateChange observes every state transition.
	OnStateChange func(from, to State)
}

// Service manages the session: login, logout, registration and token refresh.
// It implements client.Session.
type Service struct {
	Store *TokenStore
	API   Authenticator

	opts  Options
	group singleflight.Group

	stateMu sync.Mutex
	state   State
}

var _ client.Session = (*Service)(nil)

// NewService is the constructor for the session service.
func NewService(store *TokenStore, api Authenticator, opts Options) *Service {
	s := &Service{Store: store, API: api, opts: opts, state: Anonymous}
	if store.IsAuthenticated() {
		s.state = Authenticated
	}
	return s
}

// State reports the current session state.
func (s *Service) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Service) setState(to State) {
	s.stateMu.Lock()
	from := s.state
	s.state = to
	s.stateMu.Unlock()

	if from != to {
		log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("Session state changed")
		if s.opts.OnStateChange != nil {
			s.opts.OnStateChange(from, to)
		}
	}
}

func (s *Service) navigate(d Destination) {
	if s.opts.Navigator != nil {
		s.opts.Navigator(d)
	}
}

// AccessToken returns the stored access token, "" when logged out.
func (s *Service) AccessToken() string {
	return s.Store.GetAccessToken()
}

// Login exchanges the credentials for a token pair and stores it. On failure
// the stored credential is left untouched.
func (s *Service) Login(ctx context.Context, username, password string) (*db.Credential, error) {
	tr, err := s.API.Login(ctx, username, password)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Login failed")
		return nil, err
	}

	cred := tr.Credential()
	if cred.TokenType == "" {
		cred.TokenType = "bearer"
	}
	if err := s.Store.SetToken(cred); err != nil {
		return nil, err
	}
	s.setState(Authenticated)
	log.Info().Str("username", username).Msg("Logged in")
	s.navigate(DestinationHome)
	return cred.Clone(), nil
}

// Logout clears the credential unconditionally.
func (s *Service) Logout() error {
	err := s.Store.RemoveToken()
	s.setState(Anonymous)
	log.Info().Msg("Logged out")
	s.navigate(DestinationLogin)
	return err
}

// RegistrationError attributes a rejected registration to one input field.
type RegistrationError struct {
	Field   string // "username", "email" or "password"
	Message string
	Err     error
}

func (e *RegistrationError) Error() string { return e.Message }
func (e *RegistrationError) Unwrap() error { return e.Err }

var registrationFields = []string{"username", "email", "password"}

// Register creates an account without logging in.
func (s *Service) Register(ctx context.Context, req client.RegisterRequest) (*client.User, error) {
	u, err := s.API.Register(ctx, req)
	if err != nil {
		return nil, attributeRegistrationError(err)
	}
	log.Info().Str("email", req.Email).Msg("Account registered")
	return u, nil
}

// attributeRegistrationError wraps err in a RegistrationError when the server
// names the offending field, either in a validation entry or in the detail text.
func attributeRegistrationError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	for _, f := range apiErr.Fields {
		for _, name := range registrationFields {
			if f.Field() == name {
				return &RegistrationError{Field: name, Message: f.Msg, Err: err}
			}
		}
	}
	text := strings.ToLower(apiErr.Detail)
	for _, name := range registrationFields {
		if strings.Contains(text, name) {
			return &RegistrationError{Field: name, Message: apiErr.Message, Err: err}
		}
	}
	return err
}

// RefreshToken exchanges the stored refresh token for a new access token.
// Without a refresh token it fails with client.ErrNoRefreshToken and makes no
// request. Any failure clears the credential.
func (s *Service) RefreshToken(ctx context.Context) (string, error) {
	return s.sharedRefresh(ctx, s.Store.GetAccessToken(), false)
}

// Refresh is the deduplicated refresh used by protected calls. staleToken is
// the access token the server rejected. When it has already been replaced the
// current token is returned without a request; concurrent callers share one
// refresh.
func (s *Service) Refresh(ctx context.Context, staleToken string) (string, error) {
	if current := s.Store.GetAccessToken(); staleToken != "" && current != "" && current != staleToken {
		return current, nil
	}
	return s.sharedRefresh(ctx, staleToken, true)
}

func (s *Service) sharedRefresh(ctx context.Context, staleToken string, skipIfReplaced bool) (string, error) {
	// The refresh outlives a cancelled caller so the other waiters still get its result.
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh:"+staleToken, func() (any, error) {
		if skipIfReplaced {
			if current := s.Store.GetAccessToken(); current != "" && current != staleToken {
				return current, nil
			}
		}
		return s.refresh(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Service) refresh(ctx context.Context) (string, error) {
	cred, err := s.Store.GetToken()
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	if cred == nil || cred.RefreshToken == "" {
		log.Warn().Msg("No refresh token available, clearing session")
		s.expire()
		return "", client.ErrNoRefreshToken
	}

	s.setState(Refreshing)
	log.Info().Msg("Refreshing access token")
	tr, err := s.API.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		log.Error().Err(err).Msg("Token refresh failed")
		s.expire()
		return "", fmt.Errorf("%w: %w", client.ErrSessionExpired, err)
	}

	next := cred.Clone()
	next.AccessToken = tr.AccessToken
	if tr.TokenType != "" {
		next.TokenType = tr.TokenType
	}
	if id := tr.Credential().UserID; id != "" {
		next.UserID = id
	}
	if s.opts.RefreshPolicy == RotateIfPresent && tr.RefreshToken != "" {
		next.RefreshToken = tr.RefreshToken
	}
	if err := s.Store.SetToken(next); err != nil {
		s.expire()
		return "", fmt.Errorf("%w: %w", client.ErrSessionExpired, err)
	}
	s.setState(Authenticated)
	log.Info().Msg("Token refreshed and saved successfully.")
	return next.AccessToken, nil
}

// expire clears the credential after a failed refresh and hands navigation to the caller.
func (s *Service) expire() {
	if err := s.Store.RemoveToken(); err != nil {
		log.Error().Err(err).Msg("Failed to clear credential after refresh failure")
	}
	s.setState(Expired)
	s.setState(Anonymous)
	s.navigate(DestinationLogin)
}

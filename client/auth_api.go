package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/pomyannik/pomyannik/pkg/validation"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	loginPath   = "/api/auth/login"
	refreshPath = "/api/auth/refresh"
)

// DefaultClientCredential is the OAuth2 client id and secret the API accepts
// from first-party clients.
const DefaultClientCredential = "string"

// AuthAPI wraps the unauthenticated account endpoints.
type AuthAPI struct {
	exec         *Executor
	clientID     string
	clientSecret string
}

// NewAuthAPI creates an AuthAPI. Empty client credentials fall back to DefaultClientCredential.
func NewAuthAPI(exec *Executor, clientID, clientSecret string) *AuthAPI {
	if clientID == "" {
		clientID = DefaultClientCredential
	}
	if clientSecret == "" {
		clientSecret = DefaultClientCredential
	}
	return &AuthAPI{exec: exec, clientID: clientID, clientSecret: clientSecret}
}

func (a *AuthAPI) oauthConfig() (*oauth2.Config, error) {
	tokenURL, err := a.exec.ResolveURL(loginPath)
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil
}

// Login exchanges a username and password for a token pair using the OAuth2
// password grant.
func (a *AuthAPI) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	if err := validation.ValidateNonEmptyString("username", username); err != nil {
		return nil, newValidationError(err)
	}
	if err := validation.ValidateNonEmptyString("password", password); err != nil {
		return nil, newValidationError(err)
	}

	cfg, err := a.oauthConfig()
	if err != nil {
		return nil, newTransportError(err)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.exec.HTTPClient())

	log.Debug().Str("username", username).Msg("Requesting access token")
	tok, err := cfg.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return nil, fromOAuthError(err)
	}

	return &TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		UserID:       tok.Extra("user_id"),
	}, nil
}

// fromOAuthError maps an oauth2 token failure onto an APIError.
func fromOAuthError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		apiErr := newHTTPError(re.Response.StatusCode, re.Body)
		apiErr.Err = err
		return apiErr
	}
	return newTransportError(err)
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// travels as a query parameter.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	var tr TokenResponse
	err := a.exec.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   refreshPath,
		Query:  url.Values{"refresh_token": {refreshToken}},
		Body: FormBody(url.Values{
			"grant_type":    {"refresh_token"},
			"client_id":     {a.clientID},
			"client_secret": {a.clientSecret},
		}),
	}, &tr)
	if err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, &APIError{Kind: KindDecode, Status: http.StatusOK, Message: "refresh response has no access token"}
	}
	return &tr, nil
}

// Register creates an account. It does not log the user in.
func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := validation.ValidateNonEmptyString("email", req.Email); err != nil {
		return nil, newValidationError(err)
	}
	if err := validation.ValidateNonEmptyString("password", req.Password); err != nil {
		return nil, newValidationError(err)
	}
	var u User
	if err := a.exec.Do(ctx, Request{Method: http.MethodPost, Path: "/api/auth/register", Body: JSONBody(req)}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ForgetPassword asks the server to mail a password reset code to email.
func (a *AuthAPI) ForgetPassword(ctx context.Context, email string) error {
	if err := validation.ValidateNonEmptyString("email", email); err != nil {
		return newValidationError(err)
	}
	return a.exec.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/auth/forget-password-by-code",
		Body:   JSONBody(map[string]string{"email": email}),
	}, nil)
}

// RestorePassword sets a new password using the mailed reset code.
func (a *AuthAPI) RestorePassword(ctx context.Context, req RestorePasswordRequest) error {
	fields := []struct{ name, value string }{
		{"email", req.Email},
		{"code", req.Code},
		{"new password", req.NewPassword},
	}
	for _, f := range fields {
		if err := validation.ValidateNonEmptyString(f.name, f.value); err != nil {
			return newValidationError(err)
		}
	}
	return a.exec.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/auth/restore-password-by-code",
		Body:   JSONBody(req),
	}, nil)
}

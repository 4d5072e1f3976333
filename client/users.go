package client

import (
	"context"
	"net/http"

	"github.com/pomyannik/pomyannik/pkg/validation"
)

// Me returns the profile of the logged-in user.
func (a *API) Me(ctx context.Context) (*User, error) {
	u, err := authed[User](ctx, a, func() Request {
		return Request{Method: http.MethodGet, Path: "/api/auth/users/me"}
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SendEmailConfirmCode asks the server to mail a confirmation code.
func (a *API) SendEmailConfirmCode(ctx context.Context) error {
	return authedNoContent(ctx, a, func() Request {
		return Request{Method: http.MethodPost, Path: "/api/auth/send-email-confirm-code"}
	})
}

// ConfirmEmail submits the code received by mail.
func (a *API) ConfirmEmail(ctx context.Context, code string) error {
	if err := validation.ValidateNonEmptyString("confirmation code", code); err != nil {
		return newValidationError(err)
	}
	return authedNoContent(ctx, a, func() Request {
		return Request{Method: http.MethodPost, Path: "/api/auth/email-confirm-by-code", Body: JSONBody(map[string]string{"code": code})}
	})
}

package client

import (
	"context"
	"fmt"
)

// API exposes the protected endpoints. Every method attaches the session's
// bearer token and retries once after a successful refresh.
type API struct {
	exec    *Executor
	session Session
}

// NewAPI creates an API that sends requests through exec on behalf of session.
func NewAPI(exec *Executor, session Session) *API {
	return &API{exec: exec, session: session}
}

// Executor returns the executor used by the API.
func (a *API) Executor() *Executor { return a.exec }

// do issues one authenticated request.
func (a *API) do(ctx context.Context, token string, r Request, out any) error {
	if r.Header == nil {
		r.Header = bearer(token)
	} else {
		for k, v := range bearer(token) {
			r.Header[k] = v
		}
	}
	return a.exec.Do(ctx, r, out)
}

// authed wraps a single request with the refresh-and-retry behaviour.
func authed[T any](ctx context.Context, a *API, build func() Request) (T, error) {
	return withAuthRetry(ctx, a.session, func(ctx context.Context, token string) (T, error) {
		var out T
		err := a.do(ctx, token, build(), &out)
		return out, err
	})
}

// authedNoContent is authed for endpoints whose body is ignored.
func authedNoContent(ctx context.Context, a *API, build func() Request) error {
	_, err := withAuthRetry(ctx, a.session, noResult(func(ctx context.Context, token string) error {
		return a.do(ctx, token, build(), nil)
	}))
	return err
}

func folderPath(id int) string {
	return fmt.Sprintf("/api/folders/%d", id)
}

func cardPath(folderID, cardID int) string {
	return fmt.Sprintf("/api/folders/%d/card/%d", folderID, cardID)
}

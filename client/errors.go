package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed API call.
type Kind string

const (
	KindTransport      Kind = "transport"
	KindAuthentication Kind = "authentication"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindServer         Kind = "server"
	KindDecode         Kind = "decode"
)

// authFailureMessage is the detail the API returns for a missing, invalid or expired access token.
const authFailureMessage = "Could not validate credentials"

var (
	// ErrSessionExpired is returned when a refresh attempt fails. The local
	// credential has already been cleared; the caller should send the user to login.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrNoRefreshToken is returned, without any network call, when a refresh
	// is requested but no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrNotAuthenticated is returned, without any network call, when a
	// protected call is made while no access token is stored.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// FieldError is one entry of a validation error list, e.g. {"loc":["body","email"],"msg":"..."}.
type FieldError struct {
	Loc  []any  `json:"loc,omitempty"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// Field returns the last string element of Loc, which names the offending input.
func (f FieldError) Field() string {
	for i := len(f.Loc) - 1; i >= 0; i-- {
		if s, ok := f.Loc[i].(string); ok {
			return s
		}
	}
	return ""
}

// APIError is the normalized error returned for every failed request.
type APIError struct {
	Kind    Kind
	Status  int          // HTTP status, 0 when no response was received
	Message string       // user-facing text
	Detail  string       // server-provided detail string, if any
	Fields  []FieldError // server-provided validation entries, if any
	Payload []byte       // raw response body
	Err     error        // underlying error, if any
}

func (e *APIError) Error() string { return e.Message }
func (e *APIError) Unwrap() error { return e.Err }

// IsAuthenticationError reports whether err means the access token was rejected.
// Only these failures trigger a refresh.
func IsAuthenticationError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Kind == KindAuthentication || apiErr.Status == http.StatusUnauthorized {
		return true
	}
	return strings.Contains(apiErr.Message, authFailureMessage) || strings.Contains(apiErr.Detail, authFailureMessage)
}

// KindOf returns the Kind of err, or "" when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// errorBody mirrors the JSON error envelope of the API. detail is either a
// string or a list of validation entries.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// newHTTPError builds an APIError from a non-2xx response.
func newHTTPError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Payload: body}

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		if len(eb.Detail) > 0 {
			var s string
			if json.Unmarshal(eb.Detail, &s) == nil {
				apiErr.Detail = s
			} else {
				_ = json.Unmarshal(eb.Detail, &apiErr.Fields)
			}
		}
		if apiErr.Detail == "" && eb.Message != "" {
			apiErr.Detail = eb.Message
		}
	}

	switch {
	case status == http.StatusUnauthorized || strings.Contains(apiErr.Detail, authFailureMessage):
		apiErr.Kind = KindAuthentication
	case status == http.StatusUnprocessableEntity:
		apiErr.Kind = KindValidation
	case status == http.StatusNotFound:
		apiErr.Kind = KindNotFound
	default:
		apiErr.Kind = KindServer
	}

	switch {
	case apiErr.Kind == KindValidation && len(apiErr.Fields) > 0 && apiErr.Fields[0].Msg != "":
		apiErr.Message = apiErr.Fields[0].Msg
	case apiErr.Kind == KindNotFound:
		apiErr.Message = "resource not found"
	case apiErr.Detail != "":
		apiErr.Message = apiErr.Detail
	case len(apiErr.Fields) > 0 && apiErr.Fields[0].Msg != "":
		apiErr.Message = apiErr.Fields[0].Msg
	case apiErr.Kind == KindValidation:
		apiErr.Message = "invalid request data"
	default:
		apiErr.Message = fmt.Sprintf("request failed with status %d %s", status, http.StatusText(status))
	}
	return apiErr
}

// newTransportError wraps a failure that produced no HTTP response.
func newTransportError(err error) *APIError {
	msg := "request failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &APIError{Kind: KindTransport, Message: msg, Err: err}
}

// newValidationError reports input rejected before any request was made.
func newValidationError(err error) *APIError {
	return &APIError{Kind: KindValidation, Message: err.Error(), Err: err}
}

// withResource renames a not-found error after the resource the caller asked for.
func withResource(err error, resource string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindNotFound {
		apiErr.Message = resource + " not found"
	}
	return err
}

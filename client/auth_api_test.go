package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthAPI(t *testing.T, handler http.HandlerFunc) *AuthAPI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	exec, err := NewExecutor(server.URL)
	require.NoError(t, err)
	return NewAuthAPI(exec, "", "")
}

func TestAuthAPI_LoginSendsPasswordGrant(t *testing.T) {
	api := newTestAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "pw", r.PostForm.Get("password"))
		assert.Equal(t, "string", r.PostForm.Get("client_id"))
		assert.Equal(t, "string", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"A1","refresh_token":"R1","token_type":"bearer","user_id":7}`)
	})

	tr, err := api.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "A1", tr.AccessToken)
	assert.Equal(t, "R1", tr.RefreshToken)

	cred := tr.Credential()
	assert.Equal(t, "A1", cred.AccessToken)
	assert.Equal(t, "R1", cred.RefreshToken)
	assert.Equal(t, "bearer", cred.TokenType)
	assert.Equal(t, "7", cred.UserID)
}

func TestAuthAPI_LoginRejected(t *testing.T) {
	api := newTestAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Incorrect username or password"}`)
	})

	_, err := api.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Incorrect username or password", apiErr.Message)
}

func TestAuthAPI_LoginRequiresCredentials(t *testing.T) {
	api := newTestAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := api.Login(context.Background(), "", "pw")
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = api.Login(context.Background(), "alice", "")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestAuthAPI_Refresh(t *testing.T) {
	api := newTestAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/refresh", r.URL.Path)
		assert.Equal(t, "R1", r.URL.Query().Get("refresh_token"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "string", r.PostForm.Get("client_id"))
		_, _ = io.WriteString(w, `{"access_token":"A2","token_type":"bearer"}`)
	})

	tr, err := api.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "A2", tr.AccessToken)
	assert.Empty(t, tr.RefreshToken)
}

func TestAuthAPI_RefreshWithoutToken(t *testing.T) {
	api := newTestAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := api.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestAuthAPI_RefreshRejected(t *testing.T) {
	api := newTestAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Invalid refresh token"}`)
	})

	_, err := api.Refresh(context.Background(), "R1")
	assert.EqualError(t, err, "Invalid refresh token")
}

func TestAuthAPI_RefreshMissingAccessToken(t *testing.T) {
	api := newTestAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := api.Refresh(context.Background(), "R1")
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestAuthAPI_Register(t *testing.T) {
	api := newTestAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Email == "taken@example.org" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"detail":"Email already registered"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(User{ID: 3, Username: req.Username, Email: req.Email})
	})

	u, err := api.Register(context.Background(), RegisterRequest{Username: "bob", Email: "bob@example.org", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	_, err = api.Register(context.Background(), RegisterRequest{Email: "taken@example.org", Password: "secret"})
	assert.EqualError(t, err, "Email already registered")
}

func TestAuthAPI_PasswordReset(t *testing.T) {
	var restored RestorePasswordRequest
	api := newTestAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/forget-password-by-code":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "alice@example.org", body["email"])
		case "/api/auth/restore-password-by-code":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&restored))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	require.NoError(t, api.ForgetPassword(ctx, "alice@example.org"))
	require.NoError(t, api.RestorePassword(ctx, RestorePasswordRequest{Email: "alice@example.org", Code: "42", NewPassword: "n3w"}))
	assert.Equal(t, "n3w", restored.NewPassword)

	err := api.RestorePassword(ctx, RestorePasswordRequest{Email: "alice@example.org", NewPassword: "n3w"})
	assert.EqualError(t, err, "code cannot be empty")
}

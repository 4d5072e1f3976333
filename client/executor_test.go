package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, handler http.HandlerFunc) (*Executor, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	exec, err := NewExecutor(server.URL)
	require.NoError(t, err)
	return exec, server
}

func TestNewExecutor_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.org", "localhost:8000", "::"} {
		_, err := NewExecutor(raw)
		assert.Error(t, err, raw)
	}

	exec, err := NewExecutor("http://localhost:8000/", WithTimeout(3*time.Second), WithUserAgent("test-agent"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", exec.BaseURL())
	assert.Equal(t, 3*time.Second, exec.HTTPClient().Timeout)
}

func TestExecutor_ResolveURL(t *testing.T) {
	exec, err := NewExecutor("http://api.local:8000/base")
	require.NoError(t, err)

	got, err := exec.ResolveURL("/api/folders/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.local:8000/base/api/folders/", got)

	got, err = exec.ResolveURL("media/cards/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://api.local:8000/base/media/cards/1.jpg", got)

	got, err = exec.ResolveURL("https://cdn.example.org/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.org/x.png", got)
}

func TestExecutor_DoDecodesJSON(t *testing.T) {
	exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/folders/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"name":"Family"},{"id":2,"name":"War"}]`)
	})

	var folders []Folder
	err := exec.Do(context.Background(), Request{Path: "/api/folders/", Header: bearer("T")}, &folders)
	require.NoError(t, err)
	assert.Equal(t, []Folder{{ID: 1, Name: "Family"}, {ID: 2, Name: "War"}}, folders)
}

func TestExecutor_DoNoContent(t *testing.T) {
	exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var out Folder
	err := exec.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/api/folders/1"}, &out)
	require.NoError(t, err)
	assert.Zero(t, out)
}

func TestExecutor_DoSendsBodies(t *testing.T) {
	t.Run("form", func(t *testing.T) {
		exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "R1", r.URL.Query().Get("refresh_token"))
		})
		err := exec.Do(context.Background(), Request{
			Method: http.MethodPost,
			Path:   "/api/auth/refresh",
			Query:  url.Values{"refresh_token": {"R1"}},
			Body:   FormBody(url.Values{"grant_type": {"refresh_token"}}),
		}, nil)
		require.NoError(t, err)
	})

	t.Run("json", func(t *testing.T) {
		exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"Family"}`, string(body))
		})
		err := exec.Do(context.Background(), Request{Method: http.MethodPost, Path: "/x", Body: JSONBody(folderRequest{Name: "Family"})}, nil)
		require.NoError(t, err)
	})

	t.Run("multipart", func(t *testing.T) {
		exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "v", r.FormValue("k"))
			f, hdr, err := r.FormFile("image")
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, "p.png", hdr.Filename)
			assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
			data, _ := io.ReadAll(f)
			assert.Equal(t, "PNGDATA", string(data))
		})
		err := exec.Do(context.Background(), Request{
			Method: http.MethodPost,
			Path:   "/upload",
			Body: MultipartBody(map[string]string{"k": "v"}, FilePart{
				Field: "image", FileName: "p.png", ContentType: "image/png", Content: strings.NewReader("PNGDATA"),
			}),
		}, nil)
		require.NoError(t, err)
	})
}

func TestExecutor_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    Kind
		wantMessage string
		wantAuth    bool
	}{
		{"unauthorized", 401, `{"detail":"Could not validate credentials"}`, KindAuthentication, "Could not validate credentials", true},
		{"auth detail on 403", 403, `{"detail":"Could not validate credentials"}`, KindAuthentication, "Could not validate credentials", true},
		{"validation list", 422, `{"detail":[{"loc":["body","name"],"msg":"field required","type":"value_error.missing"}]}`, KindValidation, "field required", false},
		{"validation without entries", 422, `{}`, KindValidation, "invalid request data", false},
		{"not found", 404, `{"detail":"Not Found"}`, KindNotFound, "resource not found", false},
		{"server detail", 400, `{"detail":"Folder already exists"}`, KindServer, "Folder already exists", false},
		{"server message", 409, `{"message":"conflict happened"}`, KindServer, "conflict happened", false},
		{"plain server error", 500, `oops`, KindServer, "request failed with status 500 Internal Server Error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := exec.Do(context.Background(), Request{Path: "/x"}, nil)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.body, string(apiErr.Payload))
			assert.Equal(t, tt.wantAuth, IsAuthenticationError(err))
		})
	}
}

func TestExecutor_ValidationFieldName(t *testing.T) {
	exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`)
	})

	err := exec.Do(context.Background(), Request{Path: "/x"}, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "email", apiErr.Fields[0].Field())
}

func TestExecutor_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	exec, err := NewExecutor(server.URL)
	require.NoError(t, err)
	server.Close()

	err = exec.Do(context.Background(), Request{Path: "/x"}, nil)
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.False(t, IsAuthenticationError(err))
}

func TestExecutor_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)
	exec, err := NewExecutor(server.URL, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	err = exec.Do(context.Background(), Request{Path: "/slow"}, nil)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestExecutor_DecodeError(t *testing.T) {
	exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	var out Folder
	err := exec.Do(context.Background(), Request{Path: "/x"}, &out)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestExecutor_Fetch(t *testing.T) {
	exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/media/1.jpg" {
			_, _ = io.WriteString(w, "JPEGDATA")
			return
		}
		http.NotFound(w, r)
	})

	var sb strings.Builder
	n, err := exec.Fetch(context.Background(), "media/1.jpg", &sb)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "JPEGDATA", sb.String())

	_, err = exec.Fetch(context.Background(), "media/missing.jpg", io.Discard)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestWithResource(t *testing.T) {
	err := withResource(&APIError{Kind: KindNotFound, Message: "resource not found"}, "card")
	assert.EqualError(t, err, "card not found")

	other := &APIError{Kind: KindServer, Message: "boom"}
	assert.EqualError(t, withResource(other, "card"), "boom")
	assert.NoError(t, withResource(nil, "card"))
}

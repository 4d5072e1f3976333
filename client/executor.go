package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout is the budget for a single request.
const DefaultTimeout = 10 * time.Second

// Body produces the payload of a request.
type Body interface {
	encode() (io.Reader, string, error)
}

type formBody url.Values

func (b formBody) encode() (io.Reader, string, error) {
	return strings.NewReader(url.Values(b).Encode()), "application/x-www-form-urlencoded", nil
}

// FormBody sends values URL-encoded.
func FormBody(values url.Values) Body { return formBody(values) }

type jsonBody struct{ v any }

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode JSON body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// JSONBody sends v marshalled as JSON.
func JSONBody(v any) Body { return jsonBody{v: v} }

// FilePart is one file of a multipart body. Content is read when the request is built.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string // application/octet-stream when empty
	Content     io.Reader
}

type multipartBody struct {
	fields map[string]string
	files  []FilePart
}

func (b multipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range b.fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	for _, f := range b.files {
		part, err := createFormFile(w, f)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("failed to copy %s into form: %w", f.FileName, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func createFormFile(w *multipart.Writer, f FilePart) (io.Writer, error) {
	if f.ContentType == "" {
		return w.CreateFormFile(f.Field, f.FileName)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.FileName))
	h.Set("Content-Type", f.ContentType)
	return w.CreatePart(h)
}

// MultipartBody sends fields and files as multipart/form-data.
func MultipartBody(fields map[string]string, files ...FilePart) Body {
	return multipartBody{fields: fields, files: files}
}

// Request describes one HTTP call. Path is absolute or relative to the executor's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header map[string]string
	Body   Body
}

// Executor issues single HTTP requests and normalizes their failures into *APIError.
// It never retries.
type Executor struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the per-request budget.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client. Its timeout is kept as is.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *Executor) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ExecutorOption {
	return func(e *Executor) { e.userAgent = ua }
}

// NewExecutor creates an Executor for the API at baseURL.
func NewExecutor(baseURL string, opts ...ExecutorOption) (*Executor, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	e := &Executor{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "pomyannik-cli",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// HTTPClient returns the client used for requests, so other transports can share its timeout.
func (e *Executor) HTTPClient() *http.Client { return e.httpClient }

// BaseURL returns the API root.
func (e *Executor) BaseURL() string { return e.baseURL.String() }

// ResolveURL turns a path into an absolute URL against the base URL.
func (e *Executor) ResolveURL(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	u := *e.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

// createRequest builds the *http.Request for r.
func (e *Executor) createRequest(ctx context.Context, r Request) (*http.Request, error) {
	urlStr, err := e.ResolveURL(r.Path)
	if err != nil {
		return nil, err
	}
	if len(r.Query) > 0 {
		u, _ := url.Parse(urlStr)
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		urlStr = u.String()
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	var contentType string
	if r.Body != nil {
		body, contentType, err = r.Body.encode()
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("url", urlStr).Msg("Failed to create HTTP request object")
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Do issues r once. On a 2xx response the body is decoded into out (when out is
// non-nil and the body is not empty). Every failure is an *APIError.
func (e *Executor) Do(ctx context.Context, r Request, out any) error {
	req, err := e.createRequest(ctx, r)
	if err != nil {
		return newTransportError(err)
	}

	body, status, err := e.sendRequest(req)
	if err != nil {
		return err
	}

	if out == nil || status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Error().Err(err).Str("body_preview", string(body[:min(len(body), 200)])).Msg("Failed to parse response JSON")
		return &APIError{Kind: KindDecode, Status: status, Message: "failed to decode server response", Payload: body, Err: err}
	}
	return nil
}

// sendRequest sends req and returns the body of a 2xx response.
func (e *Executor) sendRequest(req *http.Request) ([]byte, int, error) {
	log.Debug().Str("method", req.Method).Str("url", req.URL.Redacted()).Msg("Sending HTTP request")
	resp, err := e.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.Redacted()).Msg("HTTP request failed")
		return nil, 0, newTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("url", req.URL.Redacted()).Msg("Failed to read response body")
		return nil, resp.StatusCode, newTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newHTTPError(resp.StatusCode, body)
		log.Warn().Str("method", req.Method).Str("url", req.URL.Redacted()).Int("status", resp.StatusCode).
			Str("kind", string(apiErr.Kind)).Msg("HTTP request returned non-OK status")
		return nil, resp.StatusCode, apiErr
	}
	log.Debug().Str("method", req.Method).Str("url", req.URL.Redacted()).Int("status", resp.StatusCode).Msg("HTTP request successful")
	return body, resp.StatusCode, nil
}

// Fetch streams the body of a GET on path into w. Used for card images, which
// are served without authentication.
func (e *Executor) Fetch(ctx context.Context, path string, w io.Writer) (int64, error) {
	req, err := e.createRequest(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return 0, newTransportError(err)
	}
	req.Header.Del("Accept")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, newTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, newHTTPError(resp.StatusCode, body)
	}
	n, err := io.Copy(w, wrapWithRateLimiter(ctx, resp.Body))
	if err != nil {
		return n, newTransportError(err)
	}
	return n, nil
}

// bearer formats the Authorization header value.
func bearer(token string) map[string]string {
	return map[string]string{"Authorization": fmt.Sprintf("Bearer %s", token)}
}

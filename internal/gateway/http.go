package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 20 * time.Second

// HTTP is a types.Transport over JSON REST. Every request carries the
// session cookies and, when configured, a bearer token.
type HTTP struct {
	httpClient *http.Client
	server     string
	token      string
	metrics    *Metrics
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*HTTP)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) HTTPOption {
	return func(h *HTTP) { h.token = token }
}

// WithTimeout overrides DefaultTimeout. Zero keeps the default.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client. Its cookie jar is kept as is.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.httpClient = c }
}

// WithMetrics records request metrics.
func WithMetrics(m *Metrics) HTTPOption {
	return func(h *HTTP) { h.metrics = m }
}

// NewHTTP returns a transport rooted at server (e.g. "https://api.example/v1").
func NewHTTP(server string, opts ...HTTPOption) (*HTTP, error) {
	u, err := url.Parse(server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", server)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	h := &HTTP{
		httpClient: &http.Client{Timeout: DefaultTimeout, Jar: jar},
		server:     strings.TrimRight(server, "/"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Do implements types.Transport.
func (h *HTTP) Do(ctx context.Context, method, path string, query url.Values, in any) (any, error) {
	start := time.Now()
	out, err := h.do(ctx, method, path, query, in)
	outcome := "ok"
	if f, ok := types.FailureOf(err); ok {
		outcome = string(f.Kind)
	}
	h.metrics.observe(method, outcome, time.Since(start))
	return out, err
}

func (h *HTTP) do(ctx context.Context, method, path string, query url.Values, in any) (any, error) {
	fail := func(kind types.FailureKind, status int, err error) error {
		return &types.Failure{Kind: kind, Method: method, Path: path, Status: status, Err: err}
	}

	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return nil, fail(types.FailureClient, 0, fmt.Errorf("encode body: %w", err))
		}
		body = buf
	}

	target := h.server + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fail(types.FailureClient, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fail(types.FailureNetwork, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(types.FailureNetwork, resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fail(types.FailureNotFound, resp.StatusCode, apiError(payload))
	case resp.StatusCode >= 500:
		return nil, fail(types.FailureServer, resp.StatusCode, apiError(payload))
	case resp.StatusCode >= 400:
		return nil, fail(types.FailureClient, resp.StatusCode, apiError(payload))
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fail(types.FailureDecode, resp.StatusCode, err)
	}
	return out, nil
}

// apiError extracts {"error": "..."} from an error body, falling back to the
// raw text.
func apiError(payload []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		return errors.New(body.Error)
	}
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return nil
	}
	return errors.New(text)
}

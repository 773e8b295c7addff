package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GatewayConfig configures an authenticated gateway
type GatewayConfig struct {
	Config

	// Timeout is handed to the HTTP client; zero means no timeout
	Timeout time.Duration
	// UserAgent is sent on every request unless the caller sets one
	UserAgent string
}

// Gateway issues HTTP requests with a current Authorization header.
// It owns its transport: Open acquires it and Close releases it.
type Gateway struct {
	serverURL  string
	userAgent  string
	transport  *http.Transport
	httpClient *http.Client
	tokens     *TokenManager
	closed     bool
	logger     *slog.Logger
}

// Open acquires a transport and builds the token manager on top of it, so
// the login exchange and regular requests share connections.
func Open(cfg GatewayConfig) (*Gateway, error) {
	if _, err := url.ParseRequestURI(cfg.ServerURL); err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", cfg.ServerURL, err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	httpClient := &http.Client{
		Transport: newMetricsTransport(transport),
		Timeout:   cfg.Timeout,
	}

	tokens, err := NewTokenManager(cfg.Config, httpClient)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, err
	}

	return &Gateway{
		serverURL:  cfg.ServerURL,
		userAgent:  cfg.UserAgent,
		transport:  transport,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     slog.Default().With("component", "client-gateway"),
	}, nil
}

// WithGateway opens a gateway, runs fn and closes the gateway on every exit
// path, including when fn fails or panics.
func WithGateway(ctx context.Context, cfg GatewayConfig, fn func(ctx context.Context, g *Gateway) error) (err error) {
	g, err := Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := g.Close(); err == nil {
			err = cerr
		}
	}()

	return fn(ctx, g)
}

// Close releases the transport. Further requests fail with ErrGatewayClosed.
func (g *Gateway) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.transport.CloseIdleConnections()
	g.logger.Debug("gateway closed")
	return nil
}

// Closed reports whether Close has been called
func (g *Gateway) Closed() bool {
	return g.closed
}

// Tokens returns the token manager (useful for auth commands)
func (g *Gateway) Tokens() *TokenManager {
	return g.tokens
}

// ServerURL returns the base URL requests are resolved against
func (g *Gateway) ServerURL() string {
	return g.serverURL
}

// Do sends a request. The Authorization header from the token manager is
// added only when the caller did not supply one.
func (g *Gateway) Do(ctx context.Context, method, path string, header http.Header, body io.Reader) (*http.Response, error) {
	if g.closed {
		return nil, ErrGatewayClosed
	}

	// Always obtained first: this is where an expired token gets refreshed
	auth, err := g.tokens.AuthorizationHeader(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, g.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", auth.Get("Authorization"))
	}
	if g.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	g.logger.Debug("sending request",
		slog.String("method", method),
		slog.String("url", req.URL.String()))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServerUnreachable, err)
	}
	return resp, nil
}

// Get issues a GET request
func (g *Gateway) Get(ctx context.Context, path string, header http.Header) (*http.Response, error) {
	return g.Do(ctx, http.MethodGet, path, header, nil)
}

// Delete issues a DELETE request
func (g *Gateway) Delete(ctx context.Context, path string, header http.Header) (*http.Response, error) {
	return g.Do(ctx, http.MethodDelete, path, header, nil)
}

// Post issues a POST request with an arbitrary body
func (g *Gateway) Post(ctx context.Context, path string, header http.Header, body io.Reader) (*http.Response, error) {
	return g.Do(ctx, http.MethodPost, path, header, body)
}

// Patch issues a PATCH request with an arbitrary body
func (g *Gateway) Patch(ctx context.Context, path string, header http.Header, body io.Reader) (*http.Response, error) {
	return g.Do(ctx, http.MethodPatch, path, header, body)
}

// PostJSON issues a POST request with v encoded as JSON
func (g *Gateway) PostJSON(ctx context.Context, path string, v any) (*http.Response, error) {
	return g.sendJSON(ctx, http.MethodPost, path, v)
}

// PatchJSON issues a PATCH request with v encoded as JSON
func (g *Gateway) PatchJSON(ctx context.Context, path string, v any) (*http.Response, error) {
	return g.sendJSON(ctx, http.MethodPatch, path, v)
}

// PostForm issues a form-encoded POST request
func (g *Gateway) PostForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	header := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	return g.Do(ctx, http.MethodPost, path, header, strings.NewReader(form.Encode()))
}

func (g *Gateway) sendJSON(ctx context.Context, method, path string, v any) (*http.Response, error) {
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	header := http.Header{"Content-Type": {"application/json"}}
	return g.Do(ctx, method, path, header, body)
}

// resolve turns a server-relative path into an absolute URL; absolute URLs
// are passed through untouched
func (g *Gateway) resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return joinURL(g.serverURL, path)
}

// CheckResponse closes resp.Body and, if the status equals expected, decodes
// the JSON body into out (when out is non-nil). Any other status yields an
// *APIError carrying the response body.
func CheckResponse(resp *http.Response, expected int, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expected {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Detail:     extractDetail(body),
		}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

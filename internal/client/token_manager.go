package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/devilmonastery/fractal/internal/pkg/metrics"
)

// DefaultLoginPath is the login exchange endpoint of the fractal server
const DefaultLoginPath = "/auth/token/login"

// Credentials are exchanged for a token by the login call
type Credentials struct {
	Username string
	Password string
}

// Config holds everything the token manager needs. It is passed explicitly
// at construction; nothing is read from process-wide state.
type Config struct {
	// ServerURL is the base URL of the fractal server, e.g. http://localhost:10080
	ServerURL string
	// LoginPath defaults to DefaultLoginPath
	LoginPath string
	// CachePath is the token cache file; empty disables persistence
	CachePath   string
	Credentials Credentials
}

func (c Config) loginURL() string {
	path := c.LoginPath
	if path == "" {
		path = DefaultLoginPath
	}
	return joinURL(c.ServerURL, path)
}

// TokenManager owns the lifecycle of a single bearer token: it loads it from
// the cache, checks expiry lazily and logs in again when needed.
//
// A TokenManager is meant to be driven by one logical sequence of requests
// and does no locking.
type TokenManager struct {
	cfg        Config
	httpClient *http.Client
	cache      *TokenCache
	token      *Token
	now        func() time.Time
	logger     *slog.Logger
}

// NewTokenManager creates a token manager and reads any cached token.
// A missing cache file leaves the manager without a token; other read
// failures are returned.
func NewTokenManager(cfg Config, httpClient *http.Client) (*TokenManager, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	cache, err := NewTokenCache(cfg.CachePath)
	if err != nil {
		return nil, err
	}

	m := &TokenManager{
		cfg:        cfg,
		httpClient: httpClient,
		cache:      cache,
		now:        time.Now,
		logger:     slog.Default().With("component", "client-token"),
	}

	raw, found, err := cache.Load()
	if err != nil {
		return nil, err
	}
	if found {
		m.token = &Token{Raw: raw}
		m.logger.Debug("loaded cached token",
			slog.String("path", cache.Path()),
			slog.String("preview", m.token.Preview()))
	}

	return m, nil
}

// Current returns the in-memory token without validating it
func (m *TokenManager) Current() (Token, bool) {
	if m.token == nil {
		return Token{}, false
	}
	return *m.token, true
}

// IsExpired reports whether a login is required. A missing token, a token
// that cannot be decoded, or one without an exp claim all count as expired.
func (m *TokenManager) IsExpired() bool {
	if m.token == nil {
		return true
	}

	exp, err := m.token.Expiry()
	if err != nil {
		m.logger.Debug("treating undecodable token as expired", slog.String("error", err.Error()))
		return true
	}

	return !m.now().Before(exp)
}

// EnsureValid returns a non-expired token, performing the login exchange and
// persisting the new token first if necessary.
func (m *TokenManager) EnsureValid(ctx context.Context) (Token, error) {
	if !m.IsExpired() {
		return *m.token, nil
	}
	return m.Refresh(ctx)
}

// Refresh unconditionally performs the login exchange and persists the result.
// On a failed exchange the in-memory token and the cache file are left
// untouched. If only persisting fails, the new token is kept and returned
// along with an error wrapping ErrCacheUnwritable.
func (m *TokenManager) Refresh(ctx context.Context) (Token, error) {
	m.logger.Info("obtaining fresh token", slog.String("username", m.cfg.Credentials.Username))

	tok, err := m.login(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return Token{}, err
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()

	m.token = &tok
	if err := m.cache.Store(tok.Raw); err != nil {
		m.logger.Error("failed to persist token",
			slog.String("path", m.cache.Path()),
			slog.String("error", err.Error()))
		return tok, fmt.Errorf("%w: %w", ErrCacheUnwritable, err)
	}

	m.logger.Debug("token refreshed", slog.String("preview", tok.Preview()))
	return tok, nil
}

// AuthorizationHeader returns a header set carrying a valid bearer token
func (m *TokenManager) AuthorizationHeader(ctx context.Context) (http.Header, error) {
	tok, err := m.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	req := &http.Request{Header: make(http.Header)}
	(&oauth2.Token{AccessToken: tok.Raw}).SetAuthHeader(req)
	return req.Header, nil
}

// Forget drops the in-memory token and removes the cache file
func (m *TokenManager) Forget() error {
	m.token = nil
	return m.cache.Remove()
}

// login trades the configured credentials for a token. The request is
// form-encoded; success is a 2xx status with a JSON access_token.
func (m *TokenManager) login(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("username", m.cfg.Credentials.Username)
	form.Set("password", m.cfg.Credentials.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.loginURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, fmt.Errorf("%w: failed to read login response: %w", ErrServerUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Warn("login exchange rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("username", m.cfg.Credentials.Username))
		return Token{}, newAuthenticationError(resp.StatusCode, body)
	}

	var issued oauth2.Token
	if err := json.Unmarshal(body, &issued); err != nil || issued.AccessToken == "" {
		authErr := newAuthenticationError(resp.StatusCode, body)
		authErr.Detail = "login response did not contain an access_token"
		return Token{}, authErr
	}

	return Token{Raw: issued.AccessToken}, nil
}

// joinURL concatenates base and path with exactly one slash between them
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

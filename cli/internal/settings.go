package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/devilmonastery/fractal/internal/client"
	"github.com/devilmonastery/fractal/internal/version"
)

// Environment variables read on top of the config file
const (
	EnvServer    = "FRACTAL_SERVER"
	EnvUser      = "FRACTAL_USER"
	EnvPassword  = "FRACTAL_PASSWORD"
	EnvCachePath = "FRACTAL_CACHE_PATH"
)

// Settings is the resolved connection setup of one invocation
type Settings struct {
	ContextName string
	ServerURL   string
	Username    string
	Password    string
	CachePath   string
	Theme       string
	// Timezone for displayed timestamps; empty means local
	Timezone string
}

// resolveSettings layers the current config context, the environment and
// the command line flags, in increasing order of precedence
func resolveSettings(config *Config, flags *globalFlags, getenv func(string) string) (*Settings, error) {
	ctx, err := config.GetCurrentContext()
	if err != nil {
		return nil, err
	}
	cachePath, err := ctx.CachePath(config.CurrentContext)
	if err != nil {
		return nil, err
	}

	s := &Settings{
		ContextName: config.CurrentContext,
		ServerURL:   ctx.Server.URL,
		Username:    ctx.Auth.Username,
		CachePath:   cachePath,
		Theme:       ctx.Rendering.Theme,
		Timezone:    ctx.Rendering.Timezone,
	}

	override := func(dst *string, values ...string) {
		for _, v := range values {
			if v != "" {
				*dst = v
			}
		}
	}
	override(&s.ServerURL, getenv(EnvServer))
	override(&s.Username, getenv(EnvUser), flags.user)
	override(&s.Password, getenv(EnvPassword), flags.password)
	override(&s.CachePath, getenv(EnvCachePath))

	if s.ServerURL == "" {
		return nil, fmt.Errorf("no server URL configured for context %q (set %s or run 'fractal config add-context')",
			s.ContextName, EnvServer)
	}
	s.ServerURL = strings.TrimRight(s.ServerURL, "/")
	if s.Theme == "" {
		s.Theme = "auto"
	}

	return s, nil
}

// GatewayConfig builds the gateway configuration for these settings
func (s *Settings) GatewayConfig() client.GatewayConfig {
	return client.GatewayConfig{
		Config: client.Config{
			ServerURL: s.ServerURL,
			CachePath: s.CachePath,
			Credentials: client.Credentials{
				Username: s.Username,
				Password: s.Password,
			},
		},
		UserAgent: "fractal-cli/" + version.Version,
	}
}

// hasValidCachedToken reports whether the cache holds a token that will not
// need the login exchange
func hasValidCachedToken(cachePath string, now time.Time) bool {
	cache, err := client.NewTokenCache(cachePath)
	if err != nil {
		return false
	}
	raw, found, err := cache.Load()
	if err != nil || !found {
		return false
	}
	exp, err := client.Token{Raw: raw}.Expiry()
	if err != nil {
		return false
	}
	return now.Before(exp)
}

// ensureCredentials prompts for whatever the login exchange still lacks.
// Without force the prompt is skipped while a cached token is valid. Nothing
// is prompted when stdin is not a terminal.
func ensureCredentials(s *Settings, in io.Reader, prompt io.Writer, force bool) error {
	if s.Username != "" && s.Password != "" {
		return nil
	}
	if !force && hasValidCachedToken(s.CachePath, time.Now()) {
		return nil
	}

	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		slog.Debug("credentials incomplete and stdin is not a terminal",
			slog.Bool("have_username", s.Username != ""))
		return nil
	}

	if s.Username == "" {
		fmt.Fprint(prompt, "Username: ")
		line, err := bufio.NewReader(f).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read username: %w", err)
		}
		s.Username = strings.TrimSpace(line)
	}

	if s.Password == "" {
		fmt.Fprint(prompt, "Password: ")
		passwordBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt) // newline after password input
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		s.Password = string(passwordBytes)
	}

	return nil
}

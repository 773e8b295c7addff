package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/devilmonastery/fractal/internal/client"
)

// formatDuration formats a duration in a human-friendly way (e.g., "2 days, 3 hours and 45 minutes")
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if len(parts) == 0 && seconds > 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	switch len(parts) {
	case 0:
		return "0 seconds"
	case 1:
		return parts[0]
	}

	result := ""
	for i := 0; i < len(parts)-1; i++ {
		if i > 0 {
			result += ", "
		}
		result += parts[i]
	}
	return result + " and " + parts[len(parts)-1]
}

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage the cached bearer token of the fractal CLI`,
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthTokenCommand())

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to the fractal server",
		Long: `Exchange username and password for a fresh token and store it in the token cache.

Examples:
  # Prompt for the password
  fractal auth login -u user@example.com

  # Non-interactive
  FRACTAL_USER=user@example.com FRACTAL_PASSWORD=secret fractal auth login`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			settings := cliCtx.Settings

			if err := ensureCredentials(settings, cmd.InOrStdin(), cmd.ErrOrStderr(), true); err != nil {
				return err
			}

			return client.WithGateway(cmd.Context(), settings.GatewayConfig(), func(ctx context.Context, g *client.Gateway) error {
				tok, err := g.Tokens().Refresh(ctx)
				if err != nil {
					return err
				}

				p := cliCtx.printer(cmd)
				if p.batch {
					p.Batch(tok.Raw)
					return nil
				}
				p.Line("✓ Successfully logged in as %s", settings.Username)
				if exp, err := tok.Expiry(); err == nil {
					p.Line("  Token expires: %s", p.Time(exp))
				}
				return nil
			})
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the cached token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			cache, err := client.NewTokenCache(cliCtx.Settings.CachePath)
			if err != nil {
				return err
			}
			if err := cache.Remove(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			cliCtx.printer(cmd).Line("✓ Successfully logged out")
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  `Show what the token cache holds. No request is sent to the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			p := cliCtx.printer(cmd)

			cache, err := client.NewTokenCache(cliCtx.Settings.CachePath)
			if err != nil {
				return err
			}
			raw, found, err := cache.Load()
			if err != nil {
				return err
			}
			if !found {
				p.Line("Not logged in")
				return nil
			}

			tok := client.Token{Raw: raw}
			p.Line("Server: %s", cliCtx.Settings.ServerURL)
			if subject := tokenSubject(raw); subject != "" {
				p.Line("Logged in as: %s", subject)
			}
			p.Line("Token cache: %s", cache.Path())

			exp, err := tok.Expiry()
			if err != nil {
				p.Line("⚠  Cached token is unreadable (%v) - a new login will happen on the next request", err)
				return nil
			}
			p.Line("Token expires: %s", p.Time(exp))

			now := time.Now()
			if !now.Before(exp) {
				p.Line("⚠  Token expired %s ago - a new login will happen on the next request", formatDuration(now.Sub(exp)))
			} else {
				p.Line("✓  Valid for %s", formatDuration(exp.Sub(now)))
			}
			return nil
		},
	}
}

func newAuthTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token, logging in first if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				tok, err := g.Tokens().EnsureValid(ctx)
				if err != nil {
					return err
				}
				cliCtx.printer(cmd).Batch(tok.Raw)
				return nil
			})
		},
	}
}

// tokenSubject returns the email (or subject) claim of a token without
// verifying it
func tokenSubject(raw string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		return email
	}
	sub, _ := claims.GetSubject()
	return sub
}

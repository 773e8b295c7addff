package cli

import (
	"errors"
	"fmt"

	"github.com/devilmonastery/fractal/internal/client"
)

// ExitError ends the command with Message on stderr and a specific exit code
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// ExitCode returns the process exit code for err
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// FormatError turns err into an actionable message. The three failure kinds
// of the token manager each get their own hint.
func FormatError(err error) string {
	var (
		exitErr *ExitError
		authErr *client.AuthenticationError
		apiErr  *client.APIError
	)

	switch {
	case errors.As(err, &exitErr):
		return exitErr.Message
	case errors.As(err, &authErr):
		reason := authErr.Detail
		if reason == "" {
			reason = authErr.Body
		}
		return fmt.Sprintf("Authentication failed (status %d): %s\n"+
			"Check the username and password (-u/-p, %s/%s).",
			authErr.StatusCode, reason, EnvUser, EnvPassword)
	case errors.Is(err, client.ErrServerUnreachable):
		return fmt.Sprintf("%v\n"+
			"Check %s or the server URL of the current context ('fractal config show').",
			err, EnvServer)
	case errors.Is(err, client.ErrCacheUnwritable):
		return fmt.Sprintf("Logged in, but the token could not be saved: %v\n"+
			"Check the permissions of the cache path or set %s.",
			err, EnvCachePath)
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Error: %v", apiErr)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

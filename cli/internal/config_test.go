package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fractal.yaml")
	t.Setenv(ConfigEnvVar, path)

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "local", config.CurrentContext)

	ctx, err := config.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:10080", ctx.Server.URL)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfig_RoundTrip(t *testing.T) {
	t.Setenv(ConfigEnvVar, filepath.Join(t.TempDir(), "fractal.yaml"))

	config := DefaultConfig()
	prod := &Context{}
	prod.Server.URL = "https://fractal.example.com"
	prod.Auth.Username = "me@example.com"
	prod.Session.CachePath = "/tmp/prod-session"
	prod.Rendering.Theme = "dark"
	config.AddContext("prod", prod)
	require.NoError(t, config.SetCurrentContext("prod"))
	require.NoError(t, SaveConfig(config))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "prod", loaded.CurrentContext)
	assert.Equal(t, prod, loaded.Contexts["prod"])
}

func TestConfig_ContextErrors(t *testing.T) {
	config := DefaultConfig()

	assert.Error(t, config.SetCurrentContext("missing"))
	assert.Error(t, config.DeleteContext("local"), "current context cannot be deleted")
	assert.Error(t, config.DeleteContext("missing"))

	config.CurrentContext = "gone"
	_, err := config.GetCurrentContext()
	assert.Error(t, err)

	config.CurrentContext = ""
	_, err = config.GetCurrentContext()
	assert.Error(t, err)
}

func TestContext_CachePath(t *testing.T) {
	ctx := &Context{}
	ctx.Session.CachePath = "/explicit/path"
	path, err := ctx.CachePath("prod")
	require.NoError(t, err)
	assert.Equal(t, "/explicit/path", path)

	ctx.Session.CachePath = ""
	path, err = ctx.CachePath("prod")
	require.NoError(t, err)
	assert.Equal(t, "session-prod", filepath.Base(path))
	assert.Equal(t, "fractal", filepath.Base(filepath.Dir(path)))
}

func TestConfigCommands(t *testing.T) {
	newTestEnv(t, "")

	out, err := run(t, "config", "add-context", "prod", "--server", "https://fractal.example.com", "--username", "me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Context \"prod\" added/updated\n", out)

	out, err = run(t, "config", "use-context", "prod")
	require.NoError(t, err)
	assert.Equal(t, "Switched to context \"prod\"\n", out)

	out, err = run(t, "config", "current-context")
	require.NoError(t, err)
	assert.Equal(t, "prod\n", out)

	out, err = run(t, "config", "list-contexts")
	require.NoError(t, err)
	assert.Contains(t, out, "CURRENT")
	assert.Regexp(t, `\*\s+prod\s+https://fractal.example.com\s+me@example.com`, out)
	assert.Regexp(t, `local\s+http://localhost:10080`, out)

	out, err = run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Current context: prod")
	assert.Contains(t, out, "Username: me@example.com")
	assert.Contains(t, out, "session-prod")

	_, err = run(t, "config", "delete-context", "prod")
	assert.Error(t, err)

	_, err = run(t, "config", "use-context", "local")
	require.NoError(t, err)
	out, err = run(t, "config", "delete-context", "prod")
	require.NoError(t, err)
	assert.Equal(t, "Context \"prod\" deleted\n", out)

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.NotContains(t, config.Contexts, "prod")
}

func TestConfigCommands_AddContextValidation(t *testing.T) {
	newTestEnv(t, "")

	_, err := run(t, "config", "add-context", "prod")
	assert.Error(t, err, "--server is required")

	_, err = run(t, "config", "add-context", "prod", "--server", "http://x", "--timezone", "Nowhere/Special")
	assert.ErrorContains(t, err, "unknown timezone")

	_, err = run(t, "config", "add-context", "prod", "--server", "http://x", "--timezone", "Europe/Rome")
	require.NoError(t, err)
	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Rome", config.Contexts["prod"].Rendering.Timezone)
}

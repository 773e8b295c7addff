package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/fractal/internal/client"
	"github.com/devilmonastery/fractal/internal/pkg/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const cliContextKey contextKey = "cliContext"

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	user     string
	password string
	batch    bool
	json     bool
}

// CliContext holds shared CLI context
type CliContext struct {
	Config   *Config
	Settings *Settings
	Flags    *globalFlags
	Logger   *slog.Logger
}

// Global logging flags
var (
	logLevel      string
	logFile       string
	logToStderr   bool
	alsoLogStderr bool
	logFormat     string
)

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var ctx CliContext
	flags := &globalFlags{}
	ctx.Flags = flags

	rootCmd := &cobra.Command{
		Use:           "fractal",
		Short:         "CLI for the fractal server",
		Long:          `A command line interface for managing projects, datasets and workflows on a fractal server.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors (main.go handles it)
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}

			ctx.Logger = logger.WithCommand(slog.Default().With("component", "cli"), cmd.CommandPath())
			ctx.Logger.Debug("CLI started")

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			ctx.Config = config

			// Config commands must work before any server is configured
			if !isConfigCommand(cmd) {
				settings, err := resolveSettings(config, flags, os.Getenv)
				if err != nil {
					return err
				}
				ctx.Settings = settings
				ctx.Logger.Debug("resolved settings",
					"context", settings.ContextName,
					"server", settings.ServerURL,
					"username", settings.Username,
					"cache_path", settings.CachePath)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &ctx))
			return nil
		},
	}

	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newProjectCommand())
	rootCmd.AddCommand(newDatasetCommand())
	rootCmd.AddCommand(newWorkflowCommand())
	rootCmd.AddCommand(newJobCommand())

	rootCmd.PersistentFlags().StringVarP(&flags.user, "user", "u", "",
		"Username for the login exchange (overrides "+EnvUser+")")
	rootCmd.PersistentFlags().StringVarP(&flags.password, "password", "p", "",
		"Password for the login exchange (overrides "+EnvPassword+")")
	rootCmd.PersistentFlags().BoolVar(&flags.batch, "batch", false,
		"Print bare values suitable for scripts")
	rootCmd.PersistentFlags().BoolVar(&flags.json, "json", false,
		"Print results as JSON")

	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	rootCmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false,
		"Log to stderr (default behavior unless --log-file specified)")
	rootCmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false,
		"Log to both file and stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")

	return rootCmd
}

// setupLogging configures the global logger based on CLI flags
func setupLogging() error {
	// Default to stderr logging unless file is specified
	if logFile == "" {
		logToStderr = true
	}

	cfg := logger.Config{
		Level:         logger.ParseLevel(logLevel),
		LogFile:       logFile,
		LogToStderr:   logToStderr,
		AlsoLogStderr: alsoLogStderr,
		Format:        logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	slog.SetDefault(globalLogger)
	return nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}

// getCliContext extracts the CLI context from the command context
func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}

// printer returns the output printer for cmd
func (c *CliContext) printer(cmd *cobra.Command) *printer {
	if c.Settings == nil {
		return newPrinter(cmd.OutOrStdout(), c.Flags, "auto", "")
	}
	return newPrinter(cmd.OutOrStdout(), c.Flags, c.Settings.Theme, c.Settings.Timezone)
}

// withGateway runs fn against an authenticated gateway that is closed
// when fn returns
func (c *CliContext) withGateway(cmd *cobra.Command, fn func(ctx context.Context, g *client.Gateway) error) error {
	if err := ensureCredentials(c.Settings, cmd.InOrStdin(), cmd.ErrOrStderr(), false); err != nil {
		return err
	}
	return client.WithGateway(cmd.Context(), c.Settings.GatewayConfig(), fn)
}

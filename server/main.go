package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/fractal/internal/auth"
	"github.com/devilmonastery/fractal/internal/config"
	"github.com/devilmonastery/fractal/internal/domain/services"
	"github.com/devilmonastery/fractal/internal/infrastructure/memory"
	"github.com/devilmonastery/fractal/internal/pkg/idgen"
	"github.com/devilmonastery/fractal/internal/pkg/logger"
	"github.com/devilmonastery/fractal/internal/version"
	"github.com/devilmonastery/fractal/server/internal/api"
)

const shutdownTimeout = 30 * time.Second

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath    string
		nodeID        int64
		logLevel      string
		logFile       string
		logToStderr   bool
		alsoLogStderr bool
		logFormat     string
	)

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Fractal HTTP server",
		Long:          "The HTTP server issuing bearer tokens and accepting workflow submissions for fractal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return setupServerLogging(logLevel, logFile, logToStderr, alsoLogStderr, logFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, configPath, nodeID)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (optional)")
	cmd.Flags().Int64Var(&nodeID, "node-id", 1, "Snowflake node ID used for job and request IDs (0-1023)")

	// Add logging flags
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (if specified, logs to file instead of stderr)")
	cmd.Flags().BoolVar(&logToStderr, "logtostderr", false, "Log to stderr (default behavior unless --log-file specified)")
	cmd.Flags().BoolVar(&alsoLogStderr, "alsologtostderr", false, "Log to both file and stderr")
	cmd.Flags().StringVar(&logFormat, "log-format", "json", "Log format (text, json)")

	// Add subcommands
	cmd.AddCommand(newUserCommand())

	return cmd
}

// setupServerLogging configures the global logger for the server
func setupServerLogging(logLevel, logFile string, logToStderr, alsoLogStderr bool, logFormat string) error {
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

	// Set as default logger
	slog.SetDefault(globalLogger)

	return nil
}

func runServer(ctx context.Context, configPath string, nodeID int64) error {
	log := slog.Default().With("component", "server")
	log.Info("starting server initialization", "version", version.Version)

	// Initialize Snowflake ID generator
	if err := idgen.Initialize(nodeID); err != nil {
		return fmt.Errorf("failed to initialize ID generator: %w", err)
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(cfg.Auth.Users) == 0 {
		log.Warn("no users configured, every login will be rejected")
	}

	userRepo := memory.NewUserRepository(cfg.Auth.Users)
	jobRepo := memory.NewJobRepository()

	jwtManager := auth.NewJWTManager(cfg.Auth.JWT.SigningKey, cfg.Auth.JWT.Lifetime)
	authService := services.NewAuthService(userRepo, jwtManager)
	dispatcher := services.NewDispatcher(services.NewLogRunner(), jobRepo, cfg.Runner.Workers)

	router := api.NewRouter(api.RouterConfig{
		AuthService:    authService,
		Dispatcher:     dispatcher,
		DeploymentType: cfg.DeploymentType,
		Version:        version.Version,
		Logger:         slog.Default().With("component", "http"),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting",
			"address", srv.Addr,
			"deployment_type", cfg.DeploymentType,
			"users", len(cfg.Auth.Users),
			"workers", cfg.Runner.Workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error("dispatcher shutdown timed out", "error", err)
	}

	log.Info("server stopped")
	return nil
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR.
// References to unset variables are kept verbatim so bcrypt hashes such as
// "$2a$10$..." survive expansion.
func expandEnvVars(data []byte) []byte {
	return []byte(os.Expand(string(data), func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "$" + name
	}))
}

// DefaultConfigPaths defines the default locations to search for configuration files
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./configs/config.yaml",
	"./configs/config.yml",
	"./configs/development.yaml",
	"/etc/fractal/config.yaml",
	"/etc/fractal/config.yml",
}

// Defaults returns a configuration populated with default values only
func Defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Host: "localhost",
			Port: 10080,
		},
		Auth: AuthConfig{
			JWT: JWTConfig{
				Lifetime: time.Hour,
			},
		},
		Runner: RunnerConfig{
			Workers: 2,
		},
		DeploymentType: "development",
	}
}

// Load loads the configuration from the specified file or default locations
func Load(configPath string) (*Config, error) {
	config := Defaults()

	// If no config path is provided, search in default locations
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		slog.Info("loading config", slog.String("path", configPath))
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the config
		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if configPath != "" {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	} else {
		slog.Info("no config file found, using defaults")
	}

	applyEnvOverrides(config)
	assignUserIDs(config)

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides lets the deployment environment override secrets and
// identity without editing the file
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		config.Auth.JWT.SigningKey = v
	}
	if v := os.Getenv("DEPLOYMENT_TYPE"); v != "" {
		config.DeploymentType = v
	}
	if v := os.Getenv("FRACTAL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.HTTP.Port = port
		}
	}
}

func assignUserIDs(config *Config) {
	for i := range config.Auth.Users {
		if config.Auth.Users[i].ID == "" {
			config.Auth.Users[i].ID = strconv.Itoa(i + 1)
		}
	}
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// validate performs basic validation on the configuration
func validate(config *Config) error {
	if config.HTTP.Port < 1 || config.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535")
	}

	if config.Auth.JWT.SigningKey == "" {
		return fmt.Errorf("auth.jwt.signing_key is required (or set JWT_SECRET_KEY)")
	}
	if config.Auth.JWT.Lifetime <= 0 {
		return fmt.Errorf("auth.jwt.lifetime must be positive")
	}

	if config.Runner.Workers < 1 {
		return fmt.Errorf("runner.workers must be at least 1")
	}

	seenEmail := make(map[string]bool)
	seenID := make(map[string]bool)
	for i, u := range config.Auth.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("auth.users[%d]: email is required", i)
		}
		if u.PasswordHash == "" {
			return fmt.Errorf("auth.users[%d]: password_hash is required", i)
		}
		if seenEmail[email] {
			return fmt.Errorf("auth.users[%d]: duplicate email %q", i, u.Email)
		}
		if seenID[u.ID] {
			return fmt.Errorf("auth.users[%d]: duplicate id %q", i, u.ID)
		}
		seenEmail[email] = true
		seenID[u.ID] = true
	}

	return nil
}

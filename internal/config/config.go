package config

import (
	"fmt"
	"time"
)

// Config represents the fractal server configuration
type Config struct {
	HTTP           HTTPConfig   `yaml:"http"`
	Auth           AuthConfig   `yaml:"auth"`
	Runner         RunnerConfig `yaml:"runner"`
	DeploymentType string       `yaml:"deployment_type" default:"development"` // development, staging, production
}

// HTTPConfig holds the HTTP listener configuration
type HTTPConfig struct {
	Host string `yaml:"host" default:"localhost"`
	Port int    `yaml:"port" default:"10080"`
}

// Addr returns the host:port listen address
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWT   JWTConfig    `yaml:"jwt"`
	Users []UserConfig `yaml:"users"`
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	SigningKey string        `yaml:"signing_key"`           // Secret key for signing JWTs
	Lifetime   time.Duration `yaml:"lifetime" default:"1h"` // How long an issued token stays valid
}

// UserConfig is one entry of the static user directory. Passwords are stored
// as bcrypt hashes (see `server user hash-password`).
type UserConfig struct {
	ID           string `yaml:"id"` // defaults to the 1-based position in the list
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
	Active       *bool  `yaml:"active,omitempty" default:"true"`
	Superuser    bool   `yaml:"superuser"`
}

// IsActive reports whether the user may log in; unset means active
func (u UserConfig) IsActive() bool {
	return u.Active == nil || *u.Active
}

// RunnerConfig controls the background workflow dispatcher
type RunnerConfig struct {
	Workers int `yaml:"workers" default:"2"` // Maximum concurrently running jobs
}

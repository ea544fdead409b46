// Package config provides configuration loading for the icdump-build application.
// Settings come from environment variables and are read once, before any
// build phase starts.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// Environment variable names.
const (
	// EnvCC is the C compiler override.
	EnvCC = "CC"

	// EnvCXX is the C++ compiler override.
	EnvCXX = "CXX"

	// EnvCFlags is the C compiler flags override.
	EnvCFlags = "CFLAGS"

	// EnvCXXFlags is the C++ compiler flags override.
	EnvCXXFlags = "CXXFLAGS"

	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvVCS selects the repository backend (go-git or git).
	EnvVCS = "ICDUMP_VCS"
)

// Repository backends.
const (
	VCSGoGit = "go-git"
	VCSGit   = "git"
)

// Default values.
const (
	DefaultLogLevel   = "info"
	DefaultLogAppName = "icdump-build"
	DefaultVCS        = VCSGoGit
)

// ErrInvalidVCS indicates an unknown repository backend was requested.
var ErrInvalidVCS = errors.New("invalid VCS backend: expected go-git or git")

// Config holds all application configuration.
type Config struct {
	// Toolchain holds the compiler overrides. Unset or empty variables stay empty.
	Toolchain domain.ToolchainOverrides

	// LogLevel is the logging level (debug, info, error).
	LogLevel string

	// LogAppName is the application name for log context.
	LogAppName string

	// VCS is the repository backend used for version resolution.
	VCS string
}

// Load loads the application configuration from environment variables.
func Load() (*Config, error) {
	return LoadWithViper(viper.New())
}

// LoadWithViper loads configuration using the provided viper instance.
// This function enables dependency injection for testing.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_app_name", DefaultLogAppName)
	v.SetDefault("vcs", DefaultVCS)

	bindings := map[string]string{
		"cc":           EnvCC,
		"cxx":          EnvCXX,
		"cflags":       EnvCFlags,
		"cxxflags":     EnvCXXFlags,
		"log_level":    EnvLogLevel,
		"log_app_name": EnvLogAppName,
		"vcs":          EnvVCS,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	vcs, err := ParseVCS(v.GetString("vcs"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Toolchain: domain.ToolchainOverrides{
			CC:       v.GetString("cc"),
			CXX:      v.GetString("cxx"),
			CFlags:   v.GetString("cflags"),
			CXXFlags: v.GetString("cxxflags"),
		},
		LogLevel:   v.GetString("log_level"),
		LogAppName: v.GetString("log_app_name"),
		VCS:        vcs,
	}, nil
}

// ParseVCS validates a repository backend name. Matching is case-insensitive.
func ParseVCS(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case VCSGoGit:
		return VCSGoGit, nil
	case VCSGit:
		return VCSGit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVCS, name)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shape-cli/shape-launcher/pkg/logger"
	"github.com/spf13/viper"
)

const (
	// DefaultHost is the release store serving prebuilt shape archives.
	DefaultHost = "https://github.com"

	// DefaultRepo is the <owner>/<repo> pair of the release store.
	DefaultRepo = "shape-cli/shape"

	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// Config holds all launcher configuration
type Config struct {
	Release ReleaseConfig `mapstructure:"release"`
	Install InstallConfig `mapstructure:"install"`
	Logging logger.Config `mapstructure:"logging"`
}

// ReleaseConfig holds release store and fetch policy configuration
type ReleaseConfig struct {
	Host        string        `mapstructure:"host"`
	Repo        string        `mapstructure:"repo"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// InstallConfig holds local installation configuration
type InstallConfig struct {
	Dir string `mapstructure:"dir"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Release: ReleaseConfig{
			Host:        DefaultHost,
			Repo:        DefaultRepo,
			MaxAttempts: DefaultMaxAttempts,
			RetryDelay:  DefaultRetryDelay,
		},
		Install: InstallConfig{
			Dir: DefaultInstallDir(),
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultInstallDir returns the bin directory next to the launcher
// executable, falling back to ~/.shape/bin when that cannot be resolved.
func DefaultInstallDir() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Join(filepath.Dir(exe), "bin")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "bin")
	}
	return filepath.Join(home, ".shape", "bin")
}

// LoadConfig loads configuration from file and environment
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Default values
	v.SetDefault("release.host", DefaultHost)
	v.SetDefault("release.repo", DefaultRepo)
	v.SetDefault("release.max_attempts", DefaultMaxAttempts)
	v.SetDefault("release.retry_delay", DefaultRetryDelay.String())
	v.SetDefault("install.dir", DefaultInstallDir())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Configuration file name and path
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.shape")
	}

	// Read environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("SHAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	err := v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Bind configuration to struct
	var config Config
	err = v.Unmarshal(&config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}

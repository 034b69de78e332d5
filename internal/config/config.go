// Package config provides configuration management for compvault using
// Viper for flexible configuration loading from files, environment
// variables, and command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with COMPVAULT_ prefix, validation, and security checks. It
// manages server settings, preview behavior (debounce, devices, cache),
// sandbox timeouts, and file watching for the live editing loop.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Preview PreviewConfig `yaml:"preview"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`

	// TargetFiles are CLI arguments, not read from the config file.
	TargetFiles []string `yaml:"-"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	Open           bool     `yaml:"open"`
	NoOpen         bool     `yaml:"no-open"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Environment    string   `yaml:"environment"`
}

type PreviewConfig struct {
	DebounceMs    int     `yaml:"debounce_ms"`
	CacheSize     int     `yaml:"cache_size"`
	DefaultDevice string  `yaml:"default_device"`
	Zoom          float64 `yaml:"zoom"`
}

type SandboxConfig struct {
	LoadTimeoutMs     int `yaml:"load_timeout_ms"`
	MaxConsoleEntries int `yaml:"max_console_entries"`
}

type WatchConfig struct {
	Paths      []string `yaml:"paths"`
	Ignore     []string `yaml:"ignore"`
	DebounceMs int      `yaml:"debounce_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Debounce returns the preview debounce as a duration. Zero means the
// controller default applies.
func (p PreviewConfig) Debounce() time.Duration {
	return time.Duration(p.DebounceMs) * time.Millisecond
}

// LoadTimeout returns the sandbox load timeout as a duration.
func (s SandboxConfig) LoadTimeout() time.Duration {
	return time.Duration(s.LoadTimeoutMs) * time.Millisecond
}

// Debounce returns the watcher debounce as a duration.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle slices set via viper (workaround for viper slice handling)
	if viper.IsSet("watch.paths") && len(config.Watch.Paths) == 0 {
		if paths := viper.GetStringSlice("watch.paths"); len(paths) > 0 {
			config.Watch.Paths = paths
		}
	}
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		if origins := viper.GetStringSlice("server.allowed_origins"); len(origins) > 0 {
			config.Server.AllowedOrigins = origins
		}
	}

	applyDefaults(&config)

	// Override no-open if explicitly set via flag
	if viper.IsSet("server.no-open") && viper.GetBool("server.no-open") {
		config.Server.Open = false
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 && !viper.IsSet("server.port") {
		config.Server.Port = 7878
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}

	if config.Preview.DebounceMs == 0 {
		config.Preview.DebounceMs = 300
	}
	if config.Preview.CacheSize == 0 {
		config.Preview.CacheSize = 64
	}
	if config.Preview.DefaultDevice == "" {
		config.Preview.DefaultDevice = "Responsive"
	}
	if config.Preview.Zoom == 0 {
		config.Preview.Zoom = 1.0
	}

	if config.Sandbox.LoadTimeoutMs == 0 {
		config.Sandbox.LoadTimeoutMs = 8000
	}
	if config.Sandbox.MaxConsoleEntries == 0 {
		config.Sandbox.MaxConsoleEntries = 500
	}

	if len(config.Watch.Paths) == 0 {
		config.Watch.Paths = []string{"."}
	}
	if len(config.Watch.Ignore) == 0 {
		config.Watch.Ignore = []string{"node_modules", ".git"}
	}
	if config.Watch.DebounceMs == 0 {
		config.Watch.DebounceMs = 100
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validatePreviewConfig(&config.Preview); err != nil {
		return fmt.Errorf("preview config: %w", err)
	}
	if err := validateWatchConfig(&config.Watch); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

// validatePreviewConfig validates preview configuration values
func validatePreviewConfig(config *PreviewConfig) error {
	if config.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms must not be negative: %d", config.DebounceMs)
	}
	if config.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative: %d", config.CacheSize)
	}
	if config.Zoom < 0.1 || config.Zoom > 10 {
		return fmt.Errorf("zoom %g is not in valid range 0.1-10", config.Zoom)
	}
	return nil
}

// validateWatchConfig validates watch configuration values
func validateWatchConfig(config *WatchConfig) error {
	for _, path := range config.Paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid watch path '%s': %w", path, err)
		}
	}
	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

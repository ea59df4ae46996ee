// Package config loads baker configuration from the XDG config file and
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// ScanConfig holds scan defaults applied when flags are absent.
type ScanConfig struct {
	MaxDepth        int  `mapstructure:"max_depth"`
	IncludeHidden   bool `mapstructure:"include_hidden"`
	CreateMissing   bool `mapstructure:"create_missing"`
	BackupOriginals bool `mapstructure:"backup_originals"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
	Console    bool              `mapstructure:"console"`
}

// SizeCacheConfig configures the folder-size cache.
type SizeCacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TrackingConfig holds tracking service credentials. These normally
// come from the environment (BAKER_TRACKING_API_KEY and friends), not
// the config file.
type TrackingConfig struct {
	APIKey   string `mapstructure:"api_key"`
	APIToken string `mapstructure:"api_token"`
}

// Config represents the application configuration.
type Config struct {
	DefaultRoot string          `mapstructure:"default_root"`
	LockPath    string          `mapstructure:"lock_path"`
	Scan        ScanConfig      `mapstructure:"scan"`
	SizeCache   SizeCacheConfig `mapstructure:"size_cache"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Tracking    TrackingConfig  `mapstructure:"tracking"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/baker/config.yaml
//   - $HOME/.config/baker/config.yaml
//
// Environment variables are prefixed with BAKER_ (e.g., BAKER_SCAN_MAX_DEPTH).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "baker"))
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "baker"))

	v.SetEnvPrefix("BAKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("default_root", "")
	v.SetDefault("lock_path", DefaultLockPath())
	v.SetDefault("scan.max_depth", DefaultMaxDepth)
	v.SetDefault("scan.include_hidden", false)
	v.SetDefault("scan.create_missing", false)
	v.SetDefault("scan.backup_originals", true)
	v.SetDefault("size_cache.enabled", true)
	v.SetDefault("size_cache.path", DefaultSizeCachePath())
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // Empty means use logging.DefaultLogPath
	v.SetDefault("logging.components", DefaultComponents)
	v.SetDefault("logging.console", false)
	// Defaults make the keys visible to Unmarshal when set via env only.
	v.SetDefault("tracking.api_key", "")
	v.SetDefault("tracking.api_token", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DefaultRoot, err = ExpandPath(cfg.DefaultRoot); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "baker"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "baker"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Baker Configuration

# Default root folder to scan when none is specified
default_root: ""

# Lock file guarding concurrent batch updates
lock_path: %s

# Scan defaults
scan:
  max_depth: %d
  include_hidden: false
  create_missing: false
  backup_originals: true

# Folder-size cache
size_cache:
  enabled: true
  path: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/baker/baker.log)
  path: ""
  # Mirror warnings and errors to stderr
  console: false
  # Per-component log levels
  components:
    scanner: info
    batch: info
    watcher: warn
    preview: info

# Tracking service credentials are read from the environment:
#   BAKER_TRACKING_API_KEY, BAKER_TRACKING_API_TOKEN
`, DefaultLockPath(), DefaultMaxDepth, DefaultSizeCachePath())

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/baker/ for lock files.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "baker")
}

// CacheDir returns $XDG_CACHE_HOME/baker/ for the size cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "baker")
}

// StateDir returns $XDG_STATE_HOME/baker/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "baker")
}

// DefaultLockPath returns the default batch-update lock file path.
func DefaultLockPath() string {
	return filepath.Join(DataDir(), "baker.lock")
}

// DefaultSizeCachePath returns the default size cache location.
func DefaultSizeCachePath() string {
	return filepath.Join(CacheDir(), "sizes")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

// EnsureCacheDir creates the cache directory if it doesn't exist.
func EnsureCacheDir() error {
	if err := os.MkdirAll(CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}

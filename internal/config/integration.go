package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/winlist/internal/logging"
)

// GlobalConfig holds the global configuration instance.
var GlobalConfig *Config        //nolint:gochecknoglobals // Singleton pattern for configuration
var globalConfigMu sync.RWMutex //nolint:gochecknoglobals // Protects GlobalConfig

// InitGlobalConfig loads the config from the default location into the
// global instance. Load failures fall back to defaults plus environment
// overrides; use Load directly to surface them.
func InitGlobalConfig() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()

	if GlobalConfig != nil {
		return
	}
	GlobalConfig = loadDefault()
}

// loadLogger reports problems hit while loading the default config, before
// the CLI has configured logging.
var loadLogger = logging.ComponentLogger( //nolint:gochecknoglobals // Replaced via SetLoadLogger.
	logging.NewLoggerWriter(logging.Config{Level: "warn", Format: logging.FormatConsole}, os.Stderr), "config")

// SetLoadLogger replaces the logger used by InitGlobalConfig for load warnings.
func SetLoadLogger(l zerolog.Logger) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	loadLogger = logging.ComponentLogger(l, "config")
}

func loadDefault() *Config {
	path, err := ResolvePath("")
	if err != nil {
		loadLogger.Warn().Err(err).Msg("cannot resolve config path, using defaults")
	} else {
		cfg, loadErr := Load(path)
		if loadErr == nil {
			return cfg
		}
		loadLogger.Warn().
			Str("operation", "load_config").
			Str("path", path).
			Err(loadErr).
			Msg("failed to load config, using defaults")
	}

	cfg := New()
	if err = cfg.ApplyEnvOverrides(); err != nil {
		loadLogger.Warn().
			Str("operation", "apply_env_overrides").
			Err(err).
			Msg("ignoring invalid environment overrides")
	}
	return cfg
}

// SetGlobalConfig replaces the global instance, typically with a config
// loaded from an explicit --config path.
func SetGlobalConfig(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	GlobalConfig = cfg
}

// ResetGlobalConfigForTest resets the global config for testing purposes.
func ResetGlobalConfigForTest() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	GlobalConfig = nil
}

// GetGlobalConfig returns the global configuration, initializing it if needed.
func GetGlobalConfig() *Config {
	InitGlobalConfig()
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return GlobalConfig
}

// GetLogLevel returns the configured log level.
func GetLogLevel() string {
	return GetGlobalConfig().Logging.Level
}

// GetLogFile returns the configured log file path.
func GetLogFile() string {
	return GetGlobalConfig().Logging.File
}

// GetResizeDebounce returns the configured resize debounce as a duration.
func GetResizeDebounce() time.Duration {
	return time.Duration(GetGlobalConfig().List.ResizeDebounceMs) * time.Millisecond
}

// GetConfigDir returns the winlist configuration directory: WINLIST_HOME if
// set, otherwise ~/.winlist.
func GetConfigDir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".winlist"), nil
}

// GetCacheDir returns the configured cache directory, defaulting to
// "cache" under the config directory.
func GetCacheDir() (string, error) {
	if dir := GetGlobalConfig().Cache.Directory; dir != "" {
		return dir, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cache"), nil
}

// EnsureConfigDir ensures the winlist configuration directory exists.
func EnsureConfigDir() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// EnsureLogDir creates the parent directory of the configured log file.
// It does nothing when no log file is configured.
func EnsureLogDir() error {
	file := GetLogFile()
	if file == "" {
		return nil
	}
	logDir := filepath.Dir(file)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", logDir, err)
	}
	return nil
}

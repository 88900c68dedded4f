// Package config loads, validates and persists the winlist configuration
// file (~/.winlist/config.yaml) and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/rshade/winlist/internal/logging"
	"github.com/rshade/winlist/internal/table"
	"github.com/rshade/winlist/internal/virtual"
)

// CurrentVersion is the config schema version written by New and Save.
const CurrentVersion = "1.0.0"

// supportedVersions is the semver constraint a config file's version must satisfy.
const supportedVersions = ">= 1.0.0, < 2.0.0"

// Defaults applied by New.
const (
	DefaultItemHeight       = 1
	DefaultContainerHeight  = "100%"
	DefaultResizeDebounceMs = 200
	DefaultPageSize         = 25
	DefaultCacheTTLSeconds  = 300
	DefaultLogLevel         = "info"
	DefaultLogFormat        = logging.FormatConsole
)

// Environment variables that override file values.
const (
	EnvConfigPath      = "WINLIST_CONFIG"
	EnvHome            = "WINLIST_HOME"
	EnvLogLevel        = "WINLIST_LOG_LEVEL"
	EnvLogFormat       = "WINLIST_LOG_FORMAT"
	EnvLogFile         = "WINLIST_LOG_FILE"
	EnvItemHeight      = "WINLIST_ITEM_HEIGHT"
	EnvBufferItems     = "WINLIST_BUFFER_ITEMS"
	EnvContainerHeight = "WINLIST_CONTAINER_HEIGHT"
)

var (
	// ErrInvalidConfig is returned when a config value fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrIncompatibleVersion is returned when the file's version is outside the supported range.
	ErrIncompatibleVersion = errors.New("incompatible config version")
)

// Config is the top-level configuration.
type Config struct {
	Version string        `json:"version" yaml:"version"`
	List    ListConfig    `json:"list" yaml:"list"`
	Table   TableConfig   `json:"table" yaml:"table"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Cache   CacheConfig   `json:"cache" yaml:"cache"`

	path string
}

// ListConfig holds defaults for the windowed list view.
type ListConfig struct {
	ItemHeight       int    `json:"item_height" yaml:"item_height"`
	ContainerHeight  string `json:"container_height" yaml:"container_height"`
	BufferItems      int    `json:"buffer_items" yaml:"buffer_items"`
	KeyField         string `json:"key_field" yaml:"key_field"`
	ResizeDebounceMs int    `json:"resize_debounce_ms" yaml:"resize_debounce_ms"`
}

// TableConfig holds defaults for the paginated table view.
type TableConfig struct {
	PageSize  int    `json:"page_size" yaml:"page_size"`
	Sort      string `json:"sort,omitempty" yaml:"sort,omitempty"`
	LatencyMs int    `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"`
}

// LoggingConfig controls log level, format and destination.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// CacheConfig controls the page cache used by the table view.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Directory  string `json:"directory,omitempty" yaml:"directory,omitempty"`
	TTLSeconds int    `json:"ttl_seconds" yaml:"ttl_seconds"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Version: CurrentVersion,
		List: ListConfig{
			ItemHeight:       DefaultItemHeight,
			ContainerHeight:  DefaultContainerHeight,
			BufferItems:      virtual.DefaultBufferItems,
			KeyField:         virtual.DefaultKeyField,
			ResizeDebounceMs: DefaultResizeDebounceMs,
		},
		Table: TableConfig{
			PageSize: DefaultPageSize,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: DefaultCacheTTLSeconds,
		},
	}
}

// ResolvePath returns the config file path: flagValue if set, then
// WINLIST_CONFIG, then config.yaml under the config directory.
func ResolvePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	cfg := New()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err = cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err = cfg.CheckVersion(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file this config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err = os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	c.path = path
	return nil
}

// ApplyEnvOverrides overlays WINLIST_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvContainerHeight); v != "" {
		c.List.ContainerHeight = v
	}
	if v := os.Getenv(EnvItemHeight); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvItemHeight, v)
		}
		c.List.ItemHeight = n
	}
	if v := os.Getenv(EnvBufferItems); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvBufferItems, v)
		}
		c.List.BufferItems = n
	}
	return nil
}

// CheckVersion verifies the config version is within the supported range.
// An empty version is treated as the current one.
func (c *Config) CheckVersion() error {
	if c.Version == "" {
		c.Version = CurrentVersion
		return nil
	}
	v, err := semver.NewVersion(c.Version)
	if err != nil {
		return fmt.Errorf("%w: version %q: %w", ErrIncompatibleVersion, c.Version, err)
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrIncompatibleVersion, v, supportedVersions)
	}
	return nil
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	if err := c.CheckVersion(); err != nil {
		errs = append(errs, err)
	}
	if err := c.List.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Table.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: cache.ttl_seconds must be >= 0, got %d", ErrInvalidConfig, c.Cache.TTLSeconds))
	}
	return errors.Join(errs...)
}

// Validate checks the list section against the renderer's rules.
func (l ListConfig) Validate() error {
	var errs []error
	if l.ItemHeight <= 0 {
		errs = append(errs, fmt.Errorf("%w: list.item_height must be > 0, got %d", ErrInvalidConfig, l.ItemHeight))
	}
	if l.BufferItems < 0 {
		errs = append(errs, fmt.Errorf("%w: list.buffer_items must be >= 0, got %d", ErrInvalidConfig, l.BufferItems))
	}
	if _, err := virtual.ParseHeight(l.ContainerHeight); err != nil {
		errs = append(errs, fmt.Errorf("%w: list.container_height: %w", ErrInvalidConfig, err))
	}
	if strings.TrimSpace(l.KeyField) == "" {
		errs = append(errs, fmt.Errorf("%w: list.key_field must not be empty", ErrInvalidConfig))
	}
	if l.ResizeDebounceMs < 0 {
		errs = append(errs, fmt.Errorf("%w: list.resize_debounce_ms must be >= 0, got %d", ErrInvalidConfig, l.ResizeDebounceMs))
	}
	return errors.Join(errs...)
}

// Validate checks the table section.
func (t TableConfig) Validate() error {
	var errs []error
	if t.PageSize < 1 || t.PageSize > table.MaxPageSize {
		errs = append(errs, fmt.Errorf("%w: table.page_size must be between 1 and %d, got %d",
			ErrInvalidConfig, table.MaxPageSize, t.PageSize))
	}
	if t.Sort != "" {
		if _, _, err := table.ParseSort(t.Sort); err != nil {
			errs = append(errs, fmt.Errorf("%w: table.sort: %w", ErrInvalidConfig, err))
		}
	}
	if t.LatencyMs < 0 {
		errs = append(errs, fmt.Errorf("%w: table.latency_ms must be >= 0, got %d", ErrInvalidConfig, t.LatencyMs))
	}
	return errors.Join(errs...)
}

// Validate checks the logging section.
func (lc LoggingConfig) Validate() error {
	var errs []error
	switch strings.ToLower(lc.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, fmt.Errorf("%w: logging.level %q is not a known level", ErrInvalidConfig, lc.Level))
	}
	switch lc.Format {
	case logging.FormatJSON, logging.FormatConsole, "":
	default:
		errs = append(errs, fmt.Errorf("%w: logging.format must be %q or %q, got %q",
			ErrInvalidConfig, logging.FormatJSON, logging.FormatConsole, lc.Format))
	}
	return errors.Join(errs...)
}

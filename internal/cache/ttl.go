package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL bounds and environment overrides.
const (
	DefaultTTL = 5 * time.Minute
	MinTTL     = time.Second
	MaxTTL     = 7 * 24 * time.Hour

	EnvTTLSeconds   = "WINLIST_CACHE_TTL_SECONDS"
	EnvCacheEnabled = "WINLIST_CACHE_ENABLED"
	EnvCacheDir     = "WINLIST_CACHE_DIR"
)

var ErrInvalidTTL = fmt.Errorf("TTL must be between %s and %s", MinTTL, MaxTTL)

// Settings is the resolved cache configuration.
type Settings struct {
	Enabled   bool
	Directory string
	TTL       time.Duration
}

// ApplyEnv overlays WINLIST_CACHE_* variables onto s. Unparseable values
// are ignored.
func (s Settings) ApplyEnv() Settings {
	if v := os.Getenv(EnvCacheEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			s.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		s.Directory = v
	}
	if v := os.Getenv(EnvTTLSeconds); v != "" {
		if ttl, err := ParseTTL(v); err == nil {
			s.TTL = ttl
		}
	}
	return s
}

// Open builds a FileStore from s.
func (s Settings) Open() (*FileStore, error) {
	ttl := s.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return NewFileStore(s.Directory, s.Enabled, ttl)
}

// ParseTTL accepts integer seconds ("300") or a duration ("5m", "1h30m").
func ParseTTL(s string) (time.Duration, error) {
	var d time.Duration
	if seconds, err := strconv.Atoi(s); err == nil {
		d = time.Duration(seconds) * time.Second
	} else {
		parsed, parseErr := time.ParseDuration(s)
		if parseErr != nil {
			return 0, fmt.Errorf("invalid TTL format: %w", parseErr)
		}
		d = parsed
	}
	if d < MinTTL || d > MaxTTL {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
	}
	return d, nil
}

// FormatDuration renders d compactly: "30s", "5m", "2h30m", "3d2h".
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < 24*time.Hour:
		h, m := int(d.Hours()), int(d.Minutes())%60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		days, h := int(d.Hours())/24, int(d.Hours())%24
		if h == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd%dh", days, h)
	}
}

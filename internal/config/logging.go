package config

import (
	"github.com/rshade/winlist/internal/logging"
)

// ToLoggingConfig converts the logging section to a logging.Config.
// A configured file switches output to that file; otherwise logs go to
// stderr. debug forces the debug level.
func (lc LoggingConfig) ToLoggingConfig(debug bool) logging.Config {
	out := logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: logging.OutputStderr,
		File:   lc.File,
	}
	if lc.File != "" {
		out.Output = logging.OutputFile
	}
	if debug {
		out.Level = "debug"
		out.Caller = true
	}
	return out
}

// GetLoggingConfig returns a copy of the global logging section.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}

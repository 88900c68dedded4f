package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/winlist/internal/config"
	"github.com/rshade/winlist/internal/logging"
)

// setupLogging configures logging from the global config and CLI flags.
// Commands that own the terminal log to a file so log lines do not tear
// the display.
func setupLogging(cmd *cobra.Command) logging.LogPathResult {
	loggingCfg := config.GetLoggingConfig()
	debug, _ := cmd.Flags().GetBool("debug")

	if cmd.Annotations[annotationTUI] == "true" && loggingCfg.File == "" {
		if dir, err := config.GetConfigDir(); err == nil {
			loggingCfg.File = filepath.Join(dir, "logs", "winlist.log")
		}
	}

	if loggingCfg.File != "" {
		if err := config.EnsureLogDir(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
		}
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig(debug))
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	} else if result.UsingFile && debug {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().Ctx(ctx).Str("command", cmd.Name()).Msg("command started")
	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(_ *cobra.Command, logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}

// Package logging builds the zerolog loggers used across winlist.
//
// Loggers are configured from logging.Config (level, format, output). When a
// file output cannot be opened the logger falls back to stderr and reports
// why, so interactive commands can warn before the terminal UI takes over.
// Trace IDs travel in the context and are stamped onto events logged with
// Ctx(ctx).
package logging

// Package logging builds the structured loggers used by tracegraph and turns
// traceability errors into log records.
//
// Library packages never log through a global: they accept a *slog.Logger
// (graph.WithLogger, store.WithLogger) and default to Discard.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/tracegraph/internal/graph"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel parses debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

// ValidFormat reports whether format names a supported output format.
// An empty format means text.
func ValidFormat(format string) bool {
	switch format {
	case "", FormatText, FormatJSON:
		return true
	default:
		return false
	}
}

// New returns a logger writing records at or above level to w, as
// human-readable text or JSON.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "", FormatText:
		handler = slog.NewTextHandler(w, opts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	return slog.New(handler), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ReportDiagnostics logs err and returns the number of records written.
//
// Every error contained in a *graph.AggregateValidationError becomes its own
// warning, so one failing self-test yields one line per problem. Any other
// error is logged once at error level. Each record carries the diagnostic
// code and, when known, the document the problem belongs to.
func ReportDiagnostics(logger *slog.Logger, err error) int {
	if err == nil {
		return 0
	}

	if !graph.IsValidationError(err) {
		logger.Error(err.Error(), diagnosticAttrs(err)...)
		return 1
	}

	errs := graph.Flatten(err)
	for _, e := range errs {
		logger.Warn(e.Error(), diagnosticAttrs(e)...)
	}
	return len(errs)
}

func diagnosticAttrs(err error) []any {
	attrs := []any{slog.String("code", graph.CodeOf(err))}
	if doc := graph.DocumentOf(err); doc != "" {
		attrs = append(attrs, slog.String("document", doc))
	}
	return attrs
}

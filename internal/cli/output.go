package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/tracegraph/internal/compiler"
	"github.com/roach88/tracegraph/internal/graph"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure, items not related
	ExitCommandError = 2 // Command error (invalid paths, unreadable config, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E204", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Diagnostic is one problem found while loading, ingesting or self-testing.
type Diagnostic struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Document string `json:"document,omitempty"`
	Source   string `json:"source,omitempty"`
	Line     int    `json:"line,omitempty"`
}

func (d Diagnostic) String() string {
	var loc string
	switch {
	case d.Source != "" && d.Line > 0:
		loc = fmt.Sprintf(" (%s:%d)", d.Source, d.Line)
	case d.Source != "":
		loc = fmt.Sprintf(" (%s)", d.Source)
	case d.Document != "":
		loc = fmt.Sprintf(" (document %s)", d.Document)
	}
	return fmt.Sprintf("[%s] %s%s", d.Code, d.Message, loc)
}

// diagnosticsOf converts errors to diagnostics, expanding aggregated
// self-test errors into one diagnostic each.
func diagnosticsOf(errs ...error) []Diagnostic {
	var diags []Diagnostic
	for _, err := range errs {
		for _, e := range graph.Flatten(err) {
			diags = append(diags, diagnosticOf(e))
		}
	}
	return diags
}

func diagnosticOf(err error) Diagnostic {
	var (
		verr    compiler.ValidationError
		loadErr *compiler.LoadError
	)
	switch {
	case errors.As(err, &verr):
		return Diagnostic{
			Code:    verr.Code,
			Message: fmt.Sprintf("%s: %s", verr.Field, verr.Message),
			Source:  verr.Source,
			Line:    verr.Line,
		}
	case errors.As(err, &loadErr):
		d := Diagnostic{Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			d.Source = loadErr.Pos.Filename()
			d.Line = loadErr.Pos.Line()
		}
		return d
	default:
		code := graph.CodeOf(err)
		return Diagnostic{
			Code:     code,
			Message:  strings.TrimPrefix(err.Error(), "["+code+"] "),
			Document: graph.DocumentOf(err),
		}
	}
}

// logProblems logs one warning per load or ingestion problem and returns the
// number logged.
func logProblems(logger *slog.Logger, errs []error) int {
	diags := diagnosticsOf(errs...)
	for _, d := range diags {
		attrs := []any{slog.String("code", d.Code)}
		if d.Document != "" {
			attrs = append(attrs, slog.String("document", d.Document))
		}
		if d.Source != "" {
			attrs = append(attrs, slog.String("source", d.Source))
		}
		if d.Line > 0 {
			attrs = append(attrs, slog.Int("line", d.Line))
		}
		logger.Warn(d.Message, attrs...)
	}
	return len(diags)
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool         `json:"valid"`
	Items       int          `json:"items"`
	Document    string       `json:"document,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

type validateOptions struct {
	document string
	snapshot string
	id       string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [sources-dir]",
		Short: "Check a collection for traceability errors",
		Long: `Load every declaration source, ingest it and self-test the collection.

Reports every problem found: invalid declarations, duplicate items, unknown
relations, undefined placeholders, dangling targets and missing reverse links.
With --document only items of that document (and items without one) are
checked. With --snapshot a stored snapshot is re-validated instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.document, "document", "", "only check items of this document")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "validate a snapshot from this database instead of sources")
	cmd.Flags().StringVar(&opts.id, "id", "", "snapshot id (default: latest)")

	return cmd
}

func runValidate(rootOpts *RootOptions, opts *validateOptions, args []string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return fail(formatter, err)
	}
	document := opts.document
	if document == "" {
		document = cfg.Document
	}

	var built *buildResult
	if opts.snapshot != "" {
		built, err = rootOpts.buildFromSnapshot(cmd.Context(), cmd, opts.snapshot, opts.id)
	} else {
		var dir string
		if dir, err = rootOpts.sourcesDir(args); err == nil {
			built, err = rootOpts.buildFromSources(cmd, dir)
		}
	}
	if err != nil {
		return fail(formatter, err)
	}
	formatter.VerboseLog("Loaded %d source file(s), %d item(s)", built.FileCount, built.Collection.Len())

	diags := diagnosticsOf(built.Problems...)
	diags = append(diags, diagnosticsOf(built.Collection.SelfTest(document))...)

	result := ValidationResult{
		Valid:       len(diags) == 0,
		Items:       built.Collection.Len(),
		Document:    document,
		Diagnostics: diags,
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Collection consistent (%d items)\n", result.Items)
	return nil
}

// outputValidationErrors outputs every diagnostic of a failed validation.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	diags := result.Diagnostics
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    diags[0].Code,
				Message: diags[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(diags)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, d := range diags {
		fmt.Fprintf(formatter.Writer, "  %s\n", d)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(diags)))
}

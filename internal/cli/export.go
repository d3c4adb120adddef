package cli

import (
	"cmp"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/compiler"
	"github.com/roach88/tracegraph/internal/logging"
	"github.com/roach88/tracegraph/internal/store"
)

// ExportResult holds export results.
type ExportResult struct {
	Items      int    `json:"items"`
	Output     string `json:"output,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Warnings   int    `json:"warnings"`
}

type exportOptions struct {
	output string
	db     string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export [sources-dir]",
		Short: "Export the collection as canonical JSON or a SQLite snapshot",
		Long: `Load and ingest every declaration source, self-test the collection and
export it.

Problems found are logged as warnings; the export is written regardless.
-o writes the canonical JSON document ("-" for stdout), --db appends a
snapshot to a SQLite database. Defaults come from export.json and export.db
in the configuration.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "JSON output file (- for stdout)")
	cmd.Flags().StringVar(&opts.db, "db", "", "SQLite database to append a snapshot to")

	return cmd
}

func runExport(rootOpts *RootOptions, opts *exportOptions, args []string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return fail(formatter, err)
	}
	output := cmp.Or(opts.output, cfg.Export.JSON)
	dbPath := cmp.Or(opts.db, cfg.Export.DB)
	if output == "" && dbPath == "" {
		return fail(formatter, &commandError{
			Code:    compiler.ErrCodeGeneric,
			Message: "no export destination: use -o or --db",
		})
	}
	if output == "-" && formatter.Format == "json" {
		return fail(formatter, &commandError{
			Code:    compiler.ErrCodeGeneric,
			Message: "-o - cannot be combined with --format json",
		})
	}

	dir, err := rootOpts.sourcesDir(args)
	if err != nil {
		return fail(formatter, err)
	}
	built, err := rootOpts.buildFromSources(cmd, dir)
	if err != nil {
		return fail(formatter, err)
	}
	logger, err := rootOpts.newLogger(cmd)
	if err != nil {
		return fail(formatter, err)
	}
	coll := built.Collection

	warnings := logProblems(logger, built.Problems)
	warnings += logging.ReportDiagnostics(logger, coll.SelfTest(cfg.Document))

	result := ExportResult{Items: coll.Len(), Warnings: warnings}

	switch output {
	case "":
	case "-":
		if err := coll.Export(cmd.OutOrStdout()); err != nil {
			return fail(formatter, &commandError{Code: compiler.ErrCodeWriteFailed, Message: "cannot write export", Err: err})
		}
	default:
		if err := coll.ExportFile(output); err != nil {
			return fail(formatter, &commandError{Code: compiler.ErrCodeWriteFailed, Message: "cannot write export", Err: err})
		}
		result.Output = output
		formatter.VerboseLog("Wrote %s", output)
	}

	if dbPath != "" {
		id, err := writeSnapshot(cmd, logger, dbPath, built)
		if err != nil {
			return fail(formatter, err)
		}
		result.SnapshotID = id
		formatter.VerboseLog("Stored snapshot %s in %s", id, dbPath)
	}

	if output == "-" {
		return nil
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if result.Output != "" {
		fmt.Fprintf(formatter.Writer, "✓ Exported %d items to %s\n", result.Items, result.Output)
	}
	if result.SnapshotID != "" {
		fmt.Fprintf(formatter.Writer, "✓ Stored snapshot %s (%d items) in %s\n", result.SnapshotID, result.Items, dbPath)
	}
	if warnings > 0 {
		fmt.Fprintf(formatter.Writer, "%d warning(s) reported\n", warnings)
	}
	return nil
}

func writeSnapshot(cmd *cobra.Command, logger *slog.Logger, dbPath string, built *buildResult) (string, error) {
	s, err := store.Open(dbPath, store.WithLogger(logger))
	if err != nil {
		return "", &commandError{Code: compiler.ErrCodeWriteFailed, Message: "cannot open snapshot store " + dbPath, Err: err}
	}
	defer s.Close()

	coll := built.Collection
	id := store.NewSnapshotID()
	if err := s.WriteSnapshot(cmd.Context(), id, coll.Registry().Pairs(), coll.Records()); err != nil {
		return "", &commandError{Code: compiler.ErrCodeWriteFailed, Message: "cannot write snapshot", Err: err}
	}
	logger.Debug("snapshot written", "db", dbPath, "id", id)
	return id, nil
}

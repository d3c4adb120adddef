package cli

import (
	"cmp"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/compiler"
	"github.com/roach88/tracegraph/internal/store"
)

// SnapshotsResult lists the snapshots of a database.
type SnapshotsResult struct {
	Snapshots []store.SnapshotInfo `json:"snapshots"`
}

// NewSnapshotsCommand creates the snapshots command.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List the snapshots stored in a database",
		Long: `List the snapshots stored in a SQLite database in the order they were
written. The database defaults to export.db from the configuration.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return fail(formatter, err)
			}
			path := cmp.Or(dbPath, cfg.Export.DB)
			if path == "" {
				return fail(formatter, &commandError{Code: compiler.ErrCodeGeneric, Message: "no database: use --db"})
			}
			logger, err := rootOpts.newLogger(cmd)
			if err != nil {
				return fail(formatter, err)
			}

			s, err := openExistingStore(path, logger)
			if err != nil {
				return fail(formatter, err)
			}
			defer s.Close()

			infos, err := s.ListSnapshots(cmd.Context())
			if err != nil {
				return fail(formatter, &commandError{Code: compiler.ErrCodeLoadFailed, Message: "cannot list snapshots", Err: err})
			}

			if formatter.Format == "json" {
				return formatter.Success(SnapshotsResult{Snapshots: infos})
			}
			for _, info := range infos {
				fmt.Fprintf(formatter.Writer, "%d\t%s\t%d items\t(export %s, tool %s)\n",
					info.Seq, info.ID, info.ItemCount, info.ExportVersion, info.ToolVersion)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite snapshot database")

	return cmd
}

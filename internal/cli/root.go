package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/config"
	"github.com/roach88/tracegraph/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tracegraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tracegraph",
		Short: "tracegraph - requirements traceability",
		Long: `Collect traceable items and the typed relations between them, check the
collection for dangling references and missing reverse links, and export it
as canonical JSON or a SQLite snapshot.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultPath, "configuration file")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewRelationsCommand(opts))
	cmd.AddCommand(NewItemsCommand(opts))
	cmd.AddCommand(NewRelatedCommand(opts))
	cmd.AddCommand(NewSnapshotsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// loadConfig loads the configuration once per command invocation.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.cfg = cfg
	return cfg, nil
}

// newLogger builds the diagnostics logger for cmd. Verbose forces debug.
func (o *RootOptions) newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	if o.logger != nil {
		return o.logger, nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log settings", err)
	}
	o.logger = logger
	return logger, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

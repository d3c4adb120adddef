package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/compiler"
	"github.com/roach88/tracegraph/internal/ir"
)

// RelationsResult lists the registered relations.
type RelationsResult struct {
	Relations []ir.RelationDecl `json:"relations"`
}

// NewRelationsCommand creates the relations command.
func NewRelationsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "relations [sources-dir]",
		Short:         "List registered relations and their reverses",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			built, err := rootOpts.buildQueried(cmd, args)
			if err != nil {
				return fail(formatter, err)
			}

			pairs := built.Collection.Registry().Pairs()
			if formatter.Format == "json" {
				return formatter.Success(RelationsResult{Relations: pairs})
			}
			for _, p := range pairs {
				reverse := p.Reverse
				if p.OneWay() {
					reverse = "-"
				}
				fmt.Fprintf(formatter.Writer, "%s -> %s\n", p.Forward, reverse)
			}
			return nil
		},
	}
}

// ItemsResult lists the ids matched by the items command.
type ItemsResult struct {
	Items []string `json:"items"`
}

type itemsOptions struct {
	pattern string
	attrs   []string
}

// NewItemsCommand creates the items command.
func NewItemsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &itemsOptions{}

	cmd := &cobra.Command{
		Use:   "items [sources-dir]",
		Short: "List real items matching an id pattern and attribute filters",
		Long: `List the ids of real items whose id matches --pattern and whose attributes
match every --attr filter. Patterns are regular expressions anchored at the
start of the value. Placeholders are never listed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			filters, err := parseAttrFilters(opts.attrs)
			if err != nil {
				return fail(formatter, err)
			}
			built, err := rootOpts.buildQueried(cmd, args)
			if err != nil {
				return fail(formatter, err)
			}

			ids, err := built.Collection.GetItems(opts.pattern, filters)
			if err != nil {
				return fail(formatter, &commandError{Code: compiler.ErrCodeGeneric, Message: "invalid pattern", Err: err})
			}
			if formatter.Format == "json" {
				return formatter.Success(ItemsResult{Items: ids})
			}
			for _, id := range ids {
				fmt.Fprintln(formatter.Writer, id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "item id pattern")
	cmd.Flags().StringArrayVar(&opts.attrs, "attr", nil, "attribute filter name=pattern (repeatable)")

	return cmd
}

// parseAttrFilters parses name=pattern flags into a filter map.
func parseAttrFilters(flags []string) (map[string]string, error) {
	filters := make(map[string]string, len(flags))
	for _, f := range flags {
		name, pattern, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, &commandError{
				Code:    compiler.ErrCodeGeneric,
				Message: fmt.Sprintf("invalid --attr %q: want name=pattern", f),
			}
		}
		filters[name] = pattern
	}
	return filters, nil
}

// RelatedResult reports the outcome of the related command.
type RelatedResult struct {
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	Relations []string `json:"relations,omitempty"`
	Related   bool     `json:"related"`
}

// NewRelatedCommand creates the related command.
func NewRelatedCommand(rootOpts *RootOptions) *cobra.Command {
	var relations []string

	cmd := &cobra.Command{
		Use:   "related [sources-dir] <source> <target>",
		Short: "Check whether one item records another under a relation",
		Long: `Report whether <source> records <target> under any of the --relation
names, or under any registered relation when none is given. Exits with 1
when the items are not related.`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			built, err := rootOpts.buildQueried(cmd, args[:len(args)-2])
			if err != nil {
				return fail(formatter, err)
			}

			result := RelatedResult{
				Source:    args[len(args)-2],
				Target:    args[len(args)-1],
				Relations: relations,
			}
			result.Related = built.Collection.AreRelated(result.Source, relations, result.Target)

			if formatter.Format == "json" {
				if err := formatter.Success(result); err != nil {
					return err
				}
			} else if result.Related {
				fmt.Fprintf(formatter.Writer, "✓ %s is related to %s\n", result.Source, result.Target)
			} else {
				fmt.Fprintf(formatter.Writer, "✗ %s is not related to %s\n", result.Source, result.Target)
			}

			if !result.Related {
				return NewExitError(ExitFailure, fmt.Sprintf("%s is not related to %s", result.Source, result.Target))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&relations, "relation", nil, "relation to check (repeatable, default: all)")

	return cmd
}

// buildQueried builds the collection for a read-only query. Load and
// ingestion problems are logged and do not stop the query.
func (o *RootOptions) buildQueried(cmd *cobra.Command, args []string) (*buildResult, error) {
	dir, err := o.sourcesDir(args)
	if err != nil {
		return nil, err
	}
	built, err := o.buildFromSources(cmd, dir)
	if err != nil {
		return nil, err
	}
	logger, err := o.newLogger(cmd)
	if err != nil {
		return nil, err
	}
	logProblems(logger, built.Problems)
	return built, nil
}

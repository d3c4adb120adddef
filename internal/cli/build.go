package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/compiler"
	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/store"
)

// buildResult is a collection together with the problems found while
// loading and ingesting it.
type buildResult struct {
	Collection *graph.Collection
	Problems   []error
	FileCount  int
}

// sourcesDir returns the first positional argument, or the configured
// sources directory when none is given.
func (o *RootOptions) sourcesDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Sources, nil
}

// buildFromSources loads every source below dir and ingests it into a new
// collection, collecting every problem. Relations from the configuration are
// registered before those declared in the sources.
//
// A source directory that cannot be read at all is a command error.
func (o *RootOptions) buildFromSources(cmd *cobra.Command, dir string) (*buildResult, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := o.newLogger(cmd)
	if err != nil {
		return nil, err
	}

	loaded, loadErrs := compiler.LoadDir(dir, compiler.LoadModeCollectAll)
	if loaded == nil {
		return nil, commandErrorFrom(loadErrs)
	}
	logger.Debug("sources loaded",
		"dir", dir,
		"files", loaded.FileCount,
		"relations", len(loaded.Relations),
		"items", len(loaded.Items))

	configured, configErrs := validRelations(cfg.Relations, o.ConfigPath)

	coll := graph.New(graph.WithLogger(logger))
	relations := slices.Concat(configured, loaded.Relations)
	applyErrs := compiler.Apply(coll, relations, loaded.Items, compiler.LoadModeCollectAll)

	return &buildResult{
		Collection: coll,
		Problems:   slices.Concat(configErrs, loadErrs, applyErrs),
		FileCount:  loaded.FileCount,
	}, nil
}

// validRelations drops configured relations that fail the same checks as
// relations declared in sources, reporting each problem against source.
func validRelations(decls []ir.RelationDecl, source string) ([]ir.RelationDecl, []error) {
	var (
		valid []ir.RelationDecl
		errs  []error
	)
	for _, decl := range decls {
		verrs := compiler.Validate(decl)
		if len(verrs) == 0 {
			valid = append(valid, decl)
			continue
		}
		for _, verr := range verrs {
			verr.Source = source
			errs = append(errs, verr)
		}
	}
	return valid, errs
}

// buildFromSnapshot restores a stored snapshot; an empty id means the latest.
func (o *RootOptions) buildFromSnapshot(ctx context.Context, cmd *cobra.Command, dbPath, id string) (*buildResult, error) {
	logger, err := o.newLogger(cmd)
	if err != nil {
		return nil, err
	}

	s, err := openExistingStore(dbPath, logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var snap *store.Snapshot
	if id == "" {
		snap, err = s.LatestSnapshot(ctx)
	} else {
		snap, err = s.ReadSnapshot(ctx, id)
	}
	if err != nil {
		return nil, &commandError{Code: compiler.ErrCodeNotFound, Message: "cannot read snapshot", Err: err}
	}
	logger.Debug("snapshot read", "id", snap.ID, "seq", snap.Seq, "items", snap.ItemCount)

	coll, err := graph.Restore(snap.Relations, snap.Items, graph.WithLogger(logger))
	if err != nil {
		return nil, &commandError{Code: compiler.ErrCodeLoadFailed, Message: "cannot restore snapshot " + snap.ID, Err: err}
	}
	return &buildResult{Collection: coll}, nil
}

// openExistingStore opens a snapshot database that must already exist.
func openExistingStore(path string, logger *slog.Logger) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &commandError{Code: compiler.ErrCodeNotFound, Message: "snapshot database not found: " + path}
	}
	s, err := store.Open(path, store.WithLogger(logger))
	if err != nil {
		return nil, &commandError{Code: compiler.ErrCodeLoadFailed, Message: "cannot open snapshot store " + path, Err: err}
	}
	return s, nil
}

// commandError is a failure that prevents a command from doing its work,
// as opposed to a problem found in the collection.
type commandError struct {
	Code    string
	Message string
	Err     error
}

func (e *commandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *commandError) Unwrap() error {
	return e.Err
}

// commandErrorFrom turns the errors of a failed load into a command error
// carrying the loader's error code.
func commandErrorFrom(errs []error) error {
	if len(errs) == 0 {
		return &commandError{Code: compiler.ErrCodeGeneric, Message: "nothing loaded"}
	}
	var loadErr *compiler.LoadError
	if errors.As(errs[0], &loadErr) {
		return &commandError{Code: loadErr.Code, Message: loadErr.Message}
	}
	return &commandError{Code: compiler.ErrCodeGeneric, Message: "load failed", Err: errs[0]}
}

// fail reports err through formatter and returns it as an ExitError with
// ExitCommandError.
func fail(formatter *OutputFormatter, err error) error {
	var cmdErr *commandError
	if !errors.As(err, &cmdErr) {
		_ = formatter.Error(compiler.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, compiler.ErrCodeGeneric, err)
	}
	message := cmdErr.Message
	if cmdErr.Err != nil {
		message = fmt.Sprintf("%s: %v", cmdErr.Message, cmdErr.Err)
	}
	_ = formatter.Error(cmdErr.Code, message, nil)
	return &ExitError{
		Code:    ExitCommandError,
		Message: fmt.Sprintf("%s: %s", cmdErr.Code, cmdErr.Message),
		Err:     cmdErr.Err,
	}
}

package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tracegraph/internal/ir"
)

// LoadMode controls how errors are handled during loading and ingestion.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error code constants shared by the loader and the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No source files found
	ErrCodeLoadFailed  = "E004" // Source load or parse failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
)

// LoadResult contains the declarations loaded from a source directory.
type LoadResult struct {
	Relations []ir.RelationDecl
	Items     []ir.ItemDecl
	FileCount int // Number of source files found
}

// LoadError represents an error that occurred while loading sources.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads every .cue, .yaml and .yml file below dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
//
// Declarations failing Validate are dropped and reported as ValidationError.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("sources directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing sources directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindSourceFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no source files found in %s", dir)}}
	}

	result := &LoadResult{FileCount: len(files)}
	var errs []error
	ctx := cuecontext.New()

	for _, path := range files {
		var (
			relations []ir.RelationDecl
			items     []ir.ItemDecl
			fileErrs  []error
		)
		if filepath.Ext(path) == ".cue" {
			relations, items, fileErrs = loadCUEFile(ctx, path, mode)
		} else {
			relations, items, fileErrs = loadYAMLFile(path)
		}
		errs = append(errs, fileErrs...)
		if len(fileErrs) > 0 && mode == LoadModeFailFast {
			return result, errs
		}

		for _, decl := range relations {
			if verrs := Validate(decl); len(verrs) > 0 {
				for _, verr := range verrs {
					verr.Source = path
					errs = append(errs, verr)
				}
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			result.Relations = append(result.Relations, decl)
		}
		for _, decl := range items {
			if verrs := Validate(decl); len(verrs) > 0 {
				for _, verr := range verrs {
					errs = append(errs, verr)
				}
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			result.Items = append(result.Items, decl)
		}
	}

	if len(result.Relations) == 0 && len(result.Items) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no relations or items found in sources"})
	}
	return result, errs
}

// loadCUEFile loads a single CUE file as its own instance, so equal item ids
// in different files stay separate declarations.
func loadCUEFile(ctx *cue.Context, path string, mode LoadMode) ([]ir.RelationDecl, []ir.ItemDecl, []error) {
	cfg := &load.Config{Dir: filepath.Dir(path)}
	instances := load.Instances([]string{filepath.Base(path)}, cfg)
	if len(instances) == 0 {
		return nil, nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("no CUE instance loaded from %s", path)}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading %s: %v", path, inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building %s: %v", path, err)}}
	}

	var (
		relations []ir.RelationDecl
		items     []ir.ItemDecl
		errs      []error
	)

	if relVal := value.LookupPath(cue.ParsePath("relation")); relVal.Exists() {
		decls, err := CompileRelations(relVal)
		if err != nil {
			errs = append(errs, convertCompileError(err, path+": relation"))
			if mode == LoadModeFailFast {
				return nil, nil, errs
			}
		}
		relations = decls
	}

	if itemsVal := value.LookupPath(cue.ParsePath("item")); itemsVal.Exists() {
		iter, err := itemsVal.Fields()
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating items in %s: %v", path, err)})
			return relations, items, errs
		}
		for iter.Next() {
			decl, err := CompileItem(iter.Value())
			if err != nil {
				errs = append(errs, convertCompileError(err, path+": item."+iter.Label()))
				if mode == LoadModeFailFast {
					return relations, items, errs
				}
				continue
			}
			if decl.Source == "" {
				decl.Source = path
				decl.Document = documentName(path)
			}
			items = append(items, *decl)
		}
	}
	return relations, items, errs
}

func loadYAMLFile(path string) ([]ir.RelationDecl, []ir.ItemDecl, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}}
	}
	relations, items, err := CompileYAML(data, path)
	if err != nil {
		return nil, nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}}
	}
	return relations, items, nil
}

// FindSourceFiles walks the directory and returns all declaration file
// paths, in lexical order.
func FindSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".cue", ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

package compiler

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tracegraph/internal/ir"
)

// CompileRelations parses the relation section of a CUE source.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the relation struct itself, e.g.:
//
//	relation: {
//		implements: reverse: "implemented-by"
//		external: {}
//	}
//
// A relation without reverse is one-way.
func CompileRelations(v cue.Value) ([]ir.RelationDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []ir.RelationDecl
	for iter.Next() {
		decl := ir.RelationDecl{Forward: iter.Label()}

		revVal := iter.Value().LookupPath(cue.ParsePath("reverse"))
		if revVal.Exists() {
			rev, err := revVal.String()
			if err != nil {
				return nil, &CompileError{
					Field:   "relation." + decl.Forward + ".reverse",
					Message: "reverse must be a string",
					Pos:     revVal.Pos(),
				}
			}
			decl.Reverse = rev
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

// CompileItem parses one item declaration.
//
// The CUE value should be the item struct itself, e.g.:
//
//	item: "REQ-1": {
//		content: "The system shall trace."
//		attributes: status: "approved"
//		relations: implements: ["DES-1"]
//	}
//
// The id is the struct label. Without an explicit document the item belongs
// to the document named after its file, without extension.
func CompileItem(v cue.Value) (*ir.ItemDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &ir.ItemDecl{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		decl.ID = unquoteLabel(labels[len(labels)-1].String())
	}

	if pos := v.Pos(); pos.IsValid() {
		decl.Source = pos.Filename()
		decl.Line = pos.Line()
		decl.Document = documentName(pos.Filename())
	}

	var err error
	if docVal := v.LookupPath(cue.ParsePath("document")); docVal.Exists() {
		if decl.Document, err = stringField(docVal, "document"); err != nil {
			return nil, err
		}
	}
	if contentVal := v.LookupPath(cue.ParsePath("content")); contentVal.Exists() {
		if decl.Content, err = stringField(contentVal, "content"); err != nil {
			return nil, err
		}
	}

	decl.Attributes, err = parseAttributes(v)
	if err != nil {
		return nil, err
	}
	decl.Relations, err = parseRelations(v)
	if err != nil {
		return nil, err
	}
	return decl, nil
}

// parseAttributes extracts the name -> value attribute map (optional).
func parseAttributes(v cue.Value) (map[string]string, error) {
	attrVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrVal.Exists() {
		return nil, nil
	}

	iter, err := attrVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	attrs := make(map[string]string)
	for iter.Next() {
		name := iter.Label()
		value, err := stringField(iter.Value(), "attributes."+name)
		if err != nil {
			return nil, err
		}
		attrs[name] = value
	}
	return attrs, nil
}

// parseRelations extracts relation -> targets (optional).
// A target list may also be written as a single string.
func parseRelations(v cue.Value) (map[string][]string, error) {
	relVal := v.LookupPath(cue.ParsePath("relations"))
	if !relVal.Exists() {
		return nil, nil
	}

	iter, err := relVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	relations := make(map[string][]string)
	for iter.Next() {
		rel := iter.Label()
		field := "relations." + rel
		targetsVal := iter.Value()

		if target, err := targetsVal.String(); err == nil {
			relations[rel] = append(relations[rel], target)
			continue
		}

		list, err := targetsVal.List()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: "targets must be a string or a list of strings",
				Pos:     targetsVal.Pos(),
			}
		}
		for list.Next() {
			target, err := stringField(list.Value(), field)
			if err != nil {
				return nil, err
			}
			relations[rel] = append(relations[rel], target)
		}
	}
	return relations, nil
}

func stringField(v cue.Value, field string) (string, error) {
	s, err := v.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be a string, got %s", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

func unquoteLabel(label string) string {
	if unquoted, err := strconv.Unquote(label); err == nil {
		return unquoted
	}
	return label
}

// documentName returns the file name of path without directory and extension.
func documentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

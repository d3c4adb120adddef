package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tracegraph/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrUnsupportedDeclType = "E100" // unsupported declaration type for validation
	ErrEmptyItemID         = "E101" // item id empty or containing whitespace
	ErrEmptyRelationName   = "E102" // relation name is empty
	ErrInvalidRelationName = "E103" // relation name contains whitespace
	ErrEmptyTarget         = "E104" // relation target is empty
	ErrInvalidAttribute    = "E105" // attribute name is not an identifier
	ErrUnnormalizedID      = "E106" // item id or target not in Unicode NFC form
)

var attributeNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidationError represents a declaration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	prefix := fmt.Sprintf("[%s] ", e.Code)
	if e.Source != "" {
		prefix += e.Source + ":"
		if e.Line > 0 {
			prefix += fmt.Sprintf("%d:", e.Line)
		}
		prefix += " "
	} else if e.Line > 0 {
		prefix += fmt.Sprintf("line %d: ", e.Line)
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Field, e.Message)
}

// Validate validates a compiled declaration.
// Returns all errors found (does not fail-fast).
// Supports RelationDecl and ItemDecl.
func Validate(v any) []ValidationError {
	switch decl := v.(type) {
	case *ir.RelationDecl:
		return validateRelationDecl(decl)
	case ir.RelationDecl:
		return validateRelationDecl(&decl)
	case *ir.ItemDecl:
		return validateItemDecl(decl)
	case ir.ItemDecl:
		return validateItemDecl(&decl)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported declaration type: %T", v),
			Code:    ErrUnsupportedDeclType,
		}}
	}
}

func validateRelationDecl(decl *ir.RelationDecl) []ValidationError {
	errs := validateRelationName(decl.Forward, "relation.forward")
	if !decl.OneWay() {
		errs = append(errs, validateRelationName(decl.Reverse, "relation.reverse")...)
	}
	return errs
}

func validateRelationName(name, field string) []ValidationError {
	if name == "" {
		return []ValidationError{{
			Field:   field,
			Message: "relation name is required",
			Code:    ErrEmptyRelationName,
		}}
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("relation name %q contains whitespace", name),
			Code:    ErrInvalidRelationName,
		}}
	}
	return nil
}

func validateItemDecl(decl *ir.ItemDecl) []ValidationError {
	var errs []ValidationError

	// E101: id is required and a single token
	if strings.TrimSpace(decl.ID) == "" || strings.IndexFunc(decl.ID, unicode.IsSpace) >= 0 {
		errs = append(errs, ValidationError{
			Field:   "id",
			Message: fmt.Sprintf("item id %q must be non-empty without whitespace", decl.ID),
			Code:    ErrEmptyItemID,
		})
	} else if !norm.NFC.IsNormalString(decl.ID) {
		errs = append(errs, unnormalizedID("id", decl.ID))
	}

	// Iterate in sorted order so diagnostics are stable.
	for _, name := range sortedKeys(decl.Attributes) {
		if !attributeNamePattern.MatchString(name) {
			errs = append(errs, ValidationError{
				Field:   "attributes." + name,
				Message: fmt.Sprintf("invalid attribute name %q", name),
				Code:    ErrInvalidAttribute,
			})
		}
	}

	for _, rel := range sortedKeys(decl.Relations) {
		field := "relations." + rel
		errs = append(errs, validateRelationName(rel, field)...)
		for i, target := range decl.Relations[rel] {
			if strings.TrimSpace(target) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Message: "relation target is required",
					Code:    ErrEmptyTarget,
				})
			} else if !norm.NFC.IsNormalString(target) {
				errs = append(errs, unnormalizedID(fmt.Sprintf("%s[%d]", field, i), target))
			}
		}
	}

	for i := range errs {
		errs[i].Source = decl.Source
		errs[i].Line = decl.Line
	}
	return errs
}

// unnormalizedID reports an id that would look identical to its NFC form
// but never match it.
func unnormalizedID(field, id string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%q is not in Unicode NFC form (want %q)", id, norm.NFC.String(id)),
		Code:    ErrUnnormalizedID,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

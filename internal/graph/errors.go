package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tracegraph/internal/item"
)

// Diagnostic codes (E200-E299). Item self-test codes live in package item.
const (
	ErrCodeConfiguration   = "E200" // no relations registered
	ErrCodeDuplicateItem   = "E201" // real item declared twice
	ErrCodeUnknownSource   = "E202" // relation added from an unknown item
	ErrCodeUnknownRelation = "E203" // relation name not registered
	ErrCodeDanglingTarget  = "E204" // target item does not exist
	ErrCodeMissingReverse  = "E205" // target lacks the reverse link
	ErrCodeGeneric         = "E001" // anything else
)

// ConfigurationError reports a collection that cannot be validated at all.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("[%s] configuration: %s", ErrCodeConfiguration, e.Message)
}

// DuplicateItemError reports a second real declaration of an item id.
type DuplicateItemError struct {
	ID       string
	Document string // document of the rejected declaration
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("[%s] duplicating %s", ErrCodeDuplicateItem, e.ID)
}

// UnknownSourceError reports a relation added from an id that was never
// inserted. This is a defect in the caller, not in document content.
type UnknownSourceError struct {
	ID string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("[%s] source item %s not known", ErrCodeUnknownSource, e.ID)
}

// UnknownRelationError reports use of a relation that is not registered.
type UnknownRelationError struct {
	Relation string
	Source   string
	Document string // document of the source item
}

func (e *UnknownRelationError) Error() string {
	return fmt.Sprintf("[%s] relation %s not known (used by %s)", ErrCodeUnknownRelation, e.Relation, e.Source)
}

// DanglingReferenceError reports a target that does not exist in the
// collection.
type DanglingReferenceError struct {
	ItemID   string
	Relation string
	Target   string
	Document string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("[%s] %s %s %s, but %s is not known",
		ErrCodeDanglingTarget, e.ItemID, e.Relation, e.Target, e.Target)
}

// MissingReverseLinkError reports a target that does not point back.
// The expected edge is Target -Reverse-> ItemID.
type MissingReverseLinkError struct {
	ItemID   string
	Relation string
	Target   string
	Reverse  string
	Document string
}

func (e *MissingReverseLinkError) Error() string {
	return fmt.Sprintf("[%s] no automatic reverse relation: %s %s %s",
		ErrCodeMissingReverse, e.Target, e.Reverse, e.ItemID)
}

// AggregateValidationError holds every problem found by one SelfTest walk.
type AggregateValidationError struct {
	Errors []error
}

func (e *AggregateValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d traceability errors:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the contained errors to errors.Is and errors.As.
func (e *AggregateValidationError) Unwrap() []error {
	return e.Errors
}

// Len returns the number of contained errors.
func (e *AggregateValidationError) Len() int {
	return len(e.Errors)
}

// Flatten returns the individual errors inside err: the contents of an
// AggregateValidationError, or err itself. It returns nil for a nil err.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	var agg *AggregateValidationError
	if errors.As(err, &agg) {
		return agg.Errors
	}
	return []error{err}
}

// CodeOf returns the diagnostic code of err, or ErrCodeGeneric.
func CodeOf(err error) string {
	var (
		cfgErr      *ConfigurationError
		dupErr      *DuplicateItemError
		srcErr      *UnknownSourceError
		relErr      *UnknownRelationError
		danglingErr *DanglingReferenceError
		reverseErr  *MissingReverseLinkError
		itemErr     *item.Error
	)
	switch {
	case errors.As(err, &cfgErr):
		return ErrCodeConfiguration
	case errors.As(err, &dupErr):
		return ErrCodeDuplicateItem
	case errors.As(err, &srcErr):
		return ErrCodeUnknownSource
	case errors.As(err, &relErr):
		return ErrCodeUnknownRelation
	case errors.As(err, &danglingErr):
		return ErrCodeDanglingTarget
	case errors.As(err, &reverseErr):
		return ErrCodeMissingReverse
	case errors.As(err, &itemErr):
		return itemErr.Code
	default:
		return ErrCodeGeneric
	}
}

// DocumentOf returns the document an error is attributed to, or "".
func DocumentOf(err error) string {
	var (
		dupErr      *DuplicateItemError
		relErr      *UnknownRelationError
		danglingErr *DanglingReferenceError
		reverseErr  *MissingReverseLinkError
		itemErr     *item.Error
	)
	switch {
	case errors.As(err, &dupErr):
		return dupErr.Document
	case errors.As(err, &relErr):
		return relErr.Document
	case errors.As(err, &danglingErr):
		return danglingErr.Document
	case errors.As(err, &reverseErr):
		return reverseErr.Document
	case errors.As(err, &itemErr):
		return itemErr.Document
	default:
		return ""
	}
}

// IsValidationError reports whether err was produced by SelfTest rather than
// by ingestion.
func IsValidationError(err error) bool {
	var agg *AggregateValidationError
	return errors.As(err, &agg)
}

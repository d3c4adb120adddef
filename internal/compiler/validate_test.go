package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracegraph/internal/ir"
)

// =============================================================================
// RelationDecl Validation Tests
// =============================================================================

func TestValidateRelationDeclValid(t *testing.T) {
	assert.Empty(t, Validate(ir.RelationDecl{Forward: "implements", Reverse: "implemented-by"}))
	assert.Empty(t, Validate(&ir.RelationDecl{Forward: "external"}))
	assert.Empty(t, Validate(ir.RelationDecl{Forward: "related-to", Reverse: "related-to"}),
		"a relation may be its own reverse")
}

func TestValidateRelationDeclEmptyForward(t *testing.T) {
	errs := Validate(ir.RelationDecl{Reverse: "implemented-by"})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrEmptyRelationName, errs[0].Code)
	assert.Equal(t, "relation.forward", errs[0].Field)
}

func TestValidateRelationDeclWhitespace(t *testing.T) {
	errs := Validate(ir.RelationDecl{Forward: "implements", Reverse: "implemented by"})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvalidRelationName, errs[0].Code)
	assert.Equal(t, "relation.reverse", errs[0].Field)
}

// =============================================================================
// ItemDecl Validation Tests
// =============================================================================

func TestValidateItemDeclValid(t *testing.T) {
	decl := &ir.ItemDecl{
		ID:         "REQ-1",
		Attributes: map[string]string{"status": "approved", "asil.level": "B"},
		Relations:  map[string][]string{"implements": {"DES-1"}},
	}
	assert.Empty(t, Validate(decl))
}

func TestValidateItemDeclErrors(t *testing.T) {
	tests := []struct {
		name  string
		decl  ir.ItemDecl
		code  string
		field string
	}{
		{"empty id", ir.ItemDecl{ID: ""}, ErrEmptyItemID, "id"},
		{"blank id", ir.ItemDecl{ID: "  "}, ErrEmptyItemID, "id"},
		{"id with space", ir.ItemDecl{ID: "REQ 1"}, ErrEmptyItemID, "id"},
		{
			"empty relation name",
			ir.ItemDecl{ID: "A", Relations: map[string][]string{"": {"B"}}},
			ErrEmptyRelationName, "relations.",
		},
		{
			"relation with space",
			ir.ItemDecl{ID: "A", Relations: map[string][]string{"verified by": {"B"}}},
			ErrInvalidRelationName, "relations.verified by",
		},
		{
			"empty target",
			ir.ItemDecl{ID: "A", Relations: map[string][]string{"implements": {"B", ""}}},
			ErrEmptyTarget, "relations.implements[1]",
		},
		{
			"invalid attribute",
			ir.ItemDecl{ID: "A", Attributes: map[string]string{"1st": "x"}},
			ErrInvalidAttribute, "attributes.1st",
		},
		{
			"decomposed id",
			ir.ItemDecl{ID: "cafe\u0301"},
			ErrUnnormalizedID, "id",
		},
		{
			"decomposed target",
			ir.ItemDecl{ID: "A", Relations: map[string][]string{"implements": {"cafe\u0301"}}},
			ErrUnnormalizedID, "relations.implements[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.decl)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateItemDeclCollectsAll(t *testing.T) {
	decl := ir.ItemDecl{
		ID:         "",
		Attributes: map[string]string{"b!": "x", "a!": "y"},
		Source:     "srs.yaml",
		Line:       7,
	}

	errs := Validate(decl)
	require.Len(t, errs, 3)
	assert.Equal(t, ErrEmptyItemID, errs[0].Code)
	assert.Equal(t, "attributes.a!", errs[1].Field, "attributes reported in sorted order")
	assert.Equal(t, "attributes.b!", errs[2].Field)
	for _, err := range errs {
		assert.Equal(t, "srs.yaml", err.Source)
		assert.Equal(t, 7, err.Line)
	}
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a declaration")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedDeclType, errs[0].Code)
}

func TestValidationErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  ValidationError
		want string
	}{
		{
			"bare",
			ValidationError{Field: "id", Message: "required", Code: ErrEmptyItemID},
			"[E101] id: required",
		},
		{
			"line only",
			ValidationError{Field: "id", Message: "required", Code: ErrEmptyItemID, Line: 3},
			"[E101] line 3: id: required",
		},
		{
			"source and line",
			ValidationError{Field: "id", Message: "required", Code: ErrEmptyItemID, Source: "srs.yaml", Line: 3},
			"[E101] srs.yaml:3: id: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

package item

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	it := New("REQ-001", "srs")

	assert.Equal(t, "REQ-001", it.ID())
	assert.Equal(t, "srs", it.Document())
	assert.True(t, it.HasDocument())
	assert.False(t, it.IsPlaceholder())
	assert.Equal(t, StateReal, it.State())
	assert.Empty(t, it.Relations())
}

func TestNewPlaceholder(t *testing.T) {
	it := NewPlaceholder("DES-001")

	assert.True(t, it.IsPlaceholder())
	assert.False(t, it.HasDocument())
	assert.Equal(t, "PLACEHOLDER", it.State().String())
}

func TestAddTargetExplicitAndImplicit(t *testing.T) {
	it := New("A", "doc")
	it.AddTarget("implements", "C", false)
	it.AddTarget("implements", "B", true)

	assert.Equal(t, []string{"B", "C"}, it.Targets("implements"))
	assert.Equal(t, []string{"C"}, it.ExplicitTargets("implements"))
	assert.Equal(t, []string{"B"}, it.ImplicitTargets("implements"))
	assert.True(t, it.HasTarget("implements", "B"))
	assert.False(t, it.HasTarget("implemented-by", "B"))
}

func TestAddTargetExplicitReplacesImplicit(t *testing.T) {
	it := New("A", "doc")
	it.AddTarget("implements", "B", true)
	it.AddTarget("implements", "B", false)

	assert.Equal(t, []string{"B"}, it.ExplicitTargets("implements"))
	assert.Empty(t, it.ImplicitTargets("implements"))
	assert.Equal(t, []string{"B"}, it.Targets("implements"))
}

func TestAddTargetImplicitIgnoredWhenExplicit(t *testing.T) {
	it := New("A", "doc")
	it.AddTarget("implements", "B", false)
	it.AddTarget("implements", "B", true)

	assert.Equal(t, []string{"B"}, it.ExplicitTargets("implements"))
	assert.Empty(t, it.ImplicitTargets("implements"))
}

func TestAddTargetIdempotent(t *testing.T) {
	it := New("A", "doc")
	it.AddTarget("implements", "B", false)
	it.AddTarget("implements", "B", false)

	assert.Equal(t, []string{"B"}, it.Targets("implements"))
}

func TestRelationsSorted(t *testing.T) {
	it := New("A", "doc")
	it.AddTarget("verified-by", "T", false)
	it.AddTarget("implements", "B", true)
	it.AddTarget("depends-on", "C", false)

	assert.Equal(t, []string{"depends-on", "implements", "verified-by"}, it.Relations())
}

func TestIsRelated(t *testing.T) {
	it := New("A", "doc")
	it.AddTarget("implements", "B", false)

	assert.True(t, it.IsRelated([]string{"depends-on", "implements"}, "B"))
	assert.False(t, it.IsRelated([]string{"depends-on"}, "B"))
	assert.False(t, it.IsRelated(nil, "B"))
}

func TestPromoteKeepsRecordedTargets(t *testing.T) {
	ph := NewPlaceholder("B")
	ph.AddTarget("implemented-by", "A", true)

	decl := New("B", "design")
	decl.SetContent("the design element")
	decl.SetAttribute("status", "approved")
	decl.AddTarget("depends-on", "C", false)

	require.NoError(t, ph.Promote(decl))

	assert.False(t, ph.IsPlaceholder())
	assert.Equal(t, "design", ph.Document())
	assert.Equal(t, "the design element", ph.Content())
	v, ok := ph.Attribute("status")
	assert.True(t, ok)
	assert.Equal(t, "approved", v)
	assert.Equal(t, []string{"A"}, ph.ImplicitTargets("implemented-by"))
	assert.Equal(t, []string{"C"}, ph.ExplicitTargets("depends-on"))
}

func TestPromoteExplicitSupersedesImplicit(t *testing.T) {
	ph := NewPlaceholder("B")
	ph.AddTarget("implemented-by", "A", true)

	decl := New("B", "design")
	decl.AddTarget("implemented-by", "A", false)

	require.NoError(t, ph.Promote(decl))
	assert.Equal(t, []string{"A"}, ph.ExplicitTargets("implemented-by"))
	assert.Empty(t, ph.ImplicitTargets("implemented-by"))
}

func TestPromoteRejectsRealItem(t *testing.T) {
	it := New("B", "design")
	err := it.Promote(New("B", "other"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disallowed transition")
	assert.Equal(t, "design", it.Document())
}

func TestPromoteRejectsDifferentID(t *testing.T) {
	ph := NewPlaceholder("B")
	err := ph.Promote(New("C", "design"))
	require.Error(t, err)
	assert.True(t, ph.IsPlaceholder())
}

func TestIsMatchAnchoredAtStart(t *testing.T) {
	it := New("REQ-001", "srs")

	tests := []struct {
		pattern string
		want    bool
	}{
		{"REQ", true},
		{"REQ-00[0-9]", true},
		{".*001", true},
		{"001", false},
		{"DES", false},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, it.IsMatch(regexp.MustCompile(tt.pattern)))
		})
	}
}

func TestAttributesMatch(t *testing.T) {
	it := New("REQ-001", "srs")
	it.SetAttribute("status", "approved")
	it.SetAttribute("asil", "D")

	assert.True(t, it.AttributesMatch(nil))
	assert.True(t, it.AttributesMatch(map[string]*regexp.Regexp{
		"status": regexp.MustCompile("appr"),
	}))
	assert.True(t, it.AttributesMatch(map[string]*regexp.Regexp{
		"status": regexp.MustCompile("approved"),
		"asil":   regexp.MustCompile("[CD]"),
	}))
	assert.False(t, it.AttributesMatch(map[string]*regexp.Regexp{
		"status": regexp.MustCompile("approved"),
		"asil":   regexp.MustCompile("A"),
	}))
	assert.False(t, it.AttributesMatch(map[string]*regexp.Regexp{
		"owner": regexp.MustCompile(".*"),
	}))
}

func TestAttributesReturnsCopy(t *testing.T) {
	it := New("A", "doc")
	it.SetAttribute("status", "draft")

	attrs := it.Attributes()
	attrs["status"] = "changed"

	v, _ := it.Attribute("status")
	assert.Equal(t, "draft", v)
}

func TestSelfTestClean(t *testing.T) {
	it := New("A", "doc")
	it.AddTarget("implements", "B", false)

	assert.NoError(t, it.SelfTest())
}

func TestSelfTestUndefinedPlaceholder(t *testing.T) {
	it := NewPlaceholder("B")

	err := it.SelfTest()
	require.Error(t, err)

	var itemErr *Error
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, ErrCodeUndefined, itemErr.Code)
	assert.Equal(t, "B", itemErr.ItemID)
	assert.Contains(t, err.Error(), "item B is not defined")
}

func TestSelfTestSelfRelation(t *testing.T) {
	it := New("A", "doc")
	it.AddTarget("depends-on", "A", false)

	err := it.SelfTest()
	require.Error(t, err)

	var itemErr *Error
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, ErrCodeSelfRelation, itemErr.Code)
	assert.Equal(t, "depends-on", itemErr.Relation)
	assert.Equal(t, "doc", itemErr.Document)
}

func TestRecord(t *testing.T) {
	it := New("A", "srs")
	it.SetContent("text")
	it.SetAttribute("status", "draft")
	it.AddTarget("implements", "C", false)
	it.AddTarget("implements", "B", true)

	rec := it.Record()
	require.NotNil(t, rec.Document)
	assert.Equal(t, "srs", *rec.Document)
	assert.Equal(t, "A", rec.ID)
	assert.False(t, rec.Placeholder)
	assert.Equal(t, "text", rec.Content)
	assert.Equal(t, map[string]string{"status": "draft"}, rec.Attributes)
	assert.Equal(t, map[string][]string{"implements": {"B", "C"}}, rec.Targets)
	assert.Equal(t, map[string][]string{"implements": {"B"}}, rec.Implicit)
}

func TestRecordPlaceholderHasNullDocument(t *testing.T) {
	rec := NewPlaceholder("X").Record()
	assert.Nil(t, rec.Document)
	assert.True(t, rec.Placeholder)
}

package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/tracegraph/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testRelations is a registry with one pair and one one-way relation, as
// returned by Registry.Pairs.
func testRelations() []ir.RelationDecl {
	return []ir.RelationDecl{
		{Forward: "external"},
		{Forward: "implemented-by", Reverse: "implements"},
		{Forward: "implements", Reverse: "implemented-by"},
	}
}

// testRecords mirrors the export of REQ-1 implements DES-1, REQ-1 external
// JIRA-7 and REQ-1 implements TST-1 where TST-1 was never declared.
func testRecords() []ir.ItemRecord {
	srs, design := "srs", "design"
	return []ir.ItemRecord{
		{
			ID:         "DES-1",
			Document:   &design,
			Attributes: map[string]string{},
			Targets:    map[string][]string{"implemented-by": {"REQ-1"}},
			Implicit:   map[string][]string{"implemented-by": {"REQ-1"}},
		},
		{
			ID:         "REQ-1",
			Document:   &srs,
			Content:    "The system shall <trace> & report.",
			Attributes: map[string]string{"status": "approved", "asil": "B"},
			Targets: map[string][]string{
				"external":   {"JIRA-7"},
				"implements": {"DES-1", "TST-1"},
			},
			Implicit: map[string][]string{},
		},
		{
			ID:          "TST-1",
			Placeholder: true,
			Attributes:  map[string]string{},
			Targets:     map[string][]string{"implemented-by": {"REQ-1"}},
			Implicit:    map[string][]string{"implemented-by": {"REQ-1"}},
		},
	}
}

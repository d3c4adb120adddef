package compiler

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/item"
)

// Apply ingests declarations into coll.
//
// Relations are registered first, then every item is inserted, then every
// edge is added, sorted by source id, relation and target. Edges of a
// rejected item are skipped.
//
// With LoadModeFailFast, Apply returns at the first error; with
// LoadModeCollectAll it returns every ingestion error.
func Apply(coll *graph.Collection, relations []ir.RelationDecl, items []ir.ItemDecl, mode LoadMode) []error {
	var errs []error
	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	for _, decl := range relations {
		if err := coll.Registry().Add(decl); err != nil {
			if fail(fmt.Errorf("relation %s: %w", decl.Forward, err)) {
				return errs
			}
		}
	}

	var edges []ir.Edge
	for i := range items {
		decl := &items[i]
		if err := coll.AddItem(newItem(decl)); err != nil {
			if fail(err) {
				return errs
			}
			continue
		}
		edges = append(edges, decl.Edges()...)
	}

	slices.SortFunc(edges, compareEdges)
	for _, e := range edges {
		if err := coll.AddRelation(e.Source, e.Relation, e.Target); err != nil {
			if fail(err) {
				return errs
			}
		}
	}
	return errs
}

func newItem(decl *ir.ItemDecl) *item.Item {
	it := item.New(decl.ID, decl.Document)
	it.SetContent(decl.Content)
	for name, value := range decl.Attributes {
		it.SetAttribute(name, value)
	}
	return it
}

func compareEdges(a, b ir.Edge) int {
	return cmp.Or(
		cmp.Compare(a.Source, b.Source),
		cmp.Compare(a.Relation, b.Relation),
		cmp.Compare(a.Target, b.Target),
	)
}

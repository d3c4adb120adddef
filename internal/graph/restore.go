package graph

import (
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/item"
)

// Restore rebuilds a collection from stored relation pairs and item records.
//
// Targets are restored exactly as recorded, explicit and implicit alike;
// no reverse links are derived. Restoring a snapshot and running SelfTest
// therefore re-validates what was stored, not a repaired version of it.
func Restore(relations []ir.RelationDecl, records []ir.ItemRecord, opts ...Option) (*Collection, error) {
	c := New(opts...)
	for _, decl := range relations {
		if err := c.registry.Add(decl); err != nil {
			return nil, fmt.Errorf("restore relations: %w", err)
		}
	}

	for _, rec := range records {
		var it *item.Item
		if rec.Placeholder {
			it = item.NewPlaceholder(rec.ID)
		} else {
			doc := ""
			if rec.Document != nil {
				doc = *rec.Document
			}
			it = item.New(rec.ID, doc)
		}
		it.SetContent(rec.Content)
		for name, value := range rec.Attributes {
			it.SetAttribute(name, value)
		}
		for rel, targets := range rec.Targets {
			for _, tgt := range targets {
				it.AddTarget(rel, tgt, rec.IsImplicit(rel, tgt))
			}
		}
		if err := c.AddItem(it); err != nil {
			return nil, fmt.Errorf("restore item %s: %w", rec.ID, err)
		}
	}
	return c, nil
}

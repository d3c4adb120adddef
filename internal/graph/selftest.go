package graph

import (
	"github.com/roach88/tracegraph/internal/item"
)

// SelfTest walks every item and every relation and verifies the collection.
//
// If document is non-empty, items declared in another document are skipped;
// items without a document are always checked.
//
// Without registered relations SelfTest fails at once with
// *ConfigurationError. Otherwise every problem found is collected and
// returned in one *AggregateValidationError, in sorted item order; a
// consistent collection returns nil.
func (c *Collection) SelfTest(document string) error {
	if c.registry.Len() == 0 {
		return &ConfigurationError{Message: "no relations configured"}
	}

	var errs []error
	for _, id := range c.Items() {
		it := c.items[id]
		if document != "" && it.HasDocument() && it.Document() != document {
			continue
		}
		errs = append(errs, c.checkItem(it)...)
	}

	if len(errs) > 0 {
		c.logger.Debug("self-test failed", "document", document, "errors", len(errs))
		return &AggregateValidationError{Errors: errs}
	}
	return nil
}

// checkItem runs the local self-test of it and verifies that every target
// under a two-way relation exists and points back.
func (c *Collection) checkItem(it *item.Item) []error {
	var errs []error
	if err := it.SelfTest(); err != nil {
		errs = append(errs, err)
	}

	for _, rel := range it.Relations() {
		if !c.registry.Has(rel) {
			errs = append(errs, &UnknownRelationError{Relation: rel, Source: it.ID(), Document: it.Document()})
		}
	}

	for _, rel := range c.registry.Relations() {
		reverse, hasReverse, _ := c.registry.ReverseOf(rel)
		if !hasReverse {
			continue
		}
		for _, tgt := range it.Targets(rel) {
			target, ok := c.items[tgt]
			if !ok {
				errs = append(errs, &DanglingReferenceError{
					ItemID:   it.ID(),
					Relation: rel,
					Target:   tgt,
					Document: it.Document(),
				})
				continue
			}
			if !target.HasTarget(reverse, it.ID()) {
				errs = append(errs, &MissingReverseLinkError{
					ItemID:   it.ID(),
					Relation: rel,
					Target:   tgt,
					Reverse:  reverse,
					Document: it.Document(),
				})
			}
		}
	}
	return errs
}

package graph

import (
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/tracegraph/internal/item"
)

// Collection stores traceable items and the relations between them.
type Collection struct {
	registry *Registry
	items    map[string]*item.Item
	logger   *slog.Logger
}

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger used for debug and warning output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty collection.
func New(opts ...Option) *Collection {
	c := &Collection{
		items:  make(map[string]*item.Item),
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registry = NewRegistry(c.logger)
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Registry returns the relation registry of the collection.
func (c *Collection) Registry() *Registry {
	return c.registry
}

// AddRelationPair registers a relation and its reverse.
func (c *Collection) AddRelationPair(forward, reverse string) error {
	return c.registry.AddRelationPair(forward, reverse)
}

// AddOneWayRelation registers a relation without reverse.
func (c *Collection) AddOneWayRelation(forward string) error {
	return c.registry.AddOneWayRelation(forward)
}

// GetReverseRelation returns the reverse of forward; see Registry.ReverseOf.
func (c *Collection) GetReverseRelation(forward string) (reverse string, hasReverse, known bool) {
	return c.registry.ReverseOf(forward)
}

// Relations returns all registered relation names, sorted.
func (c *Collection) Relations() []string {
	return c.registry.Relations()
}

// AddItem inserts it.
//
// If a real item with the same id exists, AddItem fails with
// *DuplicateItemError, whatever it is. If a placeholder with the same id
// exists, a real it promotes it in place: relations already pointing at the
// id stay valid and targets already recorded on the placeholder are kept. A
// placeholder it only merges its targets into the existing placeholder.
func (c *Collection) AddItem(it *item.Item) error {
	if it == nil {
		return errors.New("add item: nil item")
	}
	if it.ID() == "" {
		return errors.New("add item: empty id")
	}

	existing, ok := c.items[it.ID()]
	if !ok {
		c.items[it.ID()] = it
		return nil
	}
	if !existing.IsPlaceholder() {
		return &DuplicateItemError{ID: it.ID(), Document: it.Document()}
	}
	if it.IsPlaceholder() {
		existing.MergeTargets(it)
		return nil
	}
	if err := existing.Promote(it); err != nil {
		return err
	}
	c.logger.Debug("placeholder promoted", "item", it.ID(), "document", it.Document())
	return nil
}

// GetItem returns the item with exactly this id.
func (c *Collection) GetItem(id string) (*item.Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// HasItem reports whether an item (real or placeholder) with id exists.
func (c *Collection) HasItem(id string) bool {
	_, ok := c.items[id]
	return ok
}

// Items returns every item id, sorted.
func (c *Collection) Items() []string {
	return slices.Sorted(maps.Keys(c.items))
}

// Len returns the number of items, placeholders included.
func (c *Collection) Len() int {
	return len(c.items)
}

// AddRelation records source -relation-> target and, when relation has a
// reverse, the implicit target -reverse-> source. An unknown target is
// created as a placeholder.
func (c *Collection) AddRelation(sourceID, relation, targetID string) error {
	source, ok := c.items[sourceID]
	if !ok {
		return &UnknownSourceError{ID: sourceID}
	}
	reverse, hasReverse, known := c.registry.ReverseOf(relation)
	if !known {
		return &UnknownRelationError{Relation: relation, Source: sourceID, Document: source.Document()}
	}

	source.AddTarget(relation, targetID, false)
	if !hasReverse {
		return nil
	}

	target, ok := c.items[targetID]
	if !ok {
		target = item.NewPlaceholder(targetID)
		c.items[targetID] = target
		c.logger.Debug("placeholder created", "item", targetID, "referenced_by", sourceID, "relation", relation)
	}
	target.AddTarget(reverse, sourceID, true)
	return nil
}

// Placeholders returns the ids of items that were referenced but never
// declared, sorted.
func (c *Collection) Placeholders() []string {
	var ids []string
	for _, id := range c.Items() {
		if c.items[id].IsPlaceholder() {
			ids = append(ids, id)
		}
	}
	return ids
}

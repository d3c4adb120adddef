// Package item provides the traceable item entity held by a collection.
//
// An item is either a placeholder (a stub created because a relation points
// at an id nobody declared yet) or real. The only allowed transition is
// Placeholder -> Real, performed by Promote when the declaration arrives.
package item

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/roach88/tracegraph/internal/ir"
)

// State is the lifecycle state of an item.
type State int

const (
	// StatePlaceholder marks a stub created for a forward reference.
	StatePlaceholder State = iota
	// StateReal marks an item with declared content.
	StateReal
)

func (s State) String() string {
	switch s {
	case StatePlaceholder:
		return "PLACEHOLDER"
	case StateReal:
		return "REAL"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type targetSet map[string]map[string]struct{}

func (ts targetSet) add(relation, target string) {
	set, ok := ts[relation]
	if !ok {
		set = make(map[string]struct{})
		ts[relation] = set
	}
	set[target] = struct{}{}
}

func (ts targetSet) remove(relation, target string) {
	set, ok := ts[relation]
	if !ok {
		return
	}
	delete(set, target)
	if len(set) == 0 {
		delete(ts, relation)
	}
}

func (ts targetSet) has(relation, target string) bool {
	_, ok := ts[relation][target]
	return ok
}

func (ts targetSet) sorted(relation string) []string {
	return slices.Sorted(maps.Keys(ts[relation]))
}

// Item is a traceable item: an id, the document it was declared in, its
// attributes and content, and its targets per relation.
//
// Targets are partitioned into explicit ones (declared by a document) and
// implicit ones (added automatically as reverse links). A target is never
// both: explicit wins.
type Item struct {
	id         string
	document   string
	state      State
	content    string
	attributes map[string]string
	explicit   targetSet
	implicit   targetSet
}

// New creates a real item declared in document. An empty document means
// the item has no document of origin.
func New(id, document string) *Item {
	return &Item{
		id:         id,
		document:   document,
		state:      StateReal,
		attributes: make(map[string]string),
		explicit:   make(targetSet),
		implicit:   make(targetSet),
	}
}

// NewPlaceholder creates a stub item for id.
func NewPlaceholder(id string) *Item {
	it := New(id, "")
	it.state = StatePlaceholder
	return it
}

// ID returns the item identifier.
func (it *Item) ID() string { return it.id }

// Document returns the document the item was declared in, or "" if unset.
func (it *Item) Document() string { return it.document }

// HasDocument reports whether the item has a document of origin.
func (it *Item) HasDocument() bool { return it.document != "" }

// SetDocument sets the document of origin.
func (it *Item) SetDocument(document string) { it.document = document }

// State returns the lifecycle state.
func (it *Item) State() State { return it.state }

// IsPlaceholder reports whether the item is still a forward-reference stub.
func (it *Item) IsPlaceholder() bool { return it.state == StatePlaceholder }

// Content returns the item's text content.
func (it *Item) Content() string { return it.content }

// SetContent sets the item's text content.
func (it *Item) SetContent(content string) { it.content = content }

// SetAttribute sets attribute name to value.
func (it *Item) SetAttribute(name, value string) { it.attributes[name] = value }

// Attribute returns the value of attribute name.
func (it *Item) Attribute(name string) (string, bool) {
	v, ok := it.attributes[name]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (it *Item) Attributes() map[string]string {
	return maps.Clone(it.attributes)
}

// AddTarget records target under relation.
//
// An explicit target replaces an implicit one for the same (relation, target).
// An implicit target that is already explicit is ignored. Adding a target
// twice is a no-op.
func (it *Item) AddTarget(relation, target string, implicit bool) {
	if implicit {
		if it.explicit.has(relation, target) {
			return
		}
		it.implicit.add(relation, target)
		return
	}
	it.implicit.remove(relation, target)
	it.explicit.add(relation, target)
}

// Targets returns every target under relation, sorted.
func (it *Item) Targets(relation string) []string {
	all := append(it.explicit.sorted(relation), it.implicit.sorted(relation)...)
	slices.Sort(all)
	return all
}

// ExplicitTargets returns the declared targets under relation, sorted.
func (it *Item) ExplicitTargets(relation string) []string {
	return it.explicit.sorted(relation)
}

// ImplicitTargets returns the automatically added targets under relation, sorted.
func (it *Item) ImplicitTargets(relation string) []string {
	return it.implicit.sorted(relation)
}

// HasTarget reports whether target is recorded under relation.
func (it *Item) HasTarget(relation, target string) bool {
	return it.explicit.has(relation, target) || it.implicit.has(relation, target)
}

// Relations returns the relations under which the item has targets, sorted.
func (it *Item) Relations() []string {
	names := make(map[string]struct{}, len(it.explicit)+len(it.implicit))
	for rel := range it.explicit {
		names[rel] = struct{}{}
	}
	for rel := range it.implicit {
		names[rel] = struct{}{}
	}
	return slices.Sorted(maps.Keys(names))
}

// IsRelated reports whether target is recorded under any of relations.
func (it *Item) IsRelated(relations []string, target string) bool {
	for _, rel := range relations {
		if it.HasTarget(rel, target) {
			return true
		}
	}
	return false
}

// Promote merges the real declaration other into the placeholder it.
//
// The id is kept, the placeholder flag clears, document, content and
// attributes come from other, and targets already recorded on it are kept
// and unioned with the targets of other.
func (it *Item) Promote(other *Item) error {
	if other.id != it.id {
		return fmt.Errorf("promote %q: incoming item has id %q", it.id, other.id)
	}
	if it.state != StatePlaceholder {
		return fmt.Errorf("promote %q: disallowed transition %s -> %s", it.id, it.state, StateReal)
	}

	it.state = StateReal
	it.document = other.document
	it.content = other.content
	maps.Copy(it.attributes, other.attributes)
	it.MergeTargets(other)
	return nil
}

// MergeTargets adds every target of other to it, keeping the explicit and
// implicit partition.
func (it *Item) MergeTargets(other *Item) {
	for rel, set := range other.explicit {
		for tgt := range set {
			it.AddTarget(rel, tgt, false)
		}
	}
	for rel, set := range other.implicit {
		for tgt := range set {
			it.AddTarget(rel, tgt, true)
		}
	}
}

// IsMatch reports whether the item id matches pattern.
// The match is anchored at the start of the id.
func (it *Item) IsMatch(pattern *regexp.Regexp) bool {
	loc := pattern.FindStringIndex(it.id)
	return loc != nil && loc[0] == 0
}

// AttributesMatch reports whether every filter matches the value of its
// attribute, anchored at the start of the value. A missing attribute never
// matches; an empty filter set always does.
func (it *Item) AttributesMatch(filters map[string]*regexp.Regexp) bool {
	for name, pattern := range filters {
		value, ok := it.attributes[name]
		if !ok {
			return false
		}
		loc := pattern.FindStringIndex(value)
		if loc == nil || loc[0] != 0 {
			return false
		}
	}
	return true
}

// Record returns the exportable state of the item.
func (it *Item) Record() ir.ItemRecord {
	rec := ir.ItemRecord{
		ID:          it.id,
		Placeholder: it.IsPlaceholder(),
		Content:     it.content,
		Attributes:  maps.Clone(it.attributes),
		Targets:     make(map[string][]string),
		Implicit:    make(map[string][]string),
	}
	if it.HasDocument() {
		doc := it.document
		rec.Document = &doc
	}
	for _, rel := range it.Relations() {
		rec.Targets[rel] = it.Targets(rel)
		if implicit := it.ImplicitTargets(rel); len(implicit) > 0 {
			rec.Implicit[rel] = implicit
		}
	}
	return rec
}

func (it *Item) String() string {
	return fmt.Sprintf("%s (%s, document=%q)", it.id, it.state, it.document)
}

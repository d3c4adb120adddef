package graph

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/tracegraph/internal/ir"
)

// reverse is the registry entry of one relation name. ok is false for
// one-way relations.
type reverse struct {
	name string
	ok   bool
}

// Registry maps relation names to their reverse relation.
//
// A one-way relation has no reverse at all. It is stored as an explicit
// absent value rather than a sentinel name, so no legitimately named
// relation can collide with it.
type Registry struct {
	relations map[string]reverse
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = discardLogger()
	}
	return &Registry{
		relations: make(map[string]reverse),
		logger:    logger,
	}
}

// AddRelationPair registers forward -> reverse and reverse -> forward.
// Re-declaring a name overwrites the previous entry.
func (r *Registry) AddRelationPair(forward, rev string) error {
	if forward == "" || rev == "" {
		return fmt.Errorf("relation pair %q/%q: relation names must be non-empty", forward, rev)
	}
	r.set(forward, reverse{name: rev, ok: true})
	r.set(rev, reverse{name: forward, ok: true})
	return nil
}

// AddOneWayRelation registers forward with no reverse. Targets under a
// one-way relation are never reverse-checked.
func (r *Registry) AddOneWayRelation(forward string) error {
	if forward == "" {
		return fmt.Errorf("relation name must be non-empty")
	}
	r.set(forward, reverse{})
	return nil
}

// Add registers a relation declaration, pair or one-way.
func (r *Registry) Add(decl ir.RelationDecl) error {
	if decl.OneWay() {
		return r.AddOneWayRelation(decl.Forward)
	}
	return r.AddRelationPair(decl.Forward, decl.Reverse)
}

func (r *Registry) set(name string, rev reverse) {
	if prev, ok := r.relations[name]; ok && prev != rev {
		r.logger.Warn("relation redeclared",
			"relation", name,
			"previous_reverse", describeReverse(prev),
			"reverse", describeReverse(rev))
	}
	r.relations[name] = rev
}

func describeReverse(rev reverse) string {
	if !rev.ok {
		return "(none)"
	}
	return rev.name
}

// ReverseOf looks up the reverse of forward.
// known is false if forward is not registered; hasReverse is false if
// forward is a one-way relation.
func (r *Registry) ReverseOf(forward string) (rev string, hasReverse, known bool) {
	entry, known := r.relations[forward]
	if !known {
		return "", false, false
	}
	return entry.name, entry.ok, true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.relations[name]
	return ok
}

// Relations returns every registered relation name in lexicographic order.
func (r *Registry) Relations() []string {
	return slices.Sorted(maps.Keys(r.relations))
}

// Pairs returns the registry as declarations, one per forward name, sorted.
// A pair appears twice, once from each side.
func (r *Registry) Pairs() []ir.RelationDecl {
	decls := make([]ir.RelationDecl, 0, len(r.relations))
	for _, name := range r.Relations() {
		entry := r.relations[name]
		decls = append(decls, ir.RelationDecl{Forward: name, Reverse: entry.name})
	}
	return decls
}

// Len returns the number of registered relation names.
func (r *Registry) Len() int {
	return len(r.relations)
}

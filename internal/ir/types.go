package ir

import "slices"

// RelationDecl declares a relation and its reverse.
// An empty Reverse declares a one-way relation (a link to something outside
// the collection) that is never reverse-checked.
type RelationDecl struct {
	Forward string `json:"forward" yaml:"forward"`
	Reverse string `json:"reverse,omitempty" yaml:"reverse,omitempty"`
}

// OneWay reports whether the declaration has no reverse relation.
func (d RelationDecl) OneWay() bool {
	return d.Reverse == ""
}

// ItemDecl is a traceable item as declared by a source file.
type ItemDecl struct {
	ID         string              `json:"id" yaml:"id"`
	Document   string              `json:"document,omitempty" yaml:"document,omitempty"`
	Content    string              `json:"content,omitempty" yaml:"content,omitempty"`
	Attributes map[string]string   `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Relations  map[string][]string `json:"relations,omitempty" yaml:"relations,omitempty"`

	// Source is the file the declaration came from (diagnostics only).
	Source string `json:"-" yaml:"-"`
	// Line is the 1-based line of the declaration, 0 if unknown.
	Line int `json:"-" yaml:"-"`
}

// Edge is a single source -relation-> target declaration.
type Edge struct {
	Source   string `json:"source"`
	Relation string `json:"relation"`
	Target   string `json:"target"`
}

// Edges flattens the declared relations of d into edges, sorted by relation
// then target.
func (d *ItemDecl) Edges() []Edge {
	relations := make([]string, 0, len(d.Relations))
	for rel := range d.Relations {
		relations = append(relations, rel)
	}
	slices.Sort(relations)

	var edges []Edge
	for _, rel := range relations {
		targets := slices.Clone(d.Relations[rel])
		slices.Sort(targets)
		for _, tgt := range slices.Compact(targets) {
			edges = append(edges, Edge{Source: d.ID, Relation: rel, Target: tgt})
		}
	}
	return edges
}

// ItemRecord is the full exported state of one item.
//
// Targets holds every target per relation (explicit and implicit, sorted).
// Implicit holds the subset added automatically as reverse links; it is
// omitted from the JSON export and used by the snapshot store.
type ItemRecord struct {
	ID          string              `json:"id"`
	Document    *string             `json:"document"`
	Placeholder bool                `json:"placeholder"`
	Content     string              `json:"content,omitempty"`
	Attributes  map[string]string   `json:"attributes,omitempty"`
	Targets     map[string][]string `json:"targets"`
	Implicit    map[string][]string `json:"-"`
}

// IsImplicit reports whether target is recorded as an implicit target of
// relation.
func (r *ItemRecord) IsImplicit(relation, target string) bool {
	return slices.Contains(r.Implicit[relation], target)
}

// CanonicalMap converts the record to a map for MarshalCanonical.
// Key order in the output is decided by the encoder, not by this map.
func (r *ItemRecord) CanonicalMap() map[string]any {
	var document any
	if r.Document != nil {
		document = *r.Document
	}

	targets := make(map[string]any, len(r.Targets))
	for rel, tgts := range r.Targets {
		sorted := slices.Clone(tgts)
		slices.Sort(sorted)
		list := make([]any, len(sorted))
		for i, t := range sorted {
			list[i] = t
		}
		targets[rel] = list
	}

	attributes := make(map[string]any, len(r.Attributes))
	for k, v := range r.Attributes {
		attributes[k] = v
	}

	return map[string]any{
		"attributes":  attributes,
		"content":     r.Content,
		"document":    document,
		"id":          r.ID,
		"placeholder": r.Placeholder,
		"targets":     targets,
	}
}

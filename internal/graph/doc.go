// Package graph provides the in-memory traceability collection: a relation
// registry plus a store of items connected by directed relations.
//
// # Lifecycle
//
// A Collection is owned by its caller for one build pass:
//
//	coll := graph.New(graph.WithLogger(logger))
//	coll.Registry().AddRelationPair("implements", "implemented-by")
//	coll.AddItem(item.New("REQ-1", "srs"))
//	coll.AddRelation("REQ-1", "implements", "DES-1") // DES-1 becomes a placeholder
//	coll.AddItem(item.New("DES-1", "design"))        // placeholder promoted in place
//	err := coll.SelfTest("")                          // every violation, in one error
//	coll.ExportFile("items.json")
//
// There is no package-level state; independent document sets use
// independent collections. A Collection is not safe for concurrent use.
//
// # Reverse links
//
// AddRelation records the explicit target on the source and, for relations
// with a reverse, an implicit target on the target item. Targets under a
// one-way relation are never reverse-checked.
//
// # Validation
//
// Forward references are legal while declarations are still arriving, so
// dangling targets and missing reverse links are only reported by SelfTest.
// SelfTest collects every problem and returns them in a single
// *AggregateValidationError.
package graph

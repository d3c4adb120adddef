// Package ir provides the declaration and record types shared by every
// tracegraph package.
//
// This package contains type definitions and the canonical JSON encoder only.
// All other internal packages import ir; ir imports nothing internal. This
// keeps ir the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Declarations (RelationDecl, ItemDecl) are what source files say
//   - Records (ItemRecord) are what the collection holds after ingestion
//   - All JSON tags use snake_case
//   - Exported output is canonical: sorted keys, sorted arrays, strings as stored
package ir

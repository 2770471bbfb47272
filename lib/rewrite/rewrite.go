// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rewrite

import "github.com/bureau-foundation/prefab/lib/object"

// Referencer is anything holding object references that can be
// rewritten in place. [object.Object] and sequence nodes implement it.
type Referencer interface {
	RewriteReferences(replace func(*object.Object) *object.Object) int
}

// Mapping is a set of reference substitutions.
type Mapping struct {
	pairs  map[*object.Object]*object.Object
	values map[*object.Object]int

	// Scope is the owner whose unmapped objects are nulled when
	// rewriting with nullUnmapped. When nil, the scope of each
	// rewritten root is used: its owner, if it is an object.
	Scope object.Owner
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{
		pairs:  make(map[*object.Object]*object.Object),
		values: make(map[*object.Object]int),
	}
}

// Set maps from to to. A nil to nulls references to from.
func (mapping *Mapping) Set(from, to *object.Object) {
	if previous, ok := mapping.pairs[from]; ok && previous != nil {
		mapping.values[previous]--
		if mapping.values[previous] == 0 {
			delete(mapping.values, previous)
		}
	}
	mapping.pairs[from] = to
	if to != nil {
		mapping.values[to]++
	}
}

// Lookup returns the replacement for from and whether from is a key.
func (mapping *Mapping) Lookup(from *object.Object) (*object.Object, bool) {
	to, ok := mapping.pairs[from]
	return to, ok
}

// Len returns the number of keys.
func (mapping *Mapping) Len() int { return len(mapping.pairs) }

// Inverse returns the mapping from every non-nil value back to its key.
// Nil values (tombstones) have no inverse. Scope is not carried over.
func (mapping *Mapping) Inverse() *Mapping {
	inverse := NewMapping()
	for from, to := range mapping.pairs {
		if to != nil {
			inverse.Set(to, from)
		}
	}
	return inverse
}

// Result counts the slots a rewrite touched.
type Result struct {
	// Replaced counts references swapped for their mapped value,
	// including mapped-to-nil keys.
	Replaced int

	// Nulled counts unmapped in-scope references cleared under
	// nullUnmapped.
	Nulled int
}

// Add accumulates other into result.
func (result *Result) Add(other Result) {
	result.Replaced += other.Replaced
	result.Nulled += other.Nulled
}

// Rewrite replaces every reference reachable from root whose target is
// a key of mapping with the mapped value. With nullUnmapped, references
// to unmapped objects owned by the mapping's scope are set to nil;
// otherwise they are left alone. References that already point at a
// mapped value are never nulled, which keeps the rewrite idempotent.
func Rewrite(root Referencer, mapping *Mapping, nullUnmapped bool) Result {
	var result Result
	scope := mapping.Scope
	if scope == nil {
		if rootObject, ok := root.(*object.Object); ok {
			scope = rootObject.Owner()
		}
	}
	root.RewriteReferences(func(target *object.Object) *object.Object {
		if replacement, ok := mapping.pairs[target]; ok {
			if replacement != target {
				result.Replaced++
			}
			return replacement
		}
		if _, isValue := mapping.values[target]; isValue {
			return target
		}
		if nullUnmapped && scope != nil && target.Owner() == scope {
			result.Nulled++
			return nil
		}
		return target
	})
	return result
}

// RewriteAll runs [Rewrite] over each root and sums the results.
func RewriteAll[R Referencer](roots []R, mapping *Mapping, nullUnmapped bool) Result {
	var total Result
	for _, root := range roots {
		total.Add(Rewrite(root, mapping, nullUnmapped))
	}
	return total
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rewrite substitutes object references across an object graph.
//
// A [Mapping] pairs source objects with replacements. [Rewrite] visits
// every reference reachable from a root (properties, list elements, and
// components) and replaces each one whose target is a mapping key. A
// key may map to nil, which nulls the reference; prefab tombstones use
// this. With nullUnmapped set, references to objects that are not keys
// but belong to the mapping's scope are nulled as well, so converting
// an instance back into archetype form cannot leak private references
// into a template.
//
// Rewriting is synchronous and idempotent: once every reference points
// outside the mapping's key set, running it again changes nothing.
package rewrite

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/sequence"
	"github.com/bureau-foundation/prefab/lib/transform"
)

// Container is the level an instance lives in. Every Host call that
// creates or edits objects names its container explicitly.
type Container = object.Owner

// Host is the scene an instance is placed in.
type Host interface {
	// Spawn creates a live object in container constructed from
	// archetype and placed at placement. Data-kind archetypes ignore
	// the placement.
	Spawn(container Container, archetype *object.Object, placement transform.Transform) (*object.Object, error)

	// Destroy removes a live object from its container.
	Destroy(live *object.Object)

	// PreEdit and PostEdit bracket every in-place change to a live
	// object.
	PreEdit(live *object.Object)
	PostEdit(live *object.Object)

	// Locked reports whether container refuses edits.
	Locked(container Container) bool

	// Resolve returns the live object with id, or nil.
	Resolve(id object.ID) *object.Object

	// Class returns the class named name.
	Class(name string) (*object.Class, bool)

	// PrefabSequence returns the sequence of container that holds
	// prefab sequence instances, creating it if needed.
	PrefabSequence(container Container) (*sequence.Node, error)

	// ReleasePrefabSequence removes container's prefab sequence if it
	// is empty.
	ReleasePrefabSequence(container Container)
}

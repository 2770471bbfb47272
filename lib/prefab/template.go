// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/sequence"
)

// Template is a versioned set of archetypes. It owns its archetypes
// and never owns live objects. Every mutating method bumps the version.
type Template struct {
	name       string
	version    int
	archetypes []*object.Object
	removed    []*object.Object
	sequence   *sequence.Node
}

// NewTemplate returns an empty template at version 1.
func NewTemplate(name string) *Template {
	return &Template{name: name, version: 1}
}

// OwnerName implements [object.Owner].
func (template *Template) OwnerName() string { return template.name }

func (template *Template) Name() string { return template.name }
func (template *Template) Version() int { return template.version }

// Sequence returns the embedded script sequence, or nil.
func (template *Template) Sequence() *sequence.Node { return template.sequence }

// Archetypes returns the archetypes in order.
func (template *Template) Archetypes() []*object.Object {
	return slices.Clone(template.archetypes)
}

// Removed returns the tombstoned archetypes.
func (template *Template) Removed() []*object.Object {
	return slices.Clone(template.removed)
}

// AddArchetype makes archetype a member of the template. The template
// becomes its owner.
func (template *Template) AddArchetype(archetype *object.Object) error {
	if archetype == nil {
		return fmt.Errorf("prefab: template %s: nil archetype", template.name)
	}
	if template.Contains(archetype) {
		return fmt.Errorf("prefab: template %s already has %s", template.name, archetype.Name())
	}
	adopt(archetype, template)
	template.archetypes = append(template.archetypes, archetype)
	template.version++
	return nil
}

// RemoveArchetype tombstones archetype: instances destroy their copy on
// their next update and never spawn it again.
func (template *Template) RemoveArchetype(archetype *object.Object) error {
	index := slices.Index(template.archetypes, archetype)
	if index < 0 {
		return fmt.Errorf("prefab: template %s has no archetype %s", template.name, archetype)
	}
	template.archetypes = slices.Delete(template.archetypes, index, index+1)
	template.removed = append(template.removed, archetype)
	template.version++
	return nil
}

// SetSequence replaces the embedded sequence. A nil sequence removes
// it.
func (template *Template) SetSequence(node *sequence.Node) {
	template.sequence = node
	template.version++
}

// Touch bumps the version after archetypes were edited in place.
func (template *Template) Touch() { template.version++ }

// Contains reports whether archetype is a current or removed member.
func (template *Template) Contains(archetype *object.Object) bool {
	return slices.Contains(template.archetypes, archetype) || slices.Contains(template.removed, archetype)
}

// Find returns the member, removed member, or member component with
// id.
func (template *Template) Find(id object.ID) *object.Object {
	for _, list := range [][]*object.Object{template.archetypes, template.removed} {
		for _, archetype := range list {
			if archetype.ID() == id {
				return archetype
			}
			for _, component := range archetype.Components() {
				if component.ID() == id {
					return component
				}
			}
		}
	}
	return nil
}

// Describe summarizes the template: its actor count and the size of
// its sequence.
func (template *Template) Describe() string {
	actors := 0
	for _, archetype := range template.archetypes {
		if archetype.Kind() == object.KindActor {
			actors++
		}
	}
	if template.sequence == nil {
		return fmt.Sprintf("%d Actors, No Kismet", actors)
	}
	return fmt.Sprintf("%d Actors, %d Kismet Objs", actors, len(template.sequence.Children))
}

// Compact drops nil and pending-kill archetypes, as left behind by a
// partial load. It returns the number dropped and does not bump the
// version.
func (template *Template) Compact() int {
	before := len(template.archetypes)
	template.archetypes = slices.DeleteFunc(template.archetypes, func(archetype *object.Object) bool {
		return archetype == nil || archetype.PendingKill()
	})
	return before - len(template.archetypes)
}

func adopt(archetype *object.Object, owner object.Owner) {
	archetype.SetOwner(owner)
	for _, component := range archetype.Components() {
		component.SetOwner(owner)
	}
}

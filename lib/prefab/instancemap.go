// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"fmt"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/rewrite"
)

// Entry is the state of one archetype in an instance: a live object, or
// removed.
type Entry struct {
	live    *object.Object
	removed bool
}

// Live returns an entry holding live.
func Live(live *object.Object) Entry { return Entry{live: live} }

// Removed returns a tombstone entry.
func Removed() Entry { return Entry{removed: true} }

// IsRemoved reports whether the entry is a tombstone.
func (entry Entry) IsRemoved() bool { return entry.removed }

// Object returns the live object, or nil for a tombstone.
func (entry Entry) Object() *object.Object { return entry.live }

func (entry Entry) String() string {
	if entry.removed {
		return "removed"
	}
	return "live(" + entry.live.String() + ")"
}

// Member pairs an archetype with its live object.
type Member struct {
	Archetype *object.Object
	Live      *object.Object
}

// Orphan is an entry whose archetype could not be found when the map
// was restored from persisted state.
type Orphan struct {
	ArchetypeID object.ID
	Entry       Entry
}

// InstanceMap is the ordered correspondence from archetypes to entries.
// Archetype keys are borrowed from the template; live objects are owned
// by the instance.
type InstanceMap struct {
	order   []*object.Object
	entries map[*object.Object]Entry
	orphans []Orphan
}

// NewInstanceMap returns an empty map.
func NewInstanceMap() *InstanceMap {
	return &InstanceMap{entries: make(map[*object.Object]Entry)}
}

// Len returns the number of entries, tombstones included.
func (members *InstanceMap) Len() int { return len(members.order) }

// Lookup returns the entry for archetype. The second result is false
// when the archetype has no entry at all, which is distinct from a
// tombstone.
func (members *InstanceMap) Lookup(archetype *object.Object) (Entry, bool) {
	entry, ok := members.entries[archetype]
	return entry, ok
}

// SetLive records live as the instance of archetype. It panics with
// [ErrClassMismatch] if live's class is not archetype's class or a
// subclass of it.
func (members *InstanceMap) SetLive(archetype, live *object.Object) {
	if archetype == nil || live == nil {
		panic("prefab: SetLive with a nil archetype or live object")
	}
	if !live.Class().IsA(archetype.Class()) {
		panic(fmt.Errorf("%w: %s is a %s, archetype %s is a %s",
			ErrClassMismatch, live, live.Class(), archetype, archetype.Class()))
	}
	members.set(archetype, Live(live))
}

// SetRemoved tombstones archetype. The key is kept.
func (members *InstanceMap) SetRemoved(archetype *object.Object) {
	if archetype == nil {
		panic("prefab: SetRemoved with a nil archetype")
	}
	members.set(archetype, Removed())
}

func (members *InstanceMap) set(archetype *object.Object, entry Entry) {
	if _, exists := members.entries[archetype]; !exists {
		members.order = append(members.order, archetype)
	}
	members.entries[archetype] = entry
}

// Delete drops the entry for archetype entirely.
func (members *InstanceMap) Delete(archetype *object.Object) {
	if _, exists := members.entries[archetype]; !exists {
		return
	}
	delete(members.entries, archetype)
	for i, key := range members.order {
		if key == archetype {
			members.order = append(members.order[:i:i], members.order[i+1:]...)
			break
		}
	}
}

// Archetypes returns the keys in insertion order.
func (members *InstanceMap) Archetypes() []*object.Object {
	keys := make([]*object.Object, len(members.order))
	copy(keys, members.order)
	return keys
}

// Members returns the live entries in insertion order.
func (members *InstanceMap) Members() []Member {
	var live []Member
	for _, archetype := range members.order {
		if entry := members.entries[archetype]; !entry.removed {
			live = append(live, Member{Archetype: archetype, Live: entry.live})
		}
	}
	return live
}

// LiveObjects returns the live objects in insertion order.
func (members *InstanceMap) LiveObjects() []*object.Object {
	var live []*object.Object
	for _, member := range members.Members() {
		live = append(live, member.Live)
	}
	return live
}

// Contains reports whether live is one of the map's live objects.
func (members *InstanceMap) Contains(live *object.Object) bool {
	for _, entry := range members.entries {
		if entry.live == live {
			return true
		}
	}
	return false
}

// Orphans returns entries whose archetype could not be resolved.
func (members *InstanceMap) Orphans() []Orphan {
	orphans := make([]Orphan, len(members.orphans))
	copy(orphans, members.orphans)
	return orphans
}

func (members *InstanceMap) addOrphan(orphan Orphan) {
	members.orphans = append(members.orphans, orphan)
}

// Clear removes every entry and orphan.
func (members *InstanceMap) Clear() {
	members.order = nil
	members.entries = make(map[*object.Object]Entry)
	members.orphans = nil
}

// Mapping returns the rewrite mapping from archetypes to live objects.
// Archetype components map to the live components at the same index
// when their classes match. Tombstoned archetypes and their components
// map to nil.
func (members *InstanceMap) Mapping() *rewrite.Mapping {
	mapping := rewrite.NewMapping()
	for _, archetype := range members.order {
		entry := members.entries[archetype]
		mapping.Set(archetype, entry.live)
		addComponentPairs(mapping, archetype, entry.live)
	}
	return mapping
}

func addComponentPairs(mapping *rewrite.Mapping, archetype, live *object.Object) {
	for i, archetypeComponent := range archetype.Components() {
		var liveComponent *object.Object
		if live != nil {
			if candidate := live.Component(i); candidate != nil && candidate.Class() == archetypeComponent.Class() {
				liveComponent = candidate
			}
		}
		if live != nil && liveComponent == nil {
			// Leave references to this archetype component alone rather
			// than nulling them for a member that is still alive.
			continue
		}
		mapping.Set(archetypeComponent, liveComponent)
	}
}

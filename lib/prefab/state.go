// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"fmt"

	"github.com/bureau-foundation/prefab/lib/diffarchive"
	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/sequence"
)

// State is the persisted form of an instance. Live objects are named
// by ID; they are expected to exist in the host when the state is
// restored.
type State struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	Template        string                   `json:"template"`
	Level           string                   `json:"level"`
	Transform       object.TransformDocument `json:"transform"`
	InstanceVersion int                      `json:"instance_version"`
	Members         []MemberState            `json:"members,omitempty"`
	SavedDiff       diffarchive.Buffer       `json:"saved_diff"`
	Sequence        string                   `json:"sequence,omitempty"`
}

// MemberState is one persisted map entry.
type MemberState struct {
	Archetype string `json:"archetype"`
	Live      string `json:"live,omitempty"`
	Removed   bool   `json:"removed,omitempty"`
}

// State returns the persisted form of the instance. Orphans are kept so
// that a later VerifyMemberArchetypes can report them.
func (instance *Instance) State() State {
	state := State{
		ID:              instance.id.String(),
		Name:            instance.name,
		Level:           instance.level.OwnerName(),
		Transform:       *object.NewTransformDocument(instance.placement),
		InstanceVersion: instance.version,
		SavedDiff:       instance.savedDiff.Clone(),
	}
	if instance.template != nil {
		state.Template = instance.template.Name()
	}
	for _, archetype := range instance.members.order {
		state.Members = append(state.Members, memberState(archetype.ID(), instance.members.entries[archetype]))
	}
	for _, orphan := range instance.members.orphans {
		state.Members = append(state.Members, memberState(orphan.ArchetypeID, orphan.Entry))
	}
	if instance.sequence != nil {
		state.Sequence = instance.sequence.ID.String()
	}
	return state
}

func memberState(archetypeID object.ID, entry Entry) MemberState {
	member := MemberState{Archetype: archetypeID.String(), Removed: entry.IsRemoved()}
	if live := entry.Object(); live != nil {
		member.Live = live.ID().String()
	}
	return member
}

// Restore rebuilds an instance from its persisted state. Config
// supplies the host, level, and template. Members whose archetype is
// not in the template become orphans; members whose live object no
// longer exists in the host become tombstones, since the object was
// deleted from the level.
func Restore(config Config, state State) (*Instance, error) {
	if config.Name == "" {
		config.Name = state.Name
	}
	config.Transform = state.Transform.Transform()
	instance, err := NewInstance(config)
	if err != nil {
		return nil, err
	}
	if state.Template != "" && state.Template != config.Template.Name() {
		return nil, fmt.Errorf("prefab: restoring %s: state is for template %s, not %s", state.Name, state.Template, config.Template.Name())
	}
	if instance.id, err = object.ParseID(state.ID); err != nil {
		return nil, fmt.Errorf("prefab: restoring %s: %w", state.Name, err)
	}
	instance.version = state.InstanceVersion
	instance.savedDiff = state.SavedDiff.Clone()

	for _, member := range state.Members {
		archetypeID, err := object.ParseID(member.Archetype)
		if err != nil {
			return nil, fmt.Errorf("prefab: restoring %s member: %w", state.Name, err)
		}
		entry := Removed()
		if !member.Removed {
			liveID, err := object.ParseID(member.Live)
			if err != nil {
				return nil, fmt.Errorf("prefab: restoring %s member %s: %w", state.Name, archetypeID, err)
			}
			if live := instance.host.Resolve(liveID); live != nil {
				entry = Live(live)
			}
		}

		archetype := instance.template.Find(archetypeID)
		if archetype == nil || archetype.Outer() != nil {
			instance.members.addOrphan(Orphan{ArchetypeID: archetypeID, Entry: entry})
			continue
		}
		if live := entry.Object(); live != nil && !live.Class().IsA(archetype.Class()) {
			return nil, fmt.Errorf("prefab: restoring %s: %w: %s is a %s, archetype %s is a %s",
				state.Name, ErrClassMismatch, live, live.Class(), archetype, archetype.Class())
		}
		instance.members.set(archetype, entry)
	}

	if state.Sequence != "" {
		instance.sequence, err = instance.findSequence(state.Sequence)
		if err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// findSequence locates the instance's sequence in the level's prefab
// sequence by ID. A missing sequence is not an error: the next update
// instantiates a fresh one.
func (instance *Instance) findSequence(text string) (*sequence.Node, error) {
	id, err := object.ParseID(text)
	if err != nil {
		return nil, fmt.Errorf("prefab: restoring %s sequence: %w", instance.name, err)
	}
	parent, err := instance.host.PrefabSequence(instance.level)
	if err != nil {
		return nil, fmt.Errorf("prefab: restoring %s sequence: %w", instance.name, err)
	}
	for _, child := range parent.Children {
		if child.ID == id {
			return child, nil
		}
	}
	instance.host.ReleasePrefabSequence(instance.level)
	return nil, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/scene"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestStateRestoreRoundTrip(t *testing.T) {
	fixture := newFixture(t)
	instance := fixture.instantiate(t)
	liveA := liveOf(t, instance, fixture.meshA)
	liveA.SetProperty("DrawScale", object.FloatValue(1.5))
	if err := instance.SaveDifferences(); err != nil {
		t.Fatalf("SaveDifferences: %v", err)
	}

	data, err := json.Marshal(instance.State())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(instance.State(), state, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("state changed through JSON (-want +got):\n%s", diff)
	}

	restored, err := Restore(fixture.config(), state)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.ID() != instance.ID() || restored.Name() != instance.Name() {
		t.Errorf("restored %s %q, want %s %q", restored.ID(), restored.Name(), instance.ID(), instance.Name())
	}
	if restored.Transform() != instance.Transform() {
		t.Errorf("transform = %v, want %v", restored.Transform(), instance.Transform())
	}
	if restored.InstanceVersion() != instance.InstanceVersion() {
		t.Errorf("InstanceVersion = %d, want %d", restored.InstanceVersion(), instance.InstanceVersion())
	}
	if restored.Sequence() != instance.Sequence() {
		t.Errorf("sequence = %v, want the level's instance sequence", restored.Sequence())
	}
	for _, member := range instance.Members().Members() {
		if got := liveOf(t, restored, member.Archetype); got != member.Live {
			t.Errorf("%s restored as %v", member.Live.Name(), got)
		}
	}
	if len(restored.Members().Orphans()) != 0 {
		t.Errorf("orphans = %v", restored.Members().Orphans())
	}

	// The restored instance carries the saved edit through an update.
	fixture.template.Touch()
	report, err := restored.Update()
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(report.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", report.Diagnostics)
	}
	if value, _ := liveA.Property("DrawScale"); value.Float() != 1.5 {
		t.Errorf("DrawScale = %v, want 1.5", value)
	}
}

func TestRestoreComponentArchetypeIsOrphan(t *testing.T) {
	fixture := newFixture(t)
	instance := fixture.instantiate(t)
	state := instance.State()
	liveTrigger := liveOf(t, instance, fixture.trigger)
	state.Members = append(state.Members, MemberState{
		Archetype: fixture.trigger.Component(0).ID().String(),
		Live:      liveTrigger.Component(0).ID().String(),
	})

	restored, err := Restore(fixture.config(), state)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	orphans := restored.Members().Orphans()
	if len(orphans) != 1 || orphans[0].ArchetypeID != fixture.trigger.Component(0).ID() {
		t.Errorf("orphans = %v", orphans)
	}
}

func TestRestoreClassMismatch(t *testing.T) {
	fixture := newFixture(t)
	instance := fixture.instantiate(t)
	light, err := fixture.world.SpawnClass(fixture.level, scene.PointLight, fixture.placement)
	if err != nil {
		t.Fatalf("SpawnClass: %v", err)
	}
	state := instance.State()
	state.Members[0].Live = light.ID().String()

	if _, err := Restore(fixture.config(), state); !errors.Is(err, ErrClassMismatch) {
		t.Errorf("Restore error = %v, want ErrClassMismatch", err)
	}
}

func TestRestoreRejectsMalformedState(t *testing.T) {
	fixture := newFixture(t)
	instance := fixture.instantiate(t)

	for name, mutate := range map[string]func(*State){
		"other template": func(state *State) { state.Template = "Watchtower" },
		"bad id":         func(state *State) { state.ID = "not-an-id" },
		"bad archetype":  func(state *State) { state.Members[0].Archetype = "x" },
		"bad live":       func(state *State) { state.Members[0].Live = "x" },
		"bad sequence":   func(state *State) { state.Sequence = "x" },
	} {
		t.Run(name, func(t *testing.T) {
			state := instance.State()
			mutate(&state)
			if _, err := Restore(fixture.config(), state); err == nil {
				t.Error("Restore succeeded")
			}
		})
	}
}

func TestRestoreMissingSequence(t *testing.T) {
	fixture := newFixture(t)
	instance := fixture.instantiate(t)
	state := instance.State()
	state.Sequence = object.NewID().String()

	restored, err := Restore(fixture.config(), state)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Sequence() != nil {
		t.Errorf("sequence = %v, want nil", restored.Sequence())
	}
}

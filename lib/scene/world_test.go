// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scene

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/transform"
)

func newTestLevel(t *testing.T) (*World, *Level) {
	t.Helper()
	world := NewWorld(Config{})
	level, err := world.NewLevel("Persistent")
	if err != nil {
		t.Fatalf("NewLevel: %v", err)
	}
	return world, level
}

func TestSpawnPlacesAndRegisters(t *testing.T) {
	world, level := newTestLevel(t)
	archetype := object.New(StaticMeshActor, "Crate", nil)
	archetype.AddComponent(object.New(StaticMeshComponent, "Mesh", nil))
	placement := transform.Transform{Location: transform.Vector{X: 10, Y: 20}}

	live, err := world.Spawn(level, archetype, placement)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if live.Name() != "StaticMeshActor_0" {
		t.Errorf("name = %q, want StaticMeshActor_0", live.Name())
	}
	if live.Transform() != placement {
		t.Errorf("transform = %v, want %v", live.Transform(), placement)
	}
	if live.Owner() != level || live.Component(0).Owner() != level {
		t.Error("spawned object and its components should belong to the level")
	}
	if !live.Attached() {
		t.Error("spawned object should have its components attached")
	}
	if world.Resolve(live.ID()) != live {
		t.Error("Resolve should find the spawned object")
	}
	if level.Find("StaticMeshActor_0") != live {
		t.Error("level should list the spawned object")
	}

	second, err := world.Spawn(level, archetype, placement)
	if err != nil {
		t.Fatalf("second Spawn: %v", err)
	}
	if second.Name() != "StaticMeshActor_1" {
		t.Errorf("second name = %q, want StaticMeshActor_1", second.Name())
	}
}

func TestSpawnIntoLockedLevel(t *testing.T) {
	world, level := newTestLevel(t)
	level.SetLocked(true)
	_, err := world.Spawn(level, object.New(Actor, "A", nil), transform.Identity)
	if !errors.Is(err, ErrLocked) {
		t.Errorf("Spawn error = %v, want ErrLocked", err)
	}
	if !world.Locked(level) {
		t.Error("Locked should report true")
	}
	if len(level.Objects()) != 0 {
		t.Error("nothing should have been spawned")
	}
}

func TestForeignContainerIsRejected(t *testing.T) {
	world, _ := newTestLevel(t)
	other, _ := NewWorld(Config{}).NewLevel("Elsewhere")
	if _, err := world.Spawn(other, object.New(Actor, "A", nil), transform.Identity); err == nil {
		t.Error("spawning into another world's level should fail")
	}
	if !world.Locked(other) {
		t.Error("a foreign level should count as locked")
	}
}

func TestDestroy(t *testing.T) {
	world, level := newTestLevel(t)
	live, err := world.SpawnClass(level, PointLight, transform.Identity)
	if err != nil {
		t.Fatalf("SpawnClass: %v", err)
	}
	world.Destroy(live)
	if !live.PendingKill() {
		t.Error("destroyed object should be pending kill")
	}
	if world.Resolve(live.ID()) != nil || len(level.Objects()) != 0 {
		t.Error("destroyed object is still reachable")
	}
	world.Destroy(live)
}

func TestEditBracketing(t *testing.T) {
	world, level := newTestLevel(t)
	live, err := world.SpawnClass(level, Actor, transform.Identity)
	if err != nil {
		t.Fatalf("SpawnClass: %v", err)
	}
	world.PreEdit(live)
	live.DetachComponents()
	if world.Editing() != 1 {
		t.Errorf("Editing = %d, want 1", world.Editing())
	}
	world.PostEdit(live)
	if world.Editing() != 0 {
		t.Errorf("Editing = %d after PostEdit, want 0", world.Editing())
	}
	if !live.Attached() {
		t.Error("PostEdit should reattach components")
	}
}

func TestPrefabSequenceLifecycle(t *testing.T) {
	world, level := newTestLevel(t)

	prefabs, err := world.PrefabSequence(level)
	if err != nil {
		t.Fatalf("PrefabSequence: %v", err)
	}
	if prefabs.Name != PrefabSequenceName || prefabs.Deletable {
		t.Errorf("prefab sequence = %q deletable=%v", prefabs.Name, prefabs.Deletable)
	}
	if prefabs.Parent() != level.Sequence() {
		t.Error("prefab sequence should live under the level root")
	}
	again, err := world.PrefabSequence(level)
	if err != nil || again != prefabs {
		t.Errorf("second PrefabSequence = %v, %v; want the same node", again, err)
	}

	if err := prefabs.AddObject(level.Sequence().Clone()); err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	world.ReleasePrefabSequence(level)
	if len(level.Sequence().Children) != 1 {
		t.Fatal("a non-empty prefab sequence must not be released")
	}

	prefabs.RemoveObject(prefabs.Children[0])
	world.ReleasePrefabSequence(level)
	if len(level.Sequence().Children) != 0 {
		t.Error("an empty prefab sequence should be released")
	}
}

func TestPrefabSequenceInLockedLevel(t *testing.T) {
	world, level := newTestLevel(t)
	level.SetLocked(true)
	if _, err := world.PrefabSequence(level); !errors.Is(err, ErrLocked) {
		t.Errorf("PrefabSequence error = %v, want ErrLocked", err)
	}
}

func TestDuplicateLevelName(t *testing.T) {
	world, _ := newTestLevel(t)
	if _, err := world.NewLevel("Persistent"); err == nil {
		t.Error("a second level with the same name should be refused")
	}
}

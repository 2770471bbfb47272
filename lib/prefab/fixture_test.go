// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"testing"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/scene"
	"github.com/bureau-foundation/prefab/lib/sequence"
	"github.com/bureau-foundation/prefab/lib/transform"
)

// fixture is a world with one level and a three-member template: two
// wall meshes and a trigger volume, cross-referencing each other, plus
// a door script whose event fires for the trigger.
type fixture struct {
	world     *scene.World
	level     *scene.Level
	template  *Template
	meshA     *object.Object
	meshB     *object.Object
	trigger   *object.Object
	placement transform.Transform
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	world := scene.NewWorld(scene.Config{})
	level, err := world.NewLevel("Persistent")
	if err != nil {
		t.Fatalf("NewLevel: %v", err)
	}

	meshA := object.New(scene.StaticMeshActor, "MeshA", nil)
	meshA.SetTransform(transform.Transform{Location: transform.Vector{X: 100}})
	meshA.SetProperty("StaticMesh", object.NameValue("Wall"))
	meshA.AddComponent(object.New(scene.StaticMeshComponent, "StaticMeshComponent0", nil))

	meshB := object.New(scene.StaticMeshActor, "MeshB", nil)
	meshB.SetTransform(transform.Transform{
		Location: transform.Vector{Y: 200},
		Rotation: transform.Rotator{Yaw: 8192},
	})
	meshB.SetProperty("StaticMesh", object.NameValue("Gate"))

	trigger := object.New(scene.TriggerVolume, "Trigger", nil)
	trigger.SetTransform(transform.Transform{Location: transform.Vector{Z: 50}})
	trigger.AddComponent(object.New(scene.BrushComponent, "BrushComponent0", nil))

	meshA.SetProperty("Partner", object.RefValue(meshB))
	trigger.SetProperty("Target", object.RefValue(meshA))
	trigger.SetProperty("Watched", object.ListValue(object.RefValue(meshA), object.RefValue(meshB)))
	trigger.SetProperty("Shape", object.RefValue(trigger.Component(0)))

	template := NewTemplate("Gatehouse")
	for _, archetype := range []*object.Object{meshA, meshB, trigger} {
		if err := template.AddArchetype(archetype); err != nil {
			t.Fatalf("AddArchetype: %v", err)
		}
	}
	template.SetSequence(newDoorScript(t, trigger, "In"))

	return &fixture{
		world:    world,
		level:    level,
		template: template,
		meshA:    meshA,
		meshB:    meshB,
		trigger:  trigger,
		placement: transform.Transform{
			Location: transform.Vector{X: 1000, Y: 500},
			Rotation: transform.Rotator{Yaw: transform.FullTurn / 4},
		},
	}
}

// newDoorScript builds a script sequence with one labeled input, an
// "Out" output, and a touch event for originator driving a toggle.
func newDoorScript(t *testing.T, originator *object.Object, inputLabel string) *sequence.Node {
	t.Helper()
	root := sequence.NewSequence("DoorScript")
	root.Inputs = []sequence.Input{{Label: inputLabel}}
	root.Outputs = []sequence.Output{{Label: "Out"}}
	event := sequence.NewNode(sequence.KindEvent, "Event_Touch", "Touch", nil, []string{"Touched"})
	event.Originator = originator
	toggle := sequence.NewNode(sequence.KindAction, "Action_Toggle", "Toggle", []string{"Toggle"}, []string{"Out"})
	for _, node := range []*sequence.Node{event, toggle} {
		if err := root.AddObject(node); err != nil {
			t.Fatalf("AddObject: %v", err)
		}
	}
	if !event.AddLink(0, toggle, 0) {
		t.Fatal("linking event to toggle failed")
	}
	return root
}

func (fixture *fixture) config() Config {
	return Config{
		Host:      fixture.world,
		Level:     fixture.level,
		Template:  fixture.template,
		Name:      "Gatehouse_0",
		Transform: fixture.placement,
	}
}

func (fixture *fixture) instantiate(t *testing.T) *Instance {
	t.Helper()
	instance, err := NewInstance(fixture.config())
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	if _, err := instance.InstancePrefab(); err != nil {
		t.Fatalf("InstancePrefab: %v", err)
	}
	return instance
}

func liveOf(t *testing.T, instance *Instance, archetype *object.Object) *object.Object {
	t.Helper()
	entry, ok := instance.Members().Lookup(archetype)
	if !ok {
		t.Fatalf("no entry for %s", archetype.Name())
	}
	if entry.IsRemoved() {
		t.Fatalf("%s is tombstoned", archetype.Name())
	}
	return entry.Object()
}

func refOf(t *testing.T, holder *object.Object, property string) *object.Object {
	t.Helper()
	value, ok := holder.Property(property)
	if !ok || value.Kind() != object.ValueRef {
		t.Fatalf("%s.%s = %v, want a reference", holder.Name(), property, value)
	}
	return value.Ref()
}

// assertClosure checks that no live member references an archetype or
// anything else owned by the template.
func assertClosure(t *testing.T, instance *Instance) {
	t.Helper()
	for _, live := range instance.Members().LiveObjects() {
		for _, target := range live.References() {
			if _, isKey := instance.Members().Lookup(target); isKey {
				t.Errorf("%s still references archetype %s", live.Name(), target.Name())
			}
			if target.Owner() == instance.Template() {
				t.Errorf("%s references template-owned %s", live.Name(), target)
			}
		}
	}
}

// snapshot is the observable state of a live object.
type snapshot struct {
	properties object.Properties
	transform  transform.Transform
	components []object.Properties
}

func take(live *object.Object) snapshot {
	state := snapshot{properties: live.Properties(), transform: live.Transform()}
	for _, component := range live.Components() {
		state.components = append(state.components, component.Properties())
	}
	return state
}

func assertUnchanged(t *testing.T, live *object.Object, before snapshot) {
	t.Helper()
	after := take(live)
	if !after.properties.Equal(before.properties) {
		t.Errorf("%s properties = %v, want %v", live.Name(), after.properties, before.properties)
	}
	if after.transform != before.transform {
		t.Errorf("%s transform = %v, want %v", live.Name(), after.transform, before.transform)
	}
	if len(after.components) != len(before.components) {
		t.Fatalf("%s has %d components, want %d", live.Name(), len(after.components), len(before.components))
	}
	for i := range after.components {
		if !after.components[i].Equal(before.components[i]) {
			t.Errorf("%s component %d = %v, want %v", live.Name(), i, after.components[i], before.components[i])
		}
	}
}

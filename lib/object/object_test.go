// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/prefab/lib/transform"
)

type testOwner string

func (owner testOwner) OwnerName() string { return string(owner) }

var (
	testActor = NewClass("Actor", KindActor, nil, Properties{
		"Hidden": BoolValue(false),
	})
	testMesh = NewClass("StaticMeshActor", KindActor, testActor, Properties{
		"Mesh":  NameValue("Cube"),
		"Scale": FloatValue(1),
	})
	testComponent = NewClass("MeshComponent", KindData, nil, Properties{
		"Material": NameValue("Default"),
	})
	testData = NewClass("Settings", KindData, nil, nil)
)

func TestClassDefaultsLayerOverSuper(t *testing.T) {
	want := Properties{
		"Hidden": BoolValue(false),
		"Mesh":   NameValue("Cube"),
		"Scale":  FloatValue(1),
	}
	if !testMesh.Defaults().Equal(want) {
		t.Errorf("defaults = %v, want %v", testMesh.Defaults(), want)
	}
	if !testMesh.IsA(testActor) {
		t.Error("StaticMeshActor should be an Actor")
	}
	if testActor.IsA(testMesh) {
		t.Error("Actor should not be a StaticMeshActor")
	}
}

func TestClassKindMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a data class extending an actor class")
		}
	}()
	NewClass("Broken", KindData, testActor, nil)
}

func TestRegistryRejectsConflictingNames(t *testing.T) {
	registry := NewRegistry(testActor, testMesh)
	if err := registry.Register(testActor); err != nil {
		t.Errorf("re-registering the same class: %v", err)
	}
	impostor := NewClass("Actor", KindActor, nil, nil)
	if err := registry.Register(impostor); err == nil {
		t.Error("registering a different class under an existing name should fail")
	}
	if diff := cmp.Diff([]string{"Actor", "StaticMeshActor"}, registry.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestInstantiateCopiesArchetype(t *testing.T) {
	archetype := New(testMesh, "Crate", testOwner("Template"))
	archetype.SetProperty("Mesh", NameValue("Crate"))
	archetype.SetTransform(transform.Transform{Location: transform.Vector{X: 64}})
	archetype.AddComponent(New(testComponent, "Mesh0", nil))

	instance := Instantiate(archetype, "Crate_0", testOwner("Level"))

	if instance.Archetype() != archetype {
		t.Fatal("instance should record its archetype")
	}
	if instance.ID() == archetype.ID() {
		t.Error("instance should have its own identity")
	}
	if !instance.Properties().Equal(archetype.Properties()) {
		t.Errorf("properties = %v, want %v", instance.Properties(), archetype.Properties())
	}
	if instance.Transform() != archetype.Transform() {
		t.Errorf("transform = %v, want %v", instance.Transform(), archetype.Transform())
	}
	components := instance.Components()
	if len(components) != 1 {
		t.Fatalf("got %d components, want 1", len(components))
	}
	if components[0].Archetype() != archetype.Component(0) {
		t.Error("component should record the archetype component")
	}
	if components[0].Outer() != instance {
		t.Error("component outer should be the instance")
	}

	instance.SetProperty("Mesh", NameValue("Barrel"))
	if value, _ := archetype.Property("Mesh"); value.Text() != "Crate" {
		t.Errorf("editing the instance changed the archetype: %v", value)
	}
}

func TestResetToArchetypeKeepsMatchingComponents(t *testing.T) {
	archetype := New(testMesh, "Crate", testOwner("Template"))
	archetype.AddComponent(New(testComponent, "Mesh0", nil))
	instance := Instantiate(archetype, "Crate_0", testOwner("Level"))
	component := instance.Component(0)

	instance.SetProperty("Scale", FloatValue(3))
	instance.DeleteProperty("Hidden")
	component.SetProperty("Material", NameValue("Rust"))

	archetype.AddComponent(New(testComponent, "Mesh1", nil))
	instance.ResetToArchetype()

	if !instance.Properties().Equal(archetype.Properties()) {
		t.Errorf("properties after reset = %v, want %v", instance.Properties(), archetype.Properties())
	}
	if instance.Component(0) != component {
		t.Error("matching component should keep its identity")
	}
	if value, _ := component.Property("Material"); value.Text() != "Default" {
		t.Errorf("component material after reset = %v", value)
	}
	if len(instance.Components()) != 2 {
		t.Fatalf("got %d components, want 2", len(instance.Components()))
	}
	if instance.Component(1).Archetype() != archetype.Component(1) {
		t.Error("added component should be built from the new archetype component")
	}
}

func TestRewriteReferencesVisitsListsAndComponents(t *testing.T) {
	owner := testOwner("Level")
	oldTarget := New(testActor, "Old", owner)
	newTarget := New(testActor, "New", owner)
	other := New(testActor, "Other", owner)

	object := New(testActor, "Holder", owner)
	object.SetProperty("Target", RefValue(oldTarget))
	object.SetProperty("Targets", ListValue(RefValue(other), RefValue(oldTarget), IntValue(3)))
	component := New(testComponent, "Comp", nil)
	component.SetProperty("Owner", RefValue(oldTarget))
	object.AddComponent(component)

	changed := object.RewriteReferences(func(target *Object) *Object {
		if target == oldTarget {
			return newTarget
		}
		return target
	})
	if changed != 3 {
		t.Errorf("changed = %d, want 3", changed)
	}
	for _, target := range object.References() {
		if target == oldTarget {
			t.Fatalf("reference to %s survived the rewrite", oldTarget)
		}
	}
	list, _ := object.Property("Targets")
	if list.Index(0).Ref() != other || list.Index(1).Ref() != newTarget {
		t.Errorf("list after rewrite = %v", list)
	}

	if again := object.RewriteReferences(func(target *Object) *Object { return target }); again != 0 {
		t.Errorf("identity rewrite changed %d slots", again)
	}
}

func TestDataObjectHasNoTransform(t *testing.T) {
	object := New(testData, "Settings", nil)
	defer func() {
		if recover() == nil {
			t.Error("SetTransform on a data object should panic")
		}
	}()
	object.SetTransform(transform.Transform{Location: transform.Vector{X: 1}})
}

func TestDocumentRoundTrip(t *testing.T) {
	registry := NewRegistry(testActor, testMesh, testComponent)
	template := testOwner("Template")

	target := New(testActor, "Target", template)
	source := New(testMesh, "Source", template)
	source.SetTransform(transform.Transform{
		Location: transform.Vector{X: 1, Y: 2, Z: 3},
		Rotation: transform.Rotator{Yaw: 1024},
	})
	source.SetProperty("Target", RefValue(target))
	source.SetProperty("Offsets", ListValue(
		VectorValue(transform.Vector{X: 4}),
		RotatorValue(transform.Rotator{Roll: 7}),
	))
	source.SetProperty("External", RefValue(New(testActor, "Elsewhere", testOwner("Level"))))
	source.AddComponent(New(testComponent, "Mesh0", nil))

	decoder := NewDecoder(registry, template)
	decodedTarget, err := decoder.Decode(Encode(target))
	if err != nil {
		t.Fatalf("decoding target: %v", err)
	}
	decodedSource, err := decoder.Decode(Encode(source))
	if err != nil {
		t.Fatalf("decoding source: %v", err)
	}
	unresolved := decoder.Resolve(nil)
	if len(unresolved) != 1 {
		t.Errorf("unresolved = %v, want the one external reference", unresolved)
	}

	if decodedSource.ID() != source.ID() || decodedSource.Name() != "Source" {
		t.Errorf("identity not preserved: %s %s", decodedSource.ID(), decodedSource.Name())
	}
	if decodedSource.Transform() != source.Transform() {
		t.Errorf("transform = %v, want %v", decodedSource.Transform(), source.Transform())
	}
	if value, _ := decodedSource.Property("Target"); value.Ref() != decodedTarget {
		t.Errorf("Target resolved to %v, want the decoded target", value.Ref())
	}
	if value, _ := decodedSource.Property("External"); value.Kind() != ValueRef || value.Ref() != nil {
		t.Errorf("External = %v, want a null reference", value)
	}
	offsets, _ := decodedSource.Property("Offsets")
	wantOffsets, _ := source.Property("Offsets")
	if !offsets.Equal(wantOffsets) {
		t.Errorf("Offsets = %v, want %v", offsets, wantOffsets)
	}
	if len(decodedSource.Components()) != 1 || decodedSource.Component(0).Outer() != decodedSource {
		t.Error("component not restored under its outer")
	}
	if len(decoder.Objects()) != 3 {
		t.Errorf("decoded %d objects, want 3", len(decoder.Objects()))
	}
}

func TestDecodeRejectsUnknownClass(t *testing.T) {
	decoder := NewDecoder(NewRegistry(testActor), nil)
	_, err := decoder.Decode(Document{ID: NewID().String(), Name: "X", Class: "Missing"})
	if err == nil {
		t.Fatal("expected an error for an unknown class")
	}
}

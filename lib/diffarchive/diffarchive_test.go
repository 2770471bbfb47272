// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package diffarchive

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/prefab/lib/codec"
	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/transform"
)

type owner string

func (o owner) OwnerName() string { return string(o) }

var (
	meshClass = object.NewClass("StaticMeshActor", object.KindActor, nil, object.Properties{
		"Mesh":   object.NameValue("Cube"),
		"Scale":  object.FloatValue(1),
		"Hidden": object.BoolValue(false),
	})
	componentClass = object.NewClass("MeshComponent", object.KindData, nil, object.Properties{
		"Material": object.NameValue("Default"),
	})
	lightComponentClass = object.NewClass("LightComponent", object.KindData, nil, object.Properties{
		"Brightness": object.FloatValue(1),
	})
)

// testResolver resolves against a fixed set of objects and classes.
type testResolver struct {
	objects map[object.ID]*object.Object
	classes *object.Registry
}

func newTestResolver(objects ...*object.Object) *testResolver {
	resolver := &testResolver{
		objects: make(map[object.ID]*object.Object),
		classes: object.NewRegistry(meshClass, componentClass, lightComponentClass),
	}
	for _, candidate := range objects {
		resolver.objects[candidate.ID()] = candidate
	}
	return resolver
}

func (resolver *testResolver) ResolveObject(id object.ID) *object.Object {
	return resolver.objects[id]
}

func (resolver *testResolver) ResolveClass(name string) (*object.Class, bool) {
	return resolver.classes.Lookup(name)
}

func newArchetype() *object.Object {
	archetype := object.New(meshClass, "Crate", owner("Template"))
	archetype.SetTransform(transform.Transform{Location: transform.Vector{X: 32}})
	archetype.AddComponent(object.New(componentClass, "Mesh0", nil))
	return archetype
}

func writeOne(t *testing.T, target, baseline *object.Object) Buffer {
	t.Helper()
	writer := NewWriter()
	if err := writer.Write(target, baseline); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buffer, err := writer.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return buffer
}

func TestReplayRestoresEdits(t *testing.T) {
	archetype := newArchetype()
	neighbour := object.New(meshClass, "Neighbour", owner("Template"))
	live := object.Instantiate(archetype, "Crate_0", owner("Level"))

	live.SetProperty("Scale", object.FloatValue(2.5))
	live.SetProperty("Mesh", object.NameValue("Barrel"))
	live.SetProperty("Label", object.StringValue("loot"))
	live.SetProperty("Next", object.RefValue(neighbour))
	live.SetProperty("Empty", object.RefValue(nil))
	live.DeleteProperty("Hidden")
	live.SetTransform(transform.Transform{Location: transform.Vector{X: 40, Y: 8}, Rotation: transform.Rotator{Yaw: 512}})
	live.Component(0).SetProperty("Material", object.NameValue("Rust"))
	edited := live.Properties()
	editedTransform := live.Transform()

	buffer := writeOne(t, live, archetype)

	live.ResetToArchetype()
	if live.Properties().Equal(edited) {
		t.Fatal("reset did not discard the edits")
	}

	reader, err := NewReader(buffer)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	applied, err := reader.Apply(live, newTestResolver(neighbour))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !applied {
		t.Fatal("no record found for the written object")
	}
	if !live.Properties().Equal(edited) {
		t.Errorf("properties after replay = %v, want %v", live.Properties(), edited)
	}
	if live.Transform() != editedTransform {
		t.Errorf("transform after replay = %v, want %v", live.Transform(), editedTransform)
	}
	if value, _ := live.Component(0).Property("Material"); value.Text() != "Rust" {
		t.Errorf("component material = %v, want Rust", value)
	}
}

func TestUnchangedObjectRecordsNothing(t *testing.T) {
	archetype := newArchetype()
	live := object.Instantiate(archetype, "Crate_0", owner("Level"))

	buffer := writeOne(t, live, archetype)

	if len(buffer.SavedNames) != 0 || len(buffer.ReferencedObjects) != 0 || len(buffer.CompleteObjects) != 0 {
		t.Errorf("unchanged object populated tables: %+v", buffer)
	}
	if !buffer.Has(live.ID()) {
		t.Error("the object should still have a (empty) record")
	}
}

func TestNamesAreInterned(t *testing.T) {
	archetype := newArchetype()
	writer := NewWriter()
	for i := range 3 {
		live := object.Instantiate(archetype, "Crate", owner("Level"))
		live.SetProperty("Mesh", object.NameValue("Barrel"))
		live.SetProperty("Scale", object.FloatValue(float64(i+2)))
		if err := writer.Write(live, archetype); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	buffer, err := writer.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if diff := cmp.Diff([]string{"Mesh", "Barrel", "Scale"}, buffer.SavedNames); diff != "" {
		t.Errorf("SavedNames mismatch (-want +got):\n%s", diff)
	}
	if len(buffer.ObjectIndexMap) != 3 {
		t.Errorf("ObjectIndexMap has %d entries, want 3", len(buffer.ObjectIndexMap))
	}
}

func TestCompleteComponentWrittenInFull(t *testing.T) {
	archetype := newArchetype()
	live := object.Instantiate(archetype, "Crate_0", owner("Level"))
	light := object.New(lightComponentClass, "Light0", nil)
	light.SetProperty("Brightness", object.FloatValue(4))
	live.AddComponent(light)

	buffer := writeOne(t, live, archetype)
	if diff := cmp.Diff([]string{light.ID().String()}, buffer.CompleteObjects); diff != "" {
		t.Errorf("CompleteObjects mismatch (-want +got):\n%s", diff)
	}

	live.ResetToArchetype()
	if len(live.Components()) != 1 {
		t.Fatalf("reset left %d components, want 1", len(live.Components()))
	}

	reader, err := NewReader(buffer)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := reader.Apply(live, newTestResolver()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	components := live.Components()
	if len(components) != 2 {
		t.Fatalf("got %d components after replay, want 2", len(components))
	}
	if components[1].Class() != lightComponentClass || components[1].Name() != "Light0" {
		t.Errorf("component 1 = %s (%s)", components[1].Name(), components[1].Class())
	}
	if value, _ := components[1].Property("Brightness"); value.Float() != 4 {
		t.Errorf("Brightness = %v, want 4", value)
	}
	if components[1].Outer() != live {
		t.Error("rebuilt component should belong to the live object")
	}
}

func TestReferenceToCompleteComponentReplays(t *testing.T) {
	archetype := newArchetype()
	live := object.Instantiate(archetype, "Crate_0", owner("Level"))
	light := object.New(lightComponentClass, "Light0", nil)
	live.AddComponent(light)
	live.SetProperty("Glow", object.RefValue(light))
	light.SetProperty("Host", object.RefValue(light))

	buffer := writeOne(t, live, archetype)
	live.ResetToArchetype()

	reader, err := NewReader(buffer)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	// The resolver knows nothing about components.
	if _, err := reader.Apply(live, newTestResolver()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	rebuilt := live.Component(1)
	if rebuilt == nil || rebuilt.ID() != light.ID() {
		t.Fatalf("component 1 = %v, want a rebuild of %s with its identity", rebuilt, light.ID())
	}
	if glow, _ := live.Property("Glow"); glow.Ref() != rebuilt {
		t.Errorf("Glow = %v, want the rebuilt %s", glow, rebuilt)
	}
	if host, _ := rebuilt.Property("Host"); host.Ref() != rebuilt {
		t.Errorf("Host = %v, want the rebuilt component itself", host)
	}
}

func TestRemovedComponentReplays(t *testing.T) {
	archetype := newArchetype()
	live := object.Instantiate(archetype, "Crate_0", owner("Level"))
	live.SetComponents(nil)

	buffer := writeOne(t, live, archetype)
	live.ResetToArchetype()

	reader, err := NewReader(buffer)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := reader.Apply(live, newTestResolver()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(live.Components()) != 0 {
		t.Errorf("got %d components, want 0", len(live.Components()))
	}
}

func TestUnresolvedReferenceReplaysAsNull(t *testing.T) {
	archetype := newArchetype()
	gone := object.New(meshClass, "Gone", owner("Level"))
	live := object.Instantiate(archetype, "Crate_0", owner("Level"))
	live.SetProperty("Target", object.RefValue(gone))

	buffer := writeOne(t, live, archetype)
	reader, err := NewReader(buffer)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	live.ResetToArchetype()
	if _, err := reader.Apply(live, newTestResolver()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	value, ok := live.Property("Target")
	if !ok || value.Kind() != object.ValueRef || value.Ref() != nil {
		t.Errorf("Target = %v, want a null reference", value)
	}
}

func TestApplyWithoutRecord(t *testing.T) {
	reader, err := NewReader(Buffer{})
	if err != nil {
		t.Fatalf("NewReader on empty buffer: %v", err)
	}
	live := object.Instantiate(newArchetype(), "Crate_0", owner("Level"))
	applied, err := reader.Apply(live, newTestResolver())
	if err != nil || applied {
		t.Errorf("Apply on empty archive = %v, %v; want false, nil", applied, err)
	}
}

func TestCorruptArchive(t *testing.T) {
	archetype := newArchetype()
	neighbour := object.New(meshClass, "Neighbour", owner("Template"))
	live := object.Instantiate(archetype, "Crate_0", owner("Level"))
	live.SetProperty("Mesh", object.NameValue("Barrel"))
	live.SetProperty("Next", object.RefValue(neighbour))
	live.Component(0).SetProperty("Material", object.NameValue("Rust"))
	valid := writeOne(t, live, archetype)

	tests := []struct {
		name   string
		mutate func(*testing.T, *Buffer)
	}{
		{"name index past table", func(t *testing.T, buffer *Buffer) { buffer.SavedNames = buffer.SavedNames[:1] }},
		{"empty name table", func(t *testing.T, buffer *Buffer) { buffer.SavedNames = nil }},
		{"reference index past table", func(t *testing.T, buffer *Buffer) { buffer.ReferencedObjects = nil }},
		{"record index past records", func(t *testing.T, buffer *Buffer) { buffer.ObjectIndexMap[live.ID().String()] = 5 }},
		{"garbage bytes", func(t *testing.T, buffer *Buffer) { buffer.Bytes = []byte{0xff, 0x00, 0x13} }},
		{"bad referenced id", func(t *testing.T, buffer *Buffer) { buffer.ReferencedObjects = []string{"not-an-id"} }},
		{"huge component count", func(t *testing.T, buffer *Buffer) {
			editRecords(t, buffer, func(records []record) { records[0].Components.Count = 1 << 50 })
		}},
		{"negative component count", func(t *testing.T, buffer *Buffer) {
			editRecords(t, buffer, func(records []record) { records[0].Components.Count = -1 })
		}},
		{"bad complete component id", func(t *testing.T, buffer *Buffer) {
			editRecords(t, buffer, func(records []record) {
				records[0].Components.Entries = append(records[0].Components.Entries,
					componentRecord{Index: 0, Complete: true, ID: "not-an-id"})
			})
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buffer := valid.Clone()
			test.mutate(t, &buffer)
			_, err := NewReader(buffer)
			if !errors.Is(err, ErrCorruptArchive) {
				t.Errorf("NewReader error = %v, want ErrCorruptArchive", err)
			}
		})
	}
}

// editRecords decodes the records of buffer, lets edit change them, and
// encodes them back.
func editRecords(t *testing.T, buffer *Buffer, edit func([]record)) {
	t.Helper()
	var records []record
	if err := codec.Unmarshal(buffer.Bytes, &records); err != nil {
		t.Fatalf("decoding records: %v", err)
	}
	edit(records)
	data, err := codec.Marshal(records)
	if err != nil {
		t.Fatalf("encoding records: %v", err)
	}
	buffer.Bytes = data
}

func TestWriterModeIsOneShot(t *testing.T) {
	archetype := newArchetype()
	live := object.Instantiate(archetype, "Crate_0", owner("Level"))

	writer := NewWriter()
	if err := writer.Write(live, archetype); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := writer.Write(live, archetype); err == nil {
		t.Error("writing the same object twice should fail")
	}
	if _, err := writer.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := writer.Write(object.Instantiate(archetype, "Crate_1", owner("Level")), archetype); !errors.Is(err, ErrWriterFinished) {
		t.Errorf("Write after Finish = %v, want ErrWriterFinished", err)
	}
	if _, err := writer.Finish(); !errors.Is(err, ErrWriterFinished) {
		t.Errorf("second Finish = %v, want ErrWriterFinished", err)
	}
}

func TestNilBaselineUsesClassDefaults(t *testing.T) {
	standalone := object.New(meshClass, "Loose", owner("Level"))
	standalone.SetProperty("Scale", object.FloatValue(9))

	buffer := writeOne(t, standalone, nil)
	fresh := object.New(meshClass, "Loose", owner("Level"))
	reader, err := NewReader(buffer)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	// Same ID so the record is found.
	restored := replaceID(fresh, standalone)
	if _, err := reader.Apply(restored, newTestResolver()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if value, _ := restored.Property("Scale"); value.Float() != 9 {
		t.Errorf("Scale = %v, want 9", value)
	}
}

// replaceID returns a decoded copy of fresh that carries source's ID.
func replaceID(fresh, source *object.Object) *object.Object {
	document := object.Encode(fresh)
	document.ID = source.ID().String()
	decoder := object.NewDecoder(object.NewRegistry(meshClass, componentClass), fresh.Owner())
	restored, err := decoder.Decode(document)
	if err != nil {
		panic(err)
	}
	decoder.Resolve(nil)
	return restored
}

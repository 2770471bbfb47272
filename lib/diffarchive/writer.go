// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package diffarchive

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/prefab/lib/codec"
	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/transform"
)

// ErrWriterFinished is returned by Write after Finish.
var ErrWriterFinished = errors.New("diffarchive: writer already finished")

// Writer records object deltas. Create one with NewWriter, call Write
// for each object, then Finish.
type Writer struct {
	names      map[string]uint32
	savedNames []string
	references map[object.ID]uint32
	referenced []string
	complete   []string
	records    []record
	index      map[string]int
	finished   bool
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{
		names:      make(map[string]uint32),
		references: make(map[object.ID]uint32),
		index:      make(map[string]int),
	}
}

// Write records the fields of target that differ from baseline. A nil
// baseline compares against a default-constructed object of target's
// class. Writing the same object twice is an error.
func (writer *Writer) Write(target, baseline *object.Object) error {
	if writer.finished {
		return ErrWriterFinished
	}
	key := target.ID().String()
	if _, exists := writer.index[key]; exists {
		return fmt.Errorf("diffarchive: %s written twice", target)
	}
	if baseline == nil {
		baseline = object.New(target.Class(), target.Name(), nil)
	}

	var entry record
	if target.Kind() == object.KindActor && target.Transform() != baseline.Transform() {
		entry.Transform = encodeTransform(target.Transform())
	}
	entry.Set, entry.Removed = writer.diffProperties(target.Properties(), baseline.Properties())
	entry.Components = writer.diffComponents(target, baseline)

	writer.index[key] = len(writer.records)
	writer.records = append(writer.records, entry)
	return nil
}

// Finish encodes the recorded deltas and returns the buffer. The writer
// cannot be used afterwards.
func (writer *Writer) Finish() (Buffer, error) {
	if writer.finished {
		return Buffer{}, ErrWriterFinished
	}
	writer.finished = true
	if len(writer.records) == 0 {
		return Buffer{}, nil
	}
	data, err := codec.Marshal(writer.records)
	if err != nil {
		return Buffer{}, fmt.Errorf("diffarchive: encoding records: %w", err)
	}
	return Buffer{
		Bytes:             data,
		CompleteObjects:   writer.complete,
		ReferencedObjects: writer.referenced,
		SavedNames:        writer.savedNames,
		ObjectIndexMap:    writer.index,
	}, nil
}

func (writer *Writer) diffProperties(current, baseline object.Properties) ([]fieldRecord, []uint32) {
	var set []fieldRecord
	var removed []uint32
	for _, name := range current.Names() {
		value := current[name]
		if previous, ok := baseline[name]; ok && previous.Equal(value) {
			continue
		}
		set = append(set, fieldRecord{Name: writer.name(name), Value: writer.encodeValue(value)})
	}
	for _, name := range baseline.Names() {
		if _, ok := current[name]; !ok {
			removed = append(removed, writer.name(name))
		}
	}
	return set, removed
}

func (writer *Writer) diffComponents(target, baseline *object.Object) *componentsRecord {
	components := target.Components()
	baselineComponents := baseline.Components()

	var entries []componentRecord
	for i, component := range components {
		var counterpart *object.Object
		if i < len(baselineComponents) && baselineComponents[i].Class() == component.Class() {
			counterpart = baselineComponents[i]
		}
		if counterpart == nil {
			writer.complete = append(writer.complete, component.ID().String())
			set, removed := writer.diffProperties(component.Properties(), component.Class().Defaults())
			entries = append(entries, componentRecord{
				Index:    i,
				Complete: true,
				ID:       component.ID().String(),
				Class:    writer.name(component.Class().Name()),
				Name:     writer.name(component.Name()),
				Set:      set,
				Removed:  removed,
			})
			continue
		}
		set, removed := writer.diffProperties(component.Properties(), counterpart.Properties())
		if len(set) == 0 && len(removed) == 0 {
			continue
		}
		entries = append(entries, componentRecord{Index: i, Set: set, Removed: removed})
	}
	if len(entries) == 0 && len(components) == len(baselineComponents) {
		return nil
	}
	return &componentsRecord{Count: len(components), Entries: entries}
}

func (writer *Writer) name(name string) uint32 {
	if index, ok := writer.names[name]; ok {
		return index
	}
	index := uint32(len(writer.savedNames))
	writer.names[name] = index
	writer.savedNames = append(writer.savedNames, name)
	return index
}

func (writer *Writer) reference(target *object.Object) uint32 {
	if index, ok := writer.references[target.ID()]; ok {
		return index
	}
	index := uint32(len(writer.referenced))
	writer.references[target.ID()] = index
	writer.referenced = append(writer.referenced, target.ID().String())
	return index
}

func (writer *Writer) encodeValue(value object.Value) valueRecord {
	encoded := valueRecord{Kind: uint8(value.Kind())}
	switch value.Kind() {
	case object.ValueBool:
		encoded.Bool = value.Bool()
	case object.ValueInt:
		encoded.Int = value.Int()
	case object.ValueFloat:
		encoded.Float = value.Float()
	case object.ValueString:
		encoded.Text = value.Text()
	case object.ValueName:
		encoded.Name = writer.name(value.Text())
	case object.ValueVector:
		vector := value.Vector()
		encoded.Vector = &[3]float64{vector.X, vector.Y, vector.Z}
	case object.ValueRotator:
		rotator := value.Rotator()
		encoded.Rotator = &[3]int32{rotator.Pitch, rotator.Yaw, rotator.Roll}
	case object.ValueRef:
		if target := value.Ref(); target != nil {
			index := writer.reference(target)
			encoded.Ref = &index
		}
	case object.ValueList:
		encoded.List = make([]valueRecord, value.Len())
		for i := range value.Len() {
			encoded.List[i] = writer.encodeValue(value.Index(i))
		}
	}
	return encoded
}

func encodeTransform(placement transform.Transform) *[6]float64 {
	return &[6]float64{
		placement.Location.X, placement.Location.Y, placement.Location.Z,
		float64(placement.Rotation.Pitch), float64(placement.Rotation.Yaw), float64(placement.Rotation.Roll),
	}
}

func decodeTransform(encoded *[6]float64) transform.Transform {
	return transform.Transform{
		Location: transform.Vector{X: encoded[0], Y: encoded[1], Z: encoded[2]},
		Rotation: transform.Rotator{Pitch: int32(encoded[3]), Yaw: int32(encoded[4]), Roll: int32(encoded[5])},
	}
}

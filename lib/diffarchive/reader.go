// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package diffarchive

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/prefab/lib/codec"
	"github.com/bureau-foundation/prefab/lib/object"
)

// ErrCorruptArchive is returned when a buffer cannot be decoded or one
// of its table indices is out of range.
var ErrCorruptArchive = errors.New("diffarchive: corrupt archive")

// maxComponents bounds the component count of one record.
const maxComponents = 1 << 12

// Resolver supplies the objects and classes a buffer refers to.
type Resolver interface {
	// ResolveObject returns the object with id, or nil if it no longer
	// exists. Unresolved references replay as null references.
	ResolveObject(id object.ID) *object.Object

	// ResolveClass returns the class named name, for components that
	// were written in full.
	ResolveClass(name string) (*object.Class, bool)
}

// Reader replays the deltas of a buffer.
type Reader struct {
	records    []record
	names      []string
	referenced []object.ID
	index      map[object.ID]int

	// complete holds the components written in full, keyed by their
	// saved identity. References to them resolve to the rebuilt
	// component rather than through the Resolver.
	complete map[object.ID]*rebuild
}

type rebuild struct {
	id    object.ID
	entry *componentRecord
	built *object.Object
}

// NewReader decodes buf and validates every table index. Any problem
// is reported as [ErrCorruptArchive] before the caller has touched an
// object.
func NewReader(buf Buffer) (*Reader, error) {
	reader := &Reader{
		names:    buf.SavedNames,
		index:    make(map[object.ID]int, len(buf.ObjectIndexMap)),
		complete: make(map[object.ID]*rebuild),
	}
	if len(buf.Bytes) > 0 {
		if err := codec.Unmarshal(buf.Bytes, &reader.records); err != nil {
			return nil, fmt.Errorf("%w: decoding records: %v", ErrCorruptArchive, err)
		}
	}
	for _, text := range buf.ReferencedObjects {
		id, err := object.ParseID(text)
		if err != nil {
			return nil, fmt.Errorf("%w: referenced object: %v", ErrCorruptArchive, err)
		}
		reader.referenced = append(reader.referenced, id)
	}
	for text, index := range buf.ObjectIndexMap {
		id, err := object.ParseID(text)
		if err != nil {
			return nil, fmt.Errorf("%w: object index: %v", ErrCorruptArchive, err)
		}
		if index < 0 || index >= len(reader.records) {
			return nil, fmt.Errorf("%w: record index %d for %s out of range (%d records)", ErrCorruptArchive, index, id, len(reader.records))
		}
		reader.index[id] = index
	}
	for i := range reader.records {
		if err := reader.validate(&reader.records[i]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorruptArchive, i, err)
		}
		if err := reader.indexComplete(&reader.records[i]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorruptArchive, i, err)
		}
	}
	return reader, nil
}

// Len returns the number of object records.
func (reader *Reader) Len() int { return len(reader.records) }

// Has reports whether a record exists for id.
func (reader *Reader) Has(id object.ID) bool {
	_, ok := reader.index[id]
	return ok
}

// Apply replays the record for target, looked up by target's ID. It
// reports whether a record was found; fields not recorded are left as
// they are.
func (reader *Reader) Apply(target *object.Object, resolver Resolver) (bool, error) {
	index, ok := reader.index[target.ID()]
	if !ok {
		return false, nil
	}
	entry := &reader.records[index]

	if entry.Transform != nil && target.Kind() == object.KindActor {
		target.SetTransform(decodeTransform(entry.Transform))
	}
	reader.applyFields(target, entry.Set, entry.Removed, resolver)

	if entry.Components != nil {
		if err := reader.applyComponents(target, entry.Components, resolver); err != nil {
			return true, fmt.Errorf("diffarchive: %s: %w", target, err)
		}
	}
	return true, nil
}

func (reader *Reader) applyFields(target *object.Object, set []fieldRecord, removed []uint32, resolver Resolver) {
	for _, field := range set {
		target.SetProperty(reader.names[field.Name], reader.decodeValue(field.Value, resolver))
	}
	for _, name := range removed {
		target.DeleteProperty(reader.names[name])
	}
}

func (reader *Reader) applyComponents(target *object.Object, entry *componentsRecord, resolver Resolver) error {
	current := target.Components()
	components := make([]*object.Object, entry.Count)
	copy(components, current)

	for i, component := range entry.Entries {
		if component.Complete {
			rebuilt, err := reader.rebuild(&entry.Entries[i], resolver)
			if err != nil {
				return fmt.Errorf("component %d: %w", component.Index, err)
			}
			reader.applyFields(rebuilt, component.Set, component.Removed, resolver)
			components[component.Index] = rebuilt
			continue
		}
		existing := components[component.Index]
		if existing == nil {
			// The baseline lost this component since the delta was
			// written; there is nothing to apply it to.
			continue
		}
		reader.applyFields(existing, component.Set, component.Removed, resolver)
	}

	compacted := components[:0]
	for _, component := range components {
		if component != nil {
			compacted = append(compacted, component)
		}
	}
	target.SetComponents(compacted)
	return nil
}

// indexComplete registers the identities of entry's complete
// components.
func (reader *Reader) indexComplete(entry *record) error {
	if entry.Components == nil {
		return nil
	}
	for i := range entry.Components.Entries {
		component := &entry.Components.Entries[i]
		if !component.Complete || component.ID == "" {
			continue
		}
		id, err := object.ParseID(component.ID)
		if err != nil {
			return fmt.Errorf("component %d: %v", component.Index, err)
		}
		if _, exists := reader.complete[id]; exists {
			return fmt.Errorf("component %s written in full twice", id)
		}
		reader.complete[id] = &rebuild{id: id, entry: component}
	}
	return nil
}

// rebuild returns the object for a complete component, creating it on
// first use. Records without an identity get a fresh one each time.
func (reader *Reader) rebuild(component *componentRecord, resolver Resolver) (*object.Object, error) {
	var pending *rebuild
	if component.ID != "" {
		// indexComplete has already parsed every complete ID.
		id, _ := object.ParseID(component.ID)
		pending = reader.complete[id]
		if pending.built != nil {
			return pending.built, nil
		}
	}
	className := reader.names[component.Class]
	class, ok := resolver.ResolveClass(className)
	if !ok {
		return nil, fmt.Errorf("unknown class %q", className)
	}
	name := reader.names[component.Name]
	if pending == nil {
		return object.New(class, name, nil), nil
	}
	pending.built = object.NewWithID(pending.id, class, name, nil)
	return pending.built, nil
}

func (reader *Reader) resolve(id object.ID, resolver Resolver) *object.Object {
	pending, ok := reader.complete[id]
	if !ok {
		return resolver.ResolveObject(id)
	}
	built, err := reader.rebuild(pending.entry, resolver)
	if err != nil {
		return nil
	}
	return built
}

func (reader *Reader) decodeValue(encoded valueRecord, resolver Resolver) object.Value {
	switch object.ValueKind(encoded.Kind) {
	case object.ValueBool:
		return object.BoolValue(encoded.Bool)
	case object.ValueInt:
		return object.IntValue(encoded.Int)
	case object.ValueFloat:
		return object.FloatValue(encoded.Float)
	case object.ValueString:
		return object.StringValue(encoded.Text)
	case object.ValueName:
		return object.NameValue(reader.names[encoded.Name])
	case object.ValueVector:
		return object.VectorValue(vectorOf(encoded.Vector))
	case object.ValueRotator:
		return object.RotatorValue(rotatorOf(encoded.Rotator))
	case object.ValueRef:
		if encoded.Ref == nil {
			return object.RefValue(nil)
		}
		return object.RefValue(reader.resolve(reader.referenced[*encoded.Ref], resolver))
	case object.ValueList:
		list := make([]object.Value, len(encoded.List))
		for i, element := range encoded.List {
			list[i] = reader.decodeValue(element, resolver)
		}
		return object.ListValue(list...)
	}
	return object.Value{}
}

func (reader *Reader) validate(entry *record) error {
	if err := reader.validateFields(entry.Set, entry.Removed); err != nil {
		return err
	}
	if entry.Components == nil {
		return nil
	}
	if entry.Components.Count < 0 || entry.Components.Count > maxComponents {
		return fmt.Errorf("component count %d out of range", entry.Components.Count)
	}
	for _, component := range entry.Components.Entries {
		if component.Index < 0 || component.Index >= entry.Components.Count {
			return fmt.Errorf("component index %d out of range (%d components)", component.Index, entry.Components.Count)
		}
		if component.Complete {
			if err := reader.checkName(component.Class); err != nil {
				return err
			}
			if err := reader.checkName(component.Name); err != nil {
				return err
			}
		}
		if err := reader.validateFields(component.Set, component.Removed); err != nil {
			return fmt.Errorf("component %d: %w", component.Index, err)
		}
	}
	return nil
}

func (reader *Reader) validateFields(set []fieldRecord, removed []uint32) error {
	for _, field := range set {
		if err := reader.checkName(field.Name); err != nil {
			return err
		}
		if err := reader.validateValue(field.Value); err != nil {
			return fmt.Errorf("field %q: %w", reader.names[field.Name], err)
		}
	}
	for _, name := range removed {
		if err := reader.checkName(name); err != nil {
			return err
		}
	}
	return nil
}

func (reader *Reader) validateValue(encoded valueRecord) error {
	switch object.ValueKind(encoded.Kind) {
	case object.ValueNone, object.ValueBool, object.ValueInt, object.ValueFloat, object.ValueString:
		return nil
	case object.ValueName:
		return reader.checkName(encoded.Name)
	case object.ValueVector:
		if encoded.Vector == nil {
			return fmt.Errorf("vector value without components")
		}
	case object.ValueRotator:
		if encoded.Rotator == nil {
			return fmt.Errorf("rotator value without components")
		}
	case object.ValueRef:
		if encoded.Ref != nil && int(*encoded.Ref) >= len(reader.referenced) {
			return fmt.Errorf("reference index %d out of range (%d referenced objects)", *encoded.Ref, len(reader.referenced))
		}
	case object.ValueList:
		for i, element := range encoded.List {
			if err := reader.validateValue(element); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown value kind %d", encoded.Kind)
	}
	return nil
}

func (reader *Reader) checkName(index uint32) error {
	if int(index) >= len(reader.names) {
		return fmt.Errorf("name index %d out of range (%d saved names)", index, len(reader.names))
	}
	return nil
}

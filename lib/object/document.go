// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"

	"github.com/bureau-foundation/prefab/lib/transform"
)

// Document is the serialized form of an object and its components.
// References are stored as object IDs in canonical string form.
type Document struct {
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Class      string                   `json:"class"`
	Archetype  string                   `json:"archetype,omitempty"`
	Transform  *TransformDocument       `json:"transform,omitempty"`
	Properties map[string]ValueDocument `json:"properties,omitempty"`
	Components []Document               `json:"components,omitempty"`
}

// TransformDocument is the serialized form of a placement.
type TransformDocument struct {
	Location [3]float64 `json:"location"`
	Rotation [3]int32   `json:"rotation"`
}

// ValueDocument is the serialized form of a [Value]. Only the field
// matching Kind is meaningful.
type ValueDocument struct {
	Kind    string          `json:"kind"`
	Bool    bool            `json:"bool,omitempty"`
	Int     int64           `json:"int,omitempty"`
	Float   float64         `json:"float,omitempty"`
	Text    string          `json:"text,omitempty"`
	Vector  *[3]float64     `json:"vector,omitempty"`
	Rotator *[3]int32       `json:"rotator,omitempty"`
	Ref     string          `json:"ref,omitempty"`
	List    []ValueDocument `json:"list,omitempty"`
}

// NewTransformDocument converts a placement.
func NewTransformDocument(placement transform.Transform) *TransformDocument {
	return &TransformDocument{
		Location: [3]float64{placement.Location.X, placement.Location.Y, placement.Location.Z},
		Rotation: [3]int32{placement.Rotation.Pitch, placement.Rotation.Yaw, placement.Rotation.Roll},
	}
}

// Transform converts back to a placement. A nil document is the
// identity.
func (document *TransformDocument) Transform() transform.Transform {
	if document == nil {
		return transform.Identity
	}
	return transform.Transform{
		Location: transform.Vector{X: document.Location[0], Y: document.Location[1], Z: document.Location[2]},
		Rotation: transform.Rotator{Pitch: document.Rotation[0], Yaw: document.Rotation[1], Roll: document.Rotation[2]},
	}
}

// Encode returns the document for object and its components.
func Encode(object *Object) Document {
	document := Document{
		ID:    object.id.String(),
		Name:  object.name,
		Class: object.class.name,
	}
	if object.archetype != nil {
		document.Archetype = object.archetype.id.String()
	}
	if object.class.kind == KindActor {
		document.Transform = NewTransformDocument(object.transform)
	}
	if len(object.properties) > 0 {
		document.Properties = make(map[string]ValueDocument, len(object.properties))
		for name, value := range object.properties {
			document.Properties[name] = EncodeValue(value)
		}
	}
	for _, component := range object.components {
		document.Components = append(document.Components, Encode(component))
	}
	return document
}

// EncodeValue returns the document for value.
func EncodeValue(value Value) ValueDocument {
	document := ValueDocument{Kind: value.kind.String()}
	switch value.kind {
	case ValueBool:
		document.Bool = value.boolean
	case ValueInt:
		document.Int = value.integer
	case ValueFloat:
		document.Float = value.float
	case ValueString, ValueName:
		document.Text = value.text
	case ValueVector:
		document.Vector = &[3]float64{value.vector.X, value.vector.Y, value.vector.Z}
	case ValueRotator:
		document.Rotator = &[3]int32{value.rotator.Pitch, value.rotator.Yaw, value.rotator.Roll}
	case ValueRef:
		switch {
		case value.ref != nil:
			document.Ref = value.ref.id.String()
		case value.pending != NilID:
			document.Ref = value.pending.String()
		}
	case ValueList:
		document.List = make([]ValueDocument, len(value.list))
		for i, element := range value.list {
			document.List[i] = EncodeValue(element)
		}
	}
	return document
}

// DecodeValue converts a value document. References come back
// unresolved; [Decoder] resolves them for whole objects.
func DecodeValue(document ValueDocument) (Value, error) {
	kind, err := ParseValueKind(document.Kind)
	if err != nil {
		return Value{}, err
	}
	switch kind {
	case ValueNone:
		return Value{}, nil
	case ValueBool:
		return BoolValue(document.Bool), nil
	case ValueInt:
		return IntValue(document.Int), nil
	case ValueFloat:
		return FloatValue(document.Float), nil
	case ValueString:
		return StringValue(document.Text), nil
	case ValueName:
		return NameValue(document.Text), nil
	case ValueVector:
		if document.Vector == nil {
			return Value{}, fmt.Errorf("vector value has no components")
		}
		return VectorValue(transform.Vector{X: document.Vector[0], Y: document.Vector[1], Z: document.Vector[2]}), nil
	case ValueRotator:
		if document.Rotator == nil {
			return Value{}, fmt.Errorf("rotator value has no components")
		}
		return RotatorValue(transform.Rotator{Pitch: document.Rotator[0], Yaw: document.Rotator[1], Roll: document.Rotator[2]}), nil
	case ValueRef:
		if document.Ref == "" {
			return RefValue(nil), nil
		}
		id, err := ParseID(document.Ref)
		if err != nil {
			return Value{}, err
		}
		return pendingRef(id), nil
	case ValueList:
		list := make([]Value, len(document.List))
		for i, element := range document.List {
			decoded, err := DecodeValue(element)
			if err != nil {
				return Value{}, fmt.Errorf("list element %d: %w", i, err)
			}
			list[i] = decoded
		}
		return Value{kind: ValueList, list: list}, nil
	}
	return Value{}, fmt.Errorf("unhandled value kind %s", kind)
}

// Decoder turns a batch of documents back into objects. Call Decode for
// every document in the batch, then Resolve once: references between
// objects of the same batch resolve to each other, and the rest go to
// the external resolver.
type Decoder struct {
	registry *Registry
	owner    Owner
	objects  map[ID]*Object
	order    []*Object
}

// NewDecoder returns a decoder that looks classes up in registry and
// assigns owner to every decoded object.
func NewDecoder(registry *Registry, owner Owner) *Decoder {
	return &Decoder{
		registry: registry,
		owner:    owner,
		objects:  make(map[ID]*Object),
	}
}

// Decode converts one document. The object keeps the document's ID.
func (decoder *Decoder) Decode(document Document) (*Object, error) {
	return decoder.decode(document, nil)
}

func (decoder *Decoder) decode(document Document, outer *Object) (*Object, error) {
	class, ok := decoder.registry.Lookup(document.Class)
	if !ok {
		return nil, fmt.Errorf("object %q: unknown class %q", document.Name, document.Class)
	}
	id, err := ParseID(document.ID)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", document.Name, err)
	}
	if _, exists := decoder.objects[id]; exists {
		return nil, fmt.Errorf("object %q: duplicate id %s", document.Name, id)
	}

	object := &Object{
		id:         id,
		name:       document.Name,
		class:      class,
		owner:      decoder.owner,
		properties: make(Properties, len(document.Properties)),
	}
	if document.Archetype != "" {
		archetypeID, err := ParseID(document.Archetype)
		if err != nil {
			return nil, fmt.Errorf("object %q archetype: %w", document.Name, err)
		}
		// Resolved with the references; the placeholder carries the ID.
		object.archetype = &Object{id: archetypeID}
	}
	if class.kind == KindActor {
		object.transform = document.Transform.Transform()
	}
	for name, valueDocument := range document.Properties {
		value, err := DecodeValue(valueDocument)
		if err != nil {
			return nil, fmt.Errorf("object %q property %q: %w", document.Name, name, err)
		}
		object.properties[name] = value
	}
	decoder.objects[id] = object
	decoder.order = append(decoder.order, object)

	if outer != nil {
		outer.addComponent(object)
	}
	for _, componentDocument := range document.Components {
		if _, err := decoder.decode(componentDocument, object); err != nil {
			return nil, err
		}
	}
	return object, nil
}

// Resolve binds every pending reference and archetype link decoded so
// far. Targets not in the batch are looked up with external, which may
// be nil. Unresolvable references become null; their IDs are returned.
func (decoder *Decoder) Resolve(external func(ID) *Object) []ID {
	var unresolved []ID
	lookup := func(id ID) *Object {
		if target, ok := decoder.objects[id]; ok {
			return target
		}
		if external != nil {
			if target := external(id); target != nil {
				return target
			}
		}
		unresolved = append(unresolved, id)
		return nil
	}
	for _, object := range decoder.order {
		if object.archetype != nil && object.archetype.class == nil {
			object.archetype = lookup(object.archetype.id)
		}
		for name, value := range object.properties {
			object.properties[name] = resolveValue(value, lookup)
		}
	}
	return unresolved
}

// Objects returns every object decoded so far, components included, in
// decode order.
func (decoder *Decoder) Objects() []*Object {
	objects := make([]*Object, len(decoder.order))
	copy(objects, decoder.order)
	return objects
}

func resolveValue(value Value, lookup func(ID) *Object) Value {
	switch value.kind {
	case ValueRef:
		if value.ref == nil && value.pending != NilID {
			return RefValue(lookup(value.pending))
		}
	case ValueList:
		list := make([]Value, len(value.list))
		for i, element := range value.list {
			list[i] = resolveValue(element, lookup)
		}
		return Value{kind: ValueList, list: list}
	}
	return value
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/bureau-foundation/prefab/lib/transform"
)

// ID is the stable identity of an object across sessions. In-memory
// identity is the *Object pointer; the ID exists so persisted data
// (documents, diff tables, store rows) can name objects.
type ID = uuid.UUID

// NilID is the zero ID. No live object has it.
var NilID ID

// NewID returns a fresh random ID.
func NewID() ID { return uuid.New() }

// ParseID parses the canonical string form of an ID.
func ParseID(text string) (ID, error) {
	id, err := uuid.Parse(text)
	if err != nil {
		return NilID, fmt.Errorf("parsing object id %q: %w", text, err)
	}
	return id, nil
}

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueString
	ValueName
	ValueVector
	ValueRotator
	ValueRef
	ValueList
)

var valueKindNames = [...]string{
	ValueNone:    "none",
	ValueBool:    "bool",
	ValueInt:     "int",
	ValueFloat:   "float",
	ValueString:  "string",
	ValueName:    "name",
	ValueVector:  "vector",
	ValueRotator: "rotator",
	ValueRef:     "ref",
	ValueList:    "list",
}

func (kind ValueKind) String() string {
	if int(kind) < len(valueKindNames) {
		return valueKindNames[kind]
	}
	return fmt.Sprintf("unknown(%d)", kind)
}

// ParseValueKind is the inverse of ValueKind.String.
func ParseValueKind(name string) (ValueKind, error) {
	for kind, kindName := range valueKindNames {
		if kindName == name {
			return ValueKind(kind), nil
		}
	}
	return ValueNone, fmt.Errorf("unknown value kind %q", name)
}

// Value is one property value. The zero Value has kind ValueNone.
type Value struct {
	kind    ValueKind
	boolean bool
	integer int64
	float   float64
	text    string
	vector  transform.Vector
	rotator transform.Rotator
	ref     *Object
	list    []Value

	// pending holds the target ID of a decoded reference until a
	// Decoder resolves it.
	pending ID
}

func BoolValue(value bool) Value { return Value{kind: ValueBool, boolean: value} }
func IntValue(value int64) Value { return Value{kind: ValueInt, integer: value} }
func FloatValue(value float64) Value { return Value{kind: ValueFloat, float: value} }
func StringValue(value string) Value { return Value{kind: ValueString, text: value} }
func NameValue(value string) Value { return Value{kind: ValueName, text: value} }
func VectorValue(value transform.Vector) Value {
	return Value{kind: ValueVector, vector: value}
}
func RotatorValue(value transform.Rotator) Value {
	return Value{kind: ValueRotator, rotator: value}
}

// RefValue references target. A nil target is a null reference.
func RefValue(target *Object) Value { return Value{kind: ValueRef, ref: target} }

// ListValue holds a copy of elements.
func ListValue(elements ...Value) Value {
	list := make([]Value, len(elements))
	for i, element := range elements {
		list[i] = element.Clone()
	}
	return Value{kind: ValueList, list: list}
}

func pendingRef(id ID) Value { return Value{kind: ValueRef, pending: id} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Bool() bool { return v.boolean }
func (v Value) Int() int64 { return v.integer }
func (v Value) Float() float64 { return v.float }
func (v Value) Vector() transform.Vector { return v.vector }
func (v Value) Rotator() transform.Rotator { return v.rotator }
func (v Value) Ref() *Object { return v.ref }
func (v Value) Len() int { return len(v.list) }
func (v Value) Index(i int) Value { return v.list[i] }

// Text returns the string of a ValueString or ValueName.
func (v Value) Text() string { return v.text }

// List returns a copy of the elements of a ValueList.
func (v Value) List() []Value {
	list := make([]Value, len(v.list))
	copy(list, v.list)
	return list
}

// Equal compares structurally. References are equal when they point at
// the same object; floats compare exactly.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueNone:
		return true
	case ValueBool:
		return v.boolean == other.boolean
	case ValueInt:
		return v.integer == other.integer
	case ValueFloat:
		return v.float == other.float
	case ValueString, ValueName:
		return v.text == other.text
	case ValueVector:
		return v.vector == other.vector
	case ValueRotator:
		return v.rotator == other.rotator
	case ValueRef:
		return v.ref == other.ref && v.pending == other.pending
	case ValueList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy. Reference targets are shared, not copied.
func (v Value) Clone() Value {
	if v.kind != ValueList {
		return v
	}
	clone := v
	clone.list = make([]Value, len(v.list))
	for i, element := range v.list {
		clone.list[i] = element.Clone()
	}
	return clone
}

// rewrite returns v with every reference passed through replace, and
// whether anything changed.
func (v Value) rewrite(replace func(*Object) *Object) (Value, bool) {
	switch v.kind {
	case ValueRef:
		if v.ref == nil {
			return v, false
		}
		replacement := replace(v.ref)
		if replacement == v.ref {
			return v, false
		}
		return RefValue(replacement), true
	case ValueList:
		var rewritten []Value
		for i, element := range v.list {
			updated, changed := element.rewrite(replace)
			if !changed {
				continue
			}
			if rewritten == nil {
				rewritten = make([]Value, len(v.list))
				copy(rewritten, v.list)
			}
			rewritten[i] = updated
		}
		if rewritten == nil {
			return v, false
		}
		return Value{kind: ValueList, list: rewritten}, true
	}
	return v, false
}

func (v Value) collect(targets []*Object) []*Object {
	switch v.kind {
	case ValueRef:
		if v.ref != nil {
			targets = append(targets, v.ref)
		}
	case ValueList:
		for _, element := range v.list {
			targets = element.collect(targets)
		}
	}
	return targets
}

func (v Value) String() string {
	switch v.kind {
	case ValueNone:
		return "none"
	case ValueBool:
		return fmt.Sprintf("%t", v.boolean)
	case ValueInt:
		return fmt.Sprintf("%d", v.integer)
	case ValueFloat:
		return fmt.Sprintf("%g", v.float)
	case ValueString:
		return fmt.Sprintf("%q", v.text)
	case ValueName:
		return v.text
	case ValueVector:
		return v.vector.String()
	case ValueRotator:
		return v.rotator.String()
	case ValueRef:
		if v.ref == nil {
			return "ref(none)"
		}
		return "ref(" + v.ref.Name() + ")"
	case ValueList:
		parts := make([]string, len(v.list))
		for i, element := range v.list {
			parts[i] = element.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return v.kind.String()
}

// Properties is a property bag keyed by property name.
type Properties map[string]Value

// Names returns the property names in sorted order.
func (properties Properties) Names() []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the bag. A nil bag clones to an empty one.
func (properties Properties) Clone() Properties {
	clone := make(Properties, len(properties))
	for name, value := range properties {
		clone[name] = value.Clone()
	}
	return clone
}

// Equal reports whether both bags hold the same names with Equal values.
func (properties Properties) Equal(other Properties) bool {
	if len(properties) != len(other) {
		return false
	}
	for name, value := range properties {
		otherValue, ok := other[name]
		if !ok || !value.Equal(otherValue) {
			return false
		}
	}
	return true
}

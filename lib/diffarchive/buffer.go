// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package diffarchive

import (
	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/transform"
)

// Buffer is the persisted form of a diff archive. The zero Buffer is
// an empty archive.
type Buffer struct {
	// Bytes is the CBOR-encoded list of object records.
	Bytes []byte `json:"bytes,omitempty"`

	// CompleteObjects lists the IDs of objects that were written in
	// full rather than as a delta (components with no counterpart on
	// the baseline).
	CompleteObjects []string `json:"complete_objects,omitempty"`

	// ReferencedObjects is the reference table. Records store indices
	// into it.
	ReferencedObjects []string `json:"referenced_objects,omitempty"`

	// SavedNames is the name table. Records store indices into it.
	SavedNames []string `json:"saved_names,omitempty"`

	// ObjectIndexMap maps the ID of each written object to the index of
	// its record.
	ObjectIndexMap map[string]int `json:"object_index_map,omitempty"`
}

// Empty reports whether the buffer holds no records.
func (buffer Buffer) Empty() bool { return len(buffer.ObjectIndexMap) == 0 }

// Has reports whether the buffer holds a record for id.
func (buffer Buffer) Has(id object.ID) bool {
	_, ok := buffer.ObjectIndexMap[id.String()]
	return ok
}

// Clone returns a deep copy.
func (buffer Buffer) Clone() Buffer {
	clone := Buffer{
		Bytes:             append([]byte(nil), buffer.Bytes...),
		CompleteObjects:   append([]string(nil), buffer.CompleteObjects...),
		ReferencedObjects: append([]string(nil), buffer.ReferencedObjects...),
		SavedNames:        append([]string(nil), buffer.SavedNames...),
	}
	if buffer.ObjectIndexMap != nil {
		clone.ObjectIndexMap = make(map[string]int, len(buffer.ObjectIndexMap))
		for id, index := range buffer.ObjectIndexMap {
			clone.ObjectIndexMap[id] = index
		}
	}
	return clone
}

// record is the delta of one top-level object.
type record struct {
	Transform  *[6]float64       `cbor:"transform,omitempty"`
	Set        []fieldRecord     `cbor:"set,omitempty"`
	Removed    []uint32          `cbor:"removed,omitempty"`
	Components *componentsRecord `cbor:"components,omitempty"`
}

// componentsRecord is present only when the component list differs
// from the baseline's.
type componentsRecord struct {
	Count   int               `cbor:"count"`
	Entries []componentRecord `cbor:"entries,omitempty"`
}

// componentRecord is either a delta against the baseline component at
// the same index, or, when Complete, the full state of a component the
// baseline does not have.
type componentRecord struct {
	Index    int           `cbor:"index"`
	Complete bool          `cbor:"complete,omitempty"`
	// ID is the identity a complete component is rebuilt with.
	ID       string        `cbor:"id,omitempty"`
	Class    uint32        `cbor:"class,omitempty"`
	Name     uint32        `cbor:"name,omitempty"`
	Set      []fieldRecord `cbor:"set,omitempty"`
	Removed  []uint32      `cbor:"removed,omitempty"`
}

type fieldRecord struct {
	Name  uint32      `cbor:"name"`
	Value valueRecord `cbor:"value"`
}

// valueRecord mirrors object.Value with names and references replaced
// by table indices. A reference with a nil Ref is a null reference.
type valueRecord struct {
	Kind    uint8         `cbor:"kind"`
	Bool    bool          `cbor:"bool,omitempty"`
	Int     int64         `cbor:"int,omitempty"`
	Float   float64       `cbor:"float,omitempty"`
	Text    string        `cbor:"text,omitempty"`
	Name    uint32        `cbor:"name,omitempty"`
	Vector  *[3]float64   `cbor:"vector,omitempty"`
	Rotator *[3]int32     `cbor:"rotator,omitempty"`
	Ref     *uint32       `cbor:"ref,omitempty"`
	List    []valueRecord `cbor:"list,omitempty"`
}

func vectorOf(components *[3]float64) transform.Vector {
	return transform.Vector{X: components[0], Y: components[1], Z: components[2]}
}

func rotatorOf(components *[3]int32) transform.Rotator {
	return transform.Rotator{Pitch: components[0], Yaw: components[1], Roll: components[2]}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"
	"sort"
)

// Kind is the closed set of object kinds the prefab system spawns.
type Kind uint8

const (
	// KindData is a plain-data object with no placement.
	KindData Kind = iota

	// KindActor is a placeable object with a world transform and
	// optional components.
	KindActor
)

func (kind Kind) String() string {
	switch kind {
	case KindData:
		return "data"
	case KindActor:
		return "actor"
	default:
		return fmt.Sprintf("unknown(%d)", kind)
	}
}

// Class describes a family of objects: its kind, its superclass, and
// the property values a default-constructed object starts with.
type Class struct {
	name     string
	kind     Kind
	super    *Class
	defaults Properties
}

// NewClass defines a class. A subclass must have the same kind as its
// superclass; defaults are layered over the superclass defaults.
func NewClass(name string, kind Kind, super *Class, defaults Properties) *Class {
	if super != nil && super.kind != kind {
		panic(fmt.Sprintf("object: class %q (%s) cannot extend %q (%s)", name, kind, super.name, super.kind))
	}
	merged := make(Properties)
	if super != nil {
		for key, value := range super.defaults {
			merged[key] = value.Clone()
		}
	}
	for key, value := range defaults {
		merged[key] = value.Clone()
	}
	return &Class{name: name, kind: kind, super: super, defaults: merged}
}

// Name returns the class name.
func (class *Class) Name() string { return class.name }

// Kind returns the class kind.
func (class *Class) Kind() Kind { return class.kind }

// Super returns the superclass, or nil for a root class.
func (class *Class) Super() *Class { return class.super }

// Defaults returns a copy of the default property values.
func (class *Class) Defaults() Properties { return class.defaults.Clone() }

// IsA reports whether class is other or a subclass of other.
func (class *Class) IsA(other *Class) bool {
	for current := class; current != nil; current = current.super {
		if current == other {
			return true
		}
	}
	return false
}

func (class *Class) String() string { return class.name }

// Registry maps class names to classes. Decoders use it to turn the
// class names stored in documents back into classes.
type Registry struct {
	classes map[string]*Class
}

// NewRegistry returns a registry containing classes.
func NewRegistry(classes ...*Class) *Registry {
	registry := &Registry{classes: make(map[string]*Class, len(classes))}
	for _, class := range classes {
		if err := registry.Register(class); err != nil {
			panic(err.Error())
		}
	}
	return registry
}

// Register adds class. Registering two different classes under the
// same name is an error; registering the same class twice is not.
func (registry *Registry) Register(class *Class) error {
	if existing, ok := registry.classes[class.name]; ok && existing != class {
		return fmt.Errorf("object: class %q already registered", class.name)
	}
	registry.classes[class.name] = class
	return nil
}

// Lookup returns the class registered under name.
func (registry *Registry) Lookup(name string) (*Class, bool) {
	class, ok := registry.classes[name]
	return class, ok
}

// Names returns the registered class names in sorted order.
func (registry *Registry) Names() []string {
	names := make([]string, 0, len(registry.classes))
	for name := range registry.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

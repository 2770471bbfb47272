// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"

	"github.com/bureau-foundation/prefab/lib/transform"
)

// Owner is the package or container an object belongs to. Templates
// own their archetypes; levels own live objects.
type Owner interface {
	OwnerName() string
}

// Object is one node of the object graph: an archetype inside a
// template, a live object inside a level, or a component of either.
type Object struct {
	id        ID
	name      string
	class     *Class
	archetype *Object
	owner     Owner
	outer     *Object

	transform  transform.Transform
	properties Properties
	components []*Object

	attached    bool
	pendingKill bool
}

// New creates a default-constructed object of class: its properties
// are the class defaults and it has no archetype.
func New(class *Class, name string, owner Owner) *Object {
	return &Object{
		id:         NewID(),
		name:       name,
		class:      class,
		owner:      owner,
		properties: class.Defaults(),
	}
}

// NewWithID is New with a caller-chosen identity, for objects rebuilt
// from a saved record.
func NewWithID(id ID, class *Class, name string, owner Owner) *Object {
	object := New(class, name, owner)
	object.id = id
	return object
}

// Instantiate creates an object constructed from archetype. It starts
// with a deep copy of the archetype's properties, transform, and
// components; each copied component records the matching archetype
// component as its own archetype.
func Instantiate(archetype *Object, name string, owner Owner) *Object {
	instance := &Object{
		id:        NewID(),
		name:      name,
		class:     archetype.class,
		archetype: archetype,
		owner:     owner,
	}
	instance.copyState(archetype)
	for _, archetypeComponent := range archetype.components {
		instance.addComponent(Instantiate(archetypeComponent, archetypeComponent.name, owner))
	}
	return instance
}

// Duplicate returns a deep copy of object with a fresh identity, no
// archetype, and the given name and owner. References are shared, not
// followed.
func (object *Object) Duplicate(name string, owner Owner) *Object {
	duplicate := &Object{
		id:    NewID(),
		name:  name,
		class: object.class,
		owner: owner,
	}
	duplicate.copyState(object)
	for _, component := range object.components {
		duplicate.addComponent(component.Duplicate(component.name, owner))
	}
	return duplicate
}

func (object *Object) copyState(source *Object) {
	object.transform = source.transform
	object.properties = source.properties.Clone()
}

func (object *Object) ID() ID { return object.id }
func (object *Object) Name() string { return object.name }
func (object *Object) SetName(name string) { object.name = name }
func (object *Object) Class() *Class { return object.class }
func (object *Object) Kind() Kind { return object.class.kind }
func (object *Object) Archetype() *Object { return object.archetype }
func (object *Object) Owner() Owner { return object.owner }
func (object *Object) SetOwner(owner Owner) { object.owner = owner }
func (object *Object) PendingKill() bool { return object.pendingKill }
func (object *Object) MarkPendingKill() { object.pendingKill = true }
func (object *Object) Attached() bool { return object.attached }

// Outer returns the object a component belongs to, or nil for a
// top-level object.
func (object *Object) Outer() *Object { return object.outer }

// SetArchetype replaces the construction archetype. Used when a scene
// object is promoted into a template and when persisted state is
// restored.
func (object *Object) SetArchetype(archetype *Object) { object.archetype = archetype }

// Transform returns the placement of an actor-kind object. Data-kind
// objects always report the identity transform.
func (object *Object) Transform() transform.Transform { return object.transform }

// SetTransform places an actor-kind object. It panics on a data-kind
// object, which has no placement.
func (object *Object) SetTransform(placement transform.Transform) {
	switch object.class.kind {
	case KindActor:
		object.transform = placement
	case KindData:
		panic(fmt.Sprintf("object: %s is a data object and has no transform", object.name))
	}
}

// Property returns the value of the named property.
func (object *Object) Property(name string) (Value, bool) {
	value, ok := object.properties[name]
	return value, ok
}

// SetProperty stores a copy of value under name.
func (object *Object) SetProperty(name string, value Value) {
	if object.properties == nil {
		object.properties = make(Properties)
	}
	object.properties[name] = value.Clone()
}

// DeleteProperty removes the named property.
func (object *Object) DeleteProperty(name string) {
	delete(object.properties, name)
}

// Properties returns a copy of the property bag.
func (object *Object) Properties() Properties { return object.properties.Clone() }

// Components returns the components in order.
func (object *Object) Components() []*Object {
	components := make([]*Object, len(object.components))
	copy(components, object.components)
	return components
}

// AddComponent makes component part of object. The component takes
// object's owner.
func (object *Object) AddComponent(component *Object) {
	if component.outer != nil {
		panic(fmt.Sprintf("object: component %s already belongs to %s", component.name, component.outer.name))
	}
	component.owner = object.owner
	object.addComponent(component)
}

func (object *Object) addComponent(component *Object) {
	component.outer = object
	component.attached = object.attached
	object.components = append(object.components, component)
}

// SetComponents replaces the component list. Components no longer
// present lose their outer; new ones take object as outer and owner.
func (object *Object) SetComponents(components []*Object) {
	kept := make(map[*Object]bool, len(components))
	for _, component := range components {
		kept[component] = true
	}
	for _, previous := range object.components {
		if !kept[previous] {
			previous.outer = nil
		}
	}
	object.components = object.components[:0:0]
	for _, component := range components {
		component.owner = object.owner
		object.addComponent(component)
	}
}

// Component returns the component at index, or nil when out of range.
func (object *Object) Component(index int) *Object {
	if index < 0 || index >= len(object.components) {
		return nil
	}
	return object.components[index]
}

// AttachComponents marks every component attached: registered with
// whatever rendering or physics state the host maintains.
func (object *Object) AttachComponents() {
	object.attached = true
	for _, component := range object.components {
		component.attached = true
	}
}

// DetachComponents is the inverse of AttachComponents.
func (object *Object) DetachComponents() {
	object.attached = false
	for _, component := range object.components {
		component.attached = false
	}
}

// ResetToArchetype puts object back into the state [Instantiate] would
// have produced: archetype properties, archetype transform (which for
// a prefab member is prefab-local), and archetype components.
// Components whose index and class still match keep their identity;
// the rest are rebuilt. Objects with no archetype reset to their class
// defaults.
func (object *Object) ResetToArchetype() {
	if object.archetype == nil {
		object.properties = object.class.Defaults()
		return
	}
	object.copyState(object.archetype)

	archetypeComponents := object.archetype.components
	components := make([]*Object, 0, len(archetypeComponents))
	for i, archetypeComponent := range archetypeComponents {
		existing := object.Component(i)
		if existing != nil && existing.class == archetypeComponent.class {
			existing.archetype = archetypeComponent
			existing.ResetToArchetype()
			components = append(components, existing)
			continue
		}
		rebuilt := Instantiate(archetypeComponent, archetypeComponent.name, object.owner)
		rebuilt.outer = object
		rebuilt.attached = object.attached
		components = append(components, rebuilt)
	}
	for i, previous := range object.components {
		if i >= len(components) || components[i] != previous {
			previous.outer = nil
		}
	}
	object.components = components
}

// RewriteReferences passes every reference held by object and its
// components through replace and stores the result. It returns the
// number of slots whose target changed.
func (object *Object) RewriteReferences(replace func(*Object) *Object) int {
	changed := 0
	for name, value := range object.properties {
		updated, ok := value.rewrite(replace)
		if ok {
			object.properties[name] = updated
			changed++
		}
	}
	for _, component := range object.components {
		changed += component.RewriteReferences(replace)
	}
	return changed
}

// References returns every non-nil reference target held by object
// and its components, in property-name order.
func (object *Object) References() []*Object {
	var targets []*Object
	for _, name := range object.properties.Names() {
		targets = object.properties[name].collect(targets)
	}
	for _, component := range object.components {
		targets = append(targets, component.References()...)
	}
	return targets
}

func (object *Object) String() string {
	if object == nil {
		return "<nil>"
	}
	if object.outer != nil {
		return object.outer.String() + "." + object.name
	}
	if object.owner != nil {
		return object.owner.OwnerName() + "." + object.name
	}
	return object.name
}

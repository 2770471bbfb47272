// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/sequence"
	"github.com/bureau-foundation/prefab/lib/transform"
)

const (
	// MainSequenceName names the root sequence of every level.
	MainSequenceName = "Main_Sequence"

	// PrefabSequenceName names the subsequence holding prefab
	// sequence instances.
	PrefabSequenceName = "Prefabs"
)

// ErrLocked is returned for edits to a locked level.
var ErrLocked = errors.New("scene: level is locked")

// Config configures a World.
type Config struct {
	// Classes resolves class names. Defaults to [Classes].
	Classes *object.Registry

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// World is a set of levels and the live objects in them.
type World struct {
	classes *object.Registry
	logger  *slog.Logger
	levels  []*Level
	objects map[object.ID]*object.Object
	serials map[string]int
	editing map[*object.Object]int
}

// NewWorld returns an empty world.
func NewWorld(config Config) *World {
	world := &World{
		classes: config.Classes,
		logger:  config.Logger,
		objects: make(map[object.ID]*object.Object),
		serials: make(map[string]int),
		editing: make(map[*object.Object]int),
	}
	if world.classes == nil {
		world.classes = Classes()
	}
	if world.logger == nil {
		world.logger = slog.New(slog.DiscardHandler)
	}
	return world
}

// Classes returns the world's class registry.
func (world *World) Classes() *object.Registry { return world.classes }

// NewLevel adds an empty, unlocked level.
func (world *World) NewLevel(name string) (*Level, error) {
	if _, exists := world.Level(name); exists {
		return nil, fmt.Errorf("scene: level %q already exists", name)
	}
	level := &Level{name: name, world: world}
	world.levels = append(world.levels, level)
	return level, nil
}

// Level returns the level named name.
func (world *World) Level(name string) (*Level, bool) {
	for _, level := range world.levels {
		if level.name == name {
			return level, true
		}
	}
	return nil, false
}

// Levels returns the levels in creation order.
func (world *World) Levels() []*Level { return slices.Clone(world.levels) }

func (world *World) level(container object.Owner) (*Level, error) {
	level, ok := container.(*Level)
	if !ok || level.world != world {
		return nil, fmt.Errorf("scene: %v is not a level of this world", container)
	}
	return level, nil
}

// Spawn creates an object constructed from archetype in container.
// Actors are placed at placement; data objects ignore it.
func (world *World) Spawn(container object.Owner, archetype *object.Object, placement transform.Transform) (*object.Object, error) {
	level, err := world.level(container)
	if err != nil {
		return nil, err
	}
	if level.locked {
		return nil, fmt.Errorf("spawning %s into %s: %w", archetype.Name(), level.name, ErrLocked)
	}
	live := object.Instantiate(archetype, world.nextName(archetype.Class()), level)
	world.place(level, live, placement)
	return live, nil
}

// SpawnClass creates a default-constructed object of class in level.
// It is how scenes are authored before anything is promoted into a
// template.
func (world *World) SpawnClass(level *Level, class *object.Class, placement transform.Transform) (*object.Object, error) {
	if _, err := world.level(level); err != nil {
		return nil, err
	}
	if level.locked {
		return nil, fmt.Errorf("spawning %s into %s: %w", class.Name(), level.name, ErrLocked)
	}
	live := object.New(class, world.nextName(class), level)
	world.place(level, live, placement)
	return live, nil
}

func (world *World) place(level *Level, live *object.Object, placement transform.Transform) {
	switch live.Kind() {
	case object.KindActor:
		live.SetTransform(placement)
	case object.KindData:
	}
	live.AttachComponents()
	level.objects = append(level.objects, live)
	world.objects[live.ID()] = live
	world.logger.Debug("object spawned", "object", live.Name(), "class", live.Class().Name(), "level", level.name)
}

func (world *World) nextName(class *object.Class) string {
	serial := world.serials[class.Name()]
	world.serials[class.Name()] = serial + 1
	return fmt.Sprintf("%s_%d", class.Name(), serial)
}

// Destroy removes live from its level and marks it pending kill.
// Objects the world does not know are ignored.
func (world *World) Destroy(live *object.Object) {
	if world.objects[live.ID()] != live {
		return
	}
	delete(world.objects, live.ID())
	delete(world.editing, live)
	if level, ok := live.Owner().(*Level); ok {
		level.objects = slices.DeleteFunc(level.objects, func(candidate *object.Object) bool { return candidate == live })
	}
	live.DetachComponents()
	live.MarkPendingKill()
	world.logger.Debug("object destroyed", "object", live.Name())
}

// PreEdit marks live as being edited.
func (world *World) PreEdit(live *object.Object) {
	world.editing[live]++
}

// PostEdit ends an edit and re-registers live's components.
func (world *World) PostEdit(live *object.Object) {
	if world.editing[live] > 1 {
		world.editing[live]--
	} else {
		delete(world.editing, live)
	}
	live.AttachComponents()
}

// Editing returns the number of objects between PreEdit and PostEdit.
func (world *World) Editing() int { return len(world.editing) }

// Locked reports whether container is a locked level. Containers that
// are not levels of this world count as locked.
func (world *World) Locked(container object.Owner) bool {
	level, err := world.level(container)
	return err != nil || level.locked
}

// Resolve returns the live object with id.
func (world *World) Resolve(id object.ID) *object.Object {
	return world.objects[id]
}

// Class returns the class named name.
func (world *World) Class(name string) (*object.Class, bool) {
	return world.classes.Lookup(name)
}

// PrefabSequence returns the level's "Prefabs" subsequence, creating
// it under the level's root sequence if needed.
func (world *World) PrefabSequence(container object.Owner) (*sequence.Node, error) {
	level, err := world.level(container)
	if err != nil {
		return nil, err
	}
	root := level.Sequence()
	if existing := level.prefabSequence(); existing != nil {
		return existing, nil
	}
	if level.locked {
		return nil, fmt.Errorf("creating prefab sequence in %s: %w", level.name, ErrLocked)
	}
	prefabs := sequence.NewSequence(PrefabSequenceName)
	prefabs.Deletable = false
	if err := root.AddObject(prefabs); err != nil {
		return nil, err
	}
	return prefabs, nil
}

// ReleasePrefabSequence removes the level's "Prefabs" subsequence once
// nothing is left in it.
func (world *World) ReleasePrefabSequence(container object.Owner) {
	level, err := world.level(container)
	if err != nil {
		return
	}
	if prefabs := level.prefabSequence(); prefabs != nil && len(prefabs.Children) == 0 {
		level.Sequence().RemoveObject(prefabs)
	}
}

// Level is a container of live objects with its own script graph.
type Level struct {
	name     string
	world    *World
	locked   bool
	objects  []*object.Object
	sequence *sequence.Node
}

// OwnerName implements object.Owner.
func (level *Level) OwnerName() string { return level.name }

func (level *Level) Name() string { return level.name }
func (level *Level) Locked() bool { return level.locked }
func (level *Level) SetLocked(locked bool) { level.locked = locked }

// Objects returns the live objects in spawn order.
func (level *Level) Objects() []*object.Object { return slices.Clone(level.objects) }

// Find returns the live object named name.
func (level *Level) Find(name string) *object.Object {
	for _, live := range level.objects {
		if live.Name() == name {
			return live
		}
	}
	return nil
}

// Sequence returns the level's root sequence.
func (level *Level) Sequence() *sequence.Node {
	if level.sequence == nil {
		level.sequence = sequence.NewSequence(MainSequenceName)
		level.sequence.Deletable = false
	}
	return level.sequence
}

func (level *Level) prefabSequence() *sequence.Node {
	for _, child := range level.Sequence().Children {
		if child.Kind == sequence.KindSequence && child.Name == PrefabSequenceName {
			return child
		}
	}
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/prefab/lib/diffarchive"
	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/rewrite"
	"github.com/bureau-foundation/prefab/lib/sequence"
	"github.com/bureau-foundation/prefab/lib/transform"
)

// Config configures a new instance.
type Config struct {
	// Host is the scene the instance lives in. Required.
	Host Host

	// Level is the container members are spawned into. Required.
	Level Container

	// Template is the template the instance follows. Required.
	Template *Template

	// Name names the instance and its script sequence. Defaults to the
	// template name.
	Name string

	// Transform places the instance in world space.
	Transform transform.Transform

	// Tolerance controls drift suppression after transform round
	// trips. The zero value means transform.DefaultTolerance.
	Tolerance transform.Tolerance

	// Logger receives operation logs and diagnostics. Defaults to a
	// discarding logger.
	Logger *slog.Logger

	// Metrics, if set, counts operations.
	Metrics *Metrics
}

// Instance is one placement of a template in a level.
type Instance struct {
	id        object.ID
	name      string
	host      Host
	level     Container
	template  *Template
	placement transform.Transform
	tolerance transform.Tolerance
	logger    *slog.Logger
	metrics   *Metrics

	members   *InstanceMap
	sequence  *sequence.Node
	version   int
	savedDiff diffarchive.Buffer
	dirty     bool
}

// NewInstance returns an instance with no members. Call InstancePrefab
// to populate it.
func NewInstance(config Config) (*Instance, error) {
	if config.Host == nil {
		return nil, errors.New("prefab: instance config has no host")
	}
	if config.Level == nil {
		return nil, errors.New("prefab: instance config has no level")
	}
	if config.Template == nil {
		return nil, errors.New("prefab: instance config has no template")
	}
	instance := &Instance{
		id:        object.NewID(),
		name:      config.Name,
		host:      config.Host,
		level:     config.Level,
		template:  config.Template,
		placement: config.Transform,
		tolerance: config.Tolerance,
		logger:    config.Logger,
		metrics:   config.Metrics,
		members:   NewInstanceMap(),
	}
	if instance.name == "" {
		instance.name = config.Template.Name()
	}
	if instance.tolerance == (transform.Tolerance{}) {
		instance.tolerance = transform.DefaultTolerance
	}
	if instance.logger == nil {
		instance.logger = slog.New(slog.DiscardHandler)
	}
	instance.logger = instance.logger.With("instance", instance.name)
	return instance, nil
}

func (instance *Instance) ID() object.ID                  { return instance.id }
func (instance *Instance) Name() string                   { return instance.name }
func (instance *Instance) Level() Container               { return instance.level }
func (instance *Instance) Transform() transform.Transform { return instance.placement }

// Template returns the template the instance follows, or nil after
// DestroyPrefab.
func (instance *Instance) Template() *Template { return instance.template }

// Members returns the archetype correspondence.
func (instance *Instance) Members() *InstanceMap { return instance.members }

// Sequence returns the instance's copy of the template sequence, or
// nil.
func (instance *Instance) Sequence() *sequence.Node { return instance.sequence }

// InstanceVersion is the template version the instance last synced
// against.
func (instance *Instance) InstanceVersion() int { return instance.version }

// SavedDiff returns the differences recorded by the last
// SaveDifferences.
func (instance *Instance) SavedDiff() diffarchive.Buffer { return instance.savedDiff }

// Dirty reports whether the instance was changed by a recovery step
// and needs saving.
func (instance *Instance) Dirty() bool { return instance.dirty }

// MarkClean clears the dirty flag after the instance was persisted.
func (instance *Instance) MarkClean() { instance.dirty = false }

// Actors returns the live actor-kind members that are not pending
// destruction.
func (instance *Instance) Actors() []*object.Object {
	var actors []*object.Object
	for _, live := range instance.members.LiveObjects() {
		if live.Kind() == object.KindActor && !live.PendingKill() {
			actors = append(actors, live)
		}
	}
	return actors
}

func (instance *Instance) checkEditable(operation string) error {
	if instance.template == nil {
		return fmt.Errorf("%s %s: %w", operation, instance.name, ErrNoTemplate)
	}
	if instance.host.Locked(instance.level) {
		return fmt.Errorf("%s %s in %s: %w", operation, instance.name, instance.level.OwnerName(), ErrLockedContainer)
	}
	return nil
}

// InstancePrefab spawns a live object for every archetype of the
// template, rewrites references among them, and instantiates the
// template's sequence. On failure nothing spawned is left behind.
func (instance *Instance) InstancePrefab() (report *Report, err error) {
	done := instance.metrics.observe("instance")
	defer func() { done(err) }()

	if err := instance.checkEditable("instancing"); err != nil {
		return nil, err
	}
	if instance.members.Len() > 0 {
		return nil, fmt.Errorf("instancing %s: instance already has %d members", instance.name, instance.members.Len())
	}

	report = &Report{}
	auxiliary := rewrite.NewMapping()
	var spawned []*object.Object
	for _, archetype := range instance.template.Archetypes() {
		live, err := instance.spawn(archetype)
		if err != nil {
			for _, created := range spawned {
				instance.host.Destroy(created)
			}
			instance.members.Clear()
			return nil, err
		}
		auxiliary.Set(archetype, live)
		addComponentPairs(auxiliary, archetype, live)
		spawned = append(spawned, live)
	}
	rewrite.RewriteAll(spawned, auxiliary, false)
	for _, live := range spawned {
		instance.host.PostEdit(live)
	}
	report.Spawned = len(spawned)

	if err := instance.resyncSequence(report); err != nil {
		return nil, err
	}
	instance.version = instance.template.Version()
	instance.metrics.report(report)
	instance.logger.Info("prefab instanced",
		"template", instance.template.Name(),
		"level", instance.level.OwnerName(),
		"members", report.Spawned,
		"instance_version", instance.version,
	)
	return report, nil
}

// spawn creates the live object for archetype and records it.
func (instance *Instance) spawn(archetype *object.Object) (*object.Object, error) {
	placement := transform.Identity
	switch archetype.Kind() {
	case object.KindActor:
		placement = transform.ToWorld(archetype.Transform(), instance.placement)
	case object.KindData:
	}
	live, err := instance.host.Spawn(instance.level, archetype, placement)
	if err != nil {
		return nil, fmt.Errorf("spawning %s for %s: %w", archetype.Name(), instance.name, err)
	}
	instance.members.SetLive(archetype, live)
	return live, nil
}

// Update brings the instance to the template's current version. It
// does nothing when the instance is already at that version.
func (instance *Instance) Update() (report *Report, err error) {
	report = &Report{}
	if instance.template != nil && instance.template.Version() == instance.version {
		return report, nil
	}
	done := instance.metrics.observe("update")
	defer func() { done(err) }()

	if err := instance.checkEditable("updating"); err != nil {
		return nil, err
	}
	reader, err := diffarchive.NewReader(instance.savedDiff)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", instance.name, err)
	}
	instance.verifyMembers(report)
	members := instance.members.Members()

	// Spawn archetypes new to the template first, so that a failed spawn
	// leaves the existing members untouched.
	var added []*object.Object
	for _, archetype := range instance.template.Archetypes() {
		if _, exists := instance.members.Lookup(archetype); exists {
			continue
		}
		live, err := instance.spawn(archetype)
		if err != nil {
			for _, created := range added {
				instance.host.Destroy(created)
				instance.members.Delete(created.Archetype())
			}
			return nil, err
		}
		added = append(added, live)
	}
	report.Spawned = len(added)

	// Reset every member and replay its saved differences before any
	// reference is rewritten: replay can rebuild components, and the
	// mapping must see the final ones.
	resolver := archiveResolver{template: instance.template, host: instance.host}
	previous := make([]transform.Transform, len(members))
	for i, member := range members {
		previous[i] = member.Live.Transform()
		instance.host.PreEdit(member.Live)
		member.Live.ResetToArchetype()
		if _, err := reader.Apply(member.Live, resolver); err != nil {
			report.add(instance.logger, instance.metrics, Diagnostic{
				Kind:    ReplayFailed,
				Subject: member.Live.Name(),
				Message: err.Error(),
			})
		}
	}
	mapping := instance.members.Mapping()
	for i, member := range members {
		rewrite.Rewrite(member.Live, mapping, false)
		instance.placeFromLocal(member.Live, previous[i])
		instance.host.PostEdit(member.Live)
	}
	report.Updated = len(members)

	for _, archetype := range instance.template.Removed() {
		entry, exists := instance.members.Lookup(archetype)
		if !exists || entry.IsRemoved() {
			continue
		}
		instance.host.Destroy(entry.Object())
		instance.members.SetRemoved(archetype)
		report.Destroyed++
	}

	mapping = instance.members.Mapping()
	rewrite.RewriteAll(instance.members.LiveObjects(), mapping, false)
	for _, live := range added {
		instance.host.PostEdit(live)
	}

	if err := instance.resyncSequence(report); err != nil {
		return nil, err
	}
	from := instance.version
	instance.version = instance.template.Version()
	instance.metrics.report(report)
	instance.logger.Info("prefab updated",
		"template", instance.template.Name(),
		"from_version", from,
		"instance_version", instance.version,
		"updated", report.Updated,
		"spawned", report.Spawned,
		"destroyed", report.Destroyed,
		"tombstoned", report.Tombstoned,
	)
	return report, nil
}

// placeFromLocal converts live's transform, which replay left in
// prefab-local space, to world space, keeping previous when the result
// is within tolerance of it.
func (instance *Instance) placeFromLocal(live *object.Object, previous transform.Transform) {
	if live.Kind() != object.KindActor {
		return
	}
	world := transform.ToWorld(live.Transform(), instance.placement)
	live.SetTransform(transform.SnapIfNearlyEqual(world, previous, instance.tolerance))
}

// SaveDifferences records how every live member differs from its
// archetype and stores the result as the instance's saved diff. The
// live objects are left as they were.
func (instance *Instance) SaveDifferences() (err error) {
	done := instance.metrics.observe("save")
	defer func() { done(err) }()

	if err := instance.checkEditable("saving"); err != nil {
		return err
	}
	instance.tombstoneDestroyed()

	members := instance.members.Members()
	forward := instance.members.Mapping()
	inverse := forward.Inverse()
	inverse.Scope = instance.template

	world := make([]transform.Transform, len(members))
	for i, member := range members {
		world[i] = member.Live.Transform()
		instance.host.PreEdit(member.Live)
		member.Live.DetachComponents()
		rewrite.Rewrite(member.Live, inverse, true)
		if member.Live.Kind() == object.KindActor {
			local := transform.ToLocal(world[i], instance.placement)
			member.Live.SetTransform(transform.SnapIfNearlyEqual(local, member.Archetype.Transform(), instance.tolerance))
		}
	}
	// Put the scene back however writing went.
	defer func() {
		for i, member := range members {
			rewrite.Rewrite(member.Live, forward, false)
			instance.placeFromLocal(member.Live, world[i])
			member.Live.AttachComponents()
			instance.host.PostEdit(member.Live)
		}
	}()

	writer := diffarchive.NewWriter()
	for _, member := range members {
		if err := writer.Write(member.Live, member.Archetype); err != nil {
			return fmt.Errorf("saving %s: %w", instance.name, err)
		}
	}
	buffer, err := writer.Finish()
	if err != nil {
		return fmt.Errorf("saving %s: %w", instance.name, err)
	}
	instance.savedDiff = buffer
	instance.logger.Debug("prefab differences saved",
		"template", instance.template.Name(),
		"members", len(members),
		"bytes", len(buffer.Bytes),
		"names", len(buffer.SavedNames),
	)
	return nil
}

// VerifyMemberArchetypes drops entries whose archetype is no longer
// part of the template, including orphans left by a restore, and marks
// the instance dirty if any were dropped.
func (instance *Instance) VerifyMemberArchetypes() *Report {
	report := &Report{}
	if instance.template != nil {
		instance.verifyMembers(report)
	}
	return report
}

func (instance *Instance) verifyMembers(report *Report) {
	report.Tombstoned += instance.tombstoneDestroyed()

	for _, orphan := range instance.members.orphans {
		report.add(instance.logger, instance.metrics, Diagnostic{
			Kind:    MissingArchetype,
			Subject: orphan.ArchetypeID.String(),
			Message: fmt.Sprintf("archetype not found in template %s; dropping %s entry", instance.template.Name(), orphan.Entry),
		})
		instance.dirty = true
	}
	instance.members.orphans = nil

	for _, archetype := range instance.members.Archetypes() {
		if instance.template.Contains(archetype) {
			continue
		}
		entry, _ := instance.members.Lookup(archetype)
		instance.members.Delete(archetype)
		instance.dirty = true
		report.add(instance.logger, instance.metrics, Diagnostic{
			Kind:    MissingArchetype,
			Subject: archetype.Name(),
			Message: fmt.Sprintf("archetype no longer in template %s; dropping %s entry", instance.template.Name(), entry),
		})
	}
}

// tombstoneDestroyed turns every member whose live object was destroyed
// in the level into a tombstone and nulls the references the remaining
// members and the sequence instance hold to it. It returns the number
// of members tombstoned.
func (instance *Instance) tombstoneDestroyed() int {
	dead := rewrite.NewMapping()
	count := 0
	for _, member := range instance.members.Members() {
		if !member.Live.PendingKill() {
			continue
		}
		instance.members.SetRemoved(member.Archetype)
		dead.Set(member.Live, nil)
		for _, component := range member.Live.Components() {
			dead.Set(component, nil)
		}
		instance.dirty = true
		count++
		instance.logger.Info("prefab member destroyed in level",
			"template", instance.template.Name(),
			"archetype", member.Archetype.Name(),
			"object", member.Live.Name(),
		)
	}
	if count == 0 {
		return 0
	}
	rewrite.RewriteAll(instance.members.LiveObjects(), dead, false)
	if instance.sequence != nil {
		rewrite.Rewrite(instance.sequence, dead, false)
	}
	return count
}

// DestroyPrefab destroys every live member and the sequence instance,
// and detaches the instance from its template.
func (instance *Instance) DestroyPrefab() (report *Report, err error) {
	done := instance.metrics.observe("destroy")
	defer func() { done(err) }()

	if instance.host.Locked(instance.level) {
		return nil, fmt.Errorf("destroying %s in %s: %w", instance.name, instance.level.OwnerName(), ErrLockedContainer)
	}
	report = &Report{}
	for _, live := range instance.members.LiveObjects() {
		instance.host.Destroy(live)
		report.Destroyed++
	}
	instance.members.Clear()
	if instance.sequence != nil {
		if parent := instance.sequence.Parent(); parent != nil {
			parent.RemoveObject(instance.sequence)
		}
		instance.sequence = nil
		instance.host.ReleasePrefabSequence(instance.level)
	}
	instance.template = nil
	instance.version = 0
	instance.savedDiff = diffarchive.Buffer{}
	instance.metrics.report(report)
	instance.logger.Info("prefab destroyed", "destroyed", report.Destroyed)
	return report, nil
}

// archiveResolver resolves diff references against the template first
// and the scene second.
type archiveResolver struct {
	template *Template
	host     Host
}

func (resolver archiveResolver) ResolveObject(id object.ID) *object.Object {
	if found := resolver.template.Find(id); found != nil {
		return found
	}
	return resolver.host.Resolve(id)
}

func (resolver archiveResolver) ResolveClass(name string) (*object.Class, bool) {
	return resolver.host.Class(name)
}

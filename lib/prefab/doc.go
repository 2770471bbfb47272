// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package prefab keeps live copies of reusable object templates in
// sync with the templates they were placed from.
//
// A [Template] is a versioned catalog of archetype objects, tombstones
// for archetypes deleted in earlier versions, and an optional embedded
// script sequence. An [Instance] is one placement of a template in a
// level. Its [InstanceMap] records, for every archetype, either the
// live object spawned from it or the fact that this instance removed
// it. "No entry" and "removed" are distinct states: only archetypes
// with no entry are spawned when a newer template version adds them.
//
// The life of an instance:
//
//   - [Instance.InstancePrefab] spawns a live object per archetype at
//     its local transform composed with the instance placement, then
//     rewrites every reference between the spawned objects so nothing
//     points back at the template.
//   - [Instance.SaveDifferences] turns each live object temporarily
//     back into archetype form (references and transform) and records
//     how it differs from its archetype through a diff archive writer.
//     The scene is left exactly as it was.
//   - [Instance.Update] brings the instance to the template's current
//     version: every live object is reset to its archetype and the
//     saved differences are replayed on top; new archetypes are
//     spawned, tombstoned ones destroyed, references rewritten again,
//     and the script sequence replaced with links reconnected by
//     connector label.
//   - [Instance.DestroyPrefab] tears everything down.
//
// Every operation runs synchronously against a [Host], which owns the
// scene: spawning, destroying, edit notifications, and the level's
// script graph. The level an instance spawns into is carried by the
// instance itself and passed explicitly to every Host call.
//
// Aborting conditions ([ErrLockedContainer], [ErrCorruptArchive]) are
// returned as errors before anything is mutated. Per-item problems
// (missing archetypes, script links that could not be reconnected) are
// collected in a [Report] and logged, and the operation carries on.
package prefab

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scene is an in-memory world of levels that prefab instances
// are placed into.
//
// A [World] holds [Level]s and indexes every live object by ID. It
// implements the host side of lib/prefab: spawning objects from
// archetypes into an explicit level, destroying them, edit
// notifications, level locking, and each level's script graph. Every
// level owns a root "Main_Sequence"; prefab sequence instances live in
// a non-deletable "Prefabs" subsequence created on demand and removed
// again once empty.
//
// Nothing here is safe for concurrent use. The world is mutated from
// one editing goroutine.
package scene

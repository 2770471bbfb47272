// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package prefabdef parses, validates, and builds hand-authored prefab
// template definitions.
//
// Definitions are authored on disk as JSONC files (JSON extended with
// comments and trailing commas). A definition names its archetypes by
// string and refers to them by name; [Build] turns it into a
// [prefab.Template] whose archetypes reference each other directly.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Definition
//  2. Validate: structural checks against a class registry
//  3. Build: Definition → *prefab.Template
//
// Property values use plain JSON for booleans, numbers, strings, and
// lists, and a single-key object for everything else:
//
//	"StaticMesh": {"name": "Wall"}
//	"Partner":    {"ref": "MeshB"}
//	"Shape":      {"ref": "Trigger.BrushComponent0"}
//	"DrawScale3D": {"vector": [1, 1, 2]}
//	"Facing":     {"rotator": [0, 16384, 0]}
//	"Radius":     {"float": 512}
//
// Integral numbers become integer values unless tagged "float".
package prefabdef

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transform converts object placements between prefab-local and
// world space.
//
// Rotations use the fixed-point angular unit of the object model:
// [FullTurn] units per revolution, stored per axis (pitch, yaw, roll) in
// a [Rotator]. Placement composition goes through row-major
// rotation-translation matrices ([Matrix]) where a point p maps to p*M,
// so composing "local then prefab" is Local.Matrix() * Prefab.Matrix().
//
// Extracting a rotator from a matrix rounds each axis to whole units and
// the trigonometry loses a few bits, so a value pushed through
// [ToWorld] and back through [ToLocal] rarely comes back bit-identical.
// [SnapIfNearlyEqual] compares a recomputed transform against the value
// it had before the round trip and keeps the old value when the
// difference is within a [Tolerance]. Callers apply it after every
// round trip so that a no-op sync never shows up as an edit.
package transform

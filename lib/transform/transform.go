// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"fmt"
	"math"
)

// FullTurn is the number of rotator units in one revolution.
const FullTurn = 65536

// halfTurn is FullTurn/2; axis values are normalized into
// [-halfTurn, halfTurn).
const halfTurn = FullTurn / 2

// Vector is a position or offset in engine units.
type Vector struct {
	X, Y, Z float64
}

// Add returns v+other.
func (v Vector) Add(other Vector) Vector {
	return Vector{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v-other.
func (v Vector) Sub(other Vector) Vector {
	return Vector{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Dot returns the dot product of v and other.
func (v Vector) Dot(other Vector) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Size returns the Euclidean length of v.
func (v Vector) Size() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vector) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Rotator is an orientation as three fixed-point Euler angles.
type Rotator struct {
	Pitch, Yaw, Roll int32
}

// Normalize returns r with every axis wrapped into [-FullTurn/2, FullTurn/2).
func (r Rotator) Normalize() Rotator {
	return Rotator{normalizeAxis(r.Pitch), normalizeAxis(r.Yaw), normalizeAxis(r.Roll)}
}

func (r Rotator) String() string {
	return fmt.Sprintf("(pitch=%d, yaw=%d, roll=%d)", r.Pitch, r.Yaw, r.Roll)
}

func normalizeAxis(value int32) int32 {
	wrapped := value & (FullTurn - 1)
	if wrapped >= halfTurn {
		wrapped -= FullTurn
	}
	return wrapped
}

// axisDelta is the shortest signed distance from b to a, in units.
func axisDelta(a, b int32) int32 {
	return normalizeAxis(a - b)
}

// Transform places an object: location plus orientation.
type Transform struct {
	Location Vector
	Rotation Rotator
}

// Identity is the zero placement.
var Identity = Transform{}

// Matrix returns the rotation-translation matrix for t.
func (t Transform) Matrix() Matrix {
	return RotationTranslation(t.Rotation, t.Location)
}

func (t Transform) String() string {
	return fmt.Sprintf("%s %s", t.Location, t.Rotation)
}

// ToWorld composes a prefab-local transform with the prefab's world
// placement.
func ToWorld(local, prefab Transform) Transform {
	return fromMatrix(local.Matrix().Multiply(prefab.Matrix()))
}

// ToLocal is the inverse of ToWorld: it expresses a world transform
// relative to the prefab placement.
func ToLocal(world, prefab Transform) Transform {
	return fromMatrix(world.Matrix().Multiply(prefab.Matrix().InverseRigid()))
}

func fromMatrix(m Matrix) Transform {
	return Transform{Location: m.Origin(), Rotation: m.Rotator()}
}

// Tolerance bounds the difference SnapIfNearlyEqual treats as numerical
// noise.
type Tolerance struct {
	// Position is the largest location distance, in engine units, that
	// still counts as unchanged. Compared with a strict less-than.
	Position float64

	// Angle is the largest per-axis rotation difference, in rotator
	// units, that still counts as unchanged. Compared with a strict
	// less-than against the wrapped axis difference.
	Angle float64
}

// DefaultTolerance is 0.1 units of position and half a degree per axis.
var DefaultTolerance = Tolerance{
	Position: 0.1,
	Angle:    FullTurn * 0.5 / 360,
}

// SnapIfNearlyEqual returns candidate with its location replaced by
// reference.Location when the two are closer than tolerance.Position,
// and its rotation replaced by reference.Rotation when every axis
// differs by less than tolerance.Angle. Location and rotation snap
// independently. When both snap the result is reference, bit for bit.
func SnapIfNearlyEqual(candidate, reference Transform, tolerance Tolerance) Transform {
	result := candidate
	if candidate.Location.Sub(reference.Location).Size() < tolerance.Position {
		result.Location = reference.Location
	}
	if rotationNearlyEqual(candidate.Rotation, reference.Rotation, tolerance.Angle) {
		result.Rotation = reference.Rotation
	}
	return result
}

func rotationNearlyEqual(a, b Rotator, angle float64) bool {
	return math.Abs(float64(axisDelta(a.Pitch, b.Pitch))) < angle &&
		math.Abs(float64(axisDelta(a.Yaw, b.Yaw))) < angle &&
		math.Abs(float64(axisDelta(a.Roll, b.Roll))) < angle
}

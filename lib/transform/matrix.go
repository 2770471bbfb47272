// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import "math"

// Matrix is a row-major 4x4 affine matrix. Rows 0-2 are the rotated X,
// Y, and Z axes; row 3 is the translation.
type Matrix [4][4]float64

// unitsToRadians converts rotator units to radians.
const unitsToRadians = math.Pi / halfTurn

// RotationTranslation builds the matrix that rotates by rotation and
// then translates by origin.
func RotationTranslation(rotation Rotator, origin Vector) Matrix {
	sinPitch, cosPitch := math.Sincos(float64(rotation.Pitch) * unitsToRadians)
	sinYaw, cosYaw := math.Sincos(float64(rotation.Yaw) * unitsToRadians)
	sinRoll, cosRoll := math.Sincos(float64(rotation.Roll) * unitsToRadians)

	var m Matrix
	m[0] = [4]float64{cosPitch * cosYaw, cosPitch * sinYaw, sinPitch, 0}
	m[1] = [4]float64{
		sinRoll*sinPitch*cosYaw - cosRoll*sinYaw,
		sinRoll*sinPitch*sinYaw + cosRoll*cosYaw,
		-sinRoll * cosPitch,
		0,
	}
	m[2] = [4]float64{
		-(cosRoll*sinPitch*cosYaw + sinRoll*sinYaw),
		cosYaw*sinRoll - cosRoll*sinPitch*sinYaw,
		cosRoll * cosPitch,
		0,
	}
	m[3] = [4]float64{origin.X, origin.Y, origin.Z, 1}
	return m
}

// Multiply returns m*other.
func (m Matrix) Multiply(other Matrix) Matrix {
	var result Matrix
	for row := 0; row < 4; row++ {
		for column := 0; column < 4; column++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row][k] * other[k][column]
			}
			result[row][column] = sum
		}
	}
	return result
}

// InverseRigid inverts a rotation-translation matrix. The result is
// meaningless for matrices with scale or shear.
func (m Matrix) InverseRigid() Matrix {
	var result Matrix
	for row := 0; row < 3; row++ {
		for column := 0; column < 3; column++ {
			result[row][column] = m[column][row]
		}
	}
	origin := m.Origin()
	for column := 0; column < 3; column++ {
		result[3][column] = -(origin.X*result[0][column] + origin.Y*result[1][column] + origin.Z*result[2][column])
	}
	result[3][3] = 1
	return result
}

// Axis returns row index (0, 1, or 2) as a vector.
func (m Matrix) Axis(index int) Vector {
	return Vector{m[index][0], m[index][1], m[index][2]}
}

// Origin returns the translation row.
func (m Matrix) Origin() Vector {
	return Vector{m[3][0], m[3][1], m[3][2]}
}

// Rotator extracts the orientation of m, rounded to whole units and
// normalized.
func (m Matrix) Rotator() Rotator {
	xAxis := m.Axis(0)
	yAxis := m.Axis(1)
	zAxis := m.Axis(2)

	rotator := Rotator{
		Pitch: radiansToUnits(math.Atan2(xAxis.Z, math.Sqrt(xAxis.X*xAxis.X+xAxis.Y*xAxis.Y))),
		Yaw:   radiansToUnits(math.Atan2(xAxis.Y, xAxis.X)),
	}

	// Roll is measured against the Y axis of the pitch/yaw-only frame.
	syAxis := RotationTranslation(rotator, Vector{}).Axis(1)
	rotator.Roll = radiansToUnits(math.Atan2(zAxis.Dot(syAxis), yAxis.Dot(syAxis)))
	return rotator.Normalize()
}

func radiansToUnits(radians float64) int32 {
	return int32(math.Round(radians / unitsToRadians))
}

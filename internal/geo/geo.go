// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package geo provides the planar geometry used for zone checks.
//
// All distance checks are two-dimensional. The vertical axis is carried only
// so teleport targets can be placed at a sensible height.
package geo

import "math"

// Vec2 is a position on the map plane.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Vec3 is a world position. Z is the vertical axis.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Planar drops the vertical component.
func (v Vec3) Planar() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// DistanceSq returns the squared planar distance between a and b.
func DistanceSq(a, b Vec2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Distance returns the planar distance between a and b.
func Distance(a, b Vec2) float64 {
	return math.Sqrt(DistanceSq(a, b))
}

// Within reports whether b lies within radius of a (inclusive).
func Within(a, b Vec2, radius float64) bool {
	return DistanceSq(a, b) <= radius*radius
}

package main

import "math"

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Box is an oriented bounding box: a center, half-extents along its local
// axes, and a yaw rotation (degrees) about the vertical axis.
type Box struct {
	Center Vec3
	Half   Vec3
	YawDeg float64
}

// axes returns the box's local right/up/forward unit vectors. Yaw 0 faces
// +Z with +X to the right; positive yaw turns clockwise viewed from above,
// matching the client's coordinate convention.
func (b Box) axes() (right, up, forward Vec3) {
	rad := b.YawDeg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	right = Vec3{cos, 0, -sin}
	up = Vec3{0, 1, 0}
	forward = Vec3{sin, 0, cos}
	return
}

// Corners returns the 8 world-space corners of the box.
func (b Box) Corners() [8]Vec3 {
	r, u, f := b.axes()
	var out [8]Vec3
	i := 0
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				out[i] = Vec3{
					b.Center.X + sx*b.Half.X*r.X + sy*b.Half.Y*u.X + sz*b.Half.Z*f.X,
					b.Center.Y + sx*b.Half.X*r.Y + sy*b.Half.Y*u.Y + sz*b.Half.Z*f.Y,
					b.Center.Z + sx*b.Half.X*r.Z + sy*b.Half.Y*u.Z + sz*b.Half.Z*f.Z,
				}
				i++
			}
		}
	}
	return out
}

// project returns the [min,max] interval of the corners projected onto axis.
func project(corners [8]Vec3, axis Vec3) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, c := range corners {
		d := c.X*axis.X + c.Y*axis.Y + c.Z*axis.Z
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return
}

// Intersects runs the separating-axis test over both boxes' local axes
// (6 candidates; both share the world up axis, the duplicate is harmless).
// Interval comparison is inclusive: touching counts as overlap.
func Intersects(a, b Box) bool {
	ca := a.Corners()
	cb := b.Corners()

	ra, ua, fa := a.axes()
	rb, ub, fb := b.axes()
	axes := [6]Vec3{ra, ua, fa, rb, ub, fb}

	for _, axis := range axes {
		minA, maxA := project(ca, axis)
		minB, maxB := project(cb, axis)
		if maxA < minB || maxB < minA {
			return false
		}
	}
	return true
}

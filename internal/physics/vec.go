package physics

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is a 3-component world-frame vector. Add, Sub, Mul (scalar) and Dot
// come from mgl64 and all return new values.
type Vec3 = mgl64.Vec3

// NormSq returns the squared Euclidean norm of v.
func NormSq(v Vec3) float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// V is shorthand for constructing a Vec3.
func V(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

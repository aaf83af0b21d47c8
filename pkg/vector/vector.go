// Package vector provides the small immutable vector types used for
// positions and rotations.
package vector

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used by Equal and IsNormalized.
const Epsilon = 0.000001

type Vector2 struct {
	X, Y float64
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector2) Mul(o Vector2) Vector2 {
	return Vector2{X: v.X * o.X, Y: v.Y * o.Y}
}

func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

func (v Vector2) Div(o Vector2) Vector2 {
	return Vector2{X: v.X / o.X, Y: v.Y / o.Y}
}

func (v Vector2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vector2) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

func (v Vector2) DistanceSquared(o Vector2) float64 {
	dx, dy := v.X-o.X, v.Y-o.Y
	return dx*dx + dy*dy
}

func (v Vector2) Distance(o Vector2) float64 {
	return math.Sqrt(v.DistanceSquared(o))
}

// Normalize returns a unit vector pointing in the same direction. The zero
// vector normalizes to NaN components.
func (v Vector2) Normalize() Vector2 {
	return v.Scale(1 / v.Length())
}

func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3D cross product.
func (v Vector2) Cross(o Vector2) float64 {
	return v.X*o.Y - o.X*v.Y
}

// Angle returns the angle between v and o in radians.
func (v Vector2) Angle(o Vector2) float64 {
	return math.Acos(v.Dot(o) / math.Sqrt(v.LengthSquared()*o.LengthSquared()))
}

func (v Vector2) Midpoint(o Vector2) Vector2 {
	return Vector2{X: (v.X + o.X) / 2, Y: (v.Y + o.Y) / 2}
}

func (v Vector2) InAABB(min, max Vector2) bool {
	return v.X >= min.X && v.X <= max.X && v.Y >= min.Y && v.Y <= max.Y
}

func (v Vector2) InSphere(origin Vector2, radius float64) bool {
	return v.DistanceSquared(origin) <= radius*radius
}

func (v Vector2) IsNormalized() bool {
	return math.Abs(v.LengthSquared()-1) < Epsilon
}

func (v Vector2) BlockX() int {
	return int(math.Floor(v.X))
}

func (v Vector2) BlockY() int {
	return int(math.Floor(v.Y))
}

// Equal compares both components within Epsilon.
func (v Vector2) Equal(o Vector2) bool {
	return math.Abs(v.X-o.X) < Epsilon && math.Abs(v.Y-o.Y) < Epsilon
}

func (v Vector2) String() string {
	return fmt.Sprintf("Vector2{X:%g,Y:%g}", v.X, v.Y)
}

type Vector3 struct {
	X, Y, Z float64
}

// XY drops the z component.
func (v Vector3) XY() Vector2 {
	return Vector2{X: v.X, Y: v.Y}
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vector3) Mul(o Vector3) Vector3 {
	return Vector3{X: v.X * o.X, Y: v.Y * o.Y, Z: v.Z * o.Z}
}

func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vector3) Div(o Vector3) Vector3 {
	return Vector3{X: v.X / o.X, Y: v.Y / o.Y, Z: v.Z / o.Z}
}

func (v Vector3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vector3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

func (v Vector3) DistanceSquared(o Vector3) float64 {
	return v.Sub(o).LengthSquared()
}

func (v Vector3) Distance(o Vector3) float64 {
	return math.Sqrt(v.DistanceSquared(o))
}

func (v Vector3) Normalize() Vector3 {
	return v.Scale(1 / v.Length())
}

func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		X: v.Y*o.Z - o.Y*v.Z,
		Y: v.Z*o.X - o.Z*v.X,
		Z: v.X*o.Y - o.X*v.Y,
	}
}

// Angle returns the angle between v and o in radians.
func (v Vector3) Angle(o Vector3) float64 {
	return math.Acos(v.Dot(o) / math.Sqrt(v.LengthSquared()*o.LengthSquared()))
}

func (v Vector3) Midpoint(o Vector3) Vector3 {
	return Vector3{X: (v.X + o.X) / 2, Y: (v.Y + o.Y) / 2, Z: (v.Z + o.Z) / 2}
}

func (v Vector3) InAABB(min, max Vector3) bool {
	return v.X >= min.X && v.X <= max.X &&
		v.Y >= min.Y && v.Y <= max.Y &&
		v.Z >= min.Z && v.Z <= max.Z
}

func (v Vector3) InSphere(origin Vector3, radius float64) bool {
	return v.DistanceSquared(origin) <= radius*radius
}

func (v Vector3) IsNormalized() bool {
	return math.Abs(v.LengthSquared()-1) < Epsilon
}

func (v Vector3) BlockX() int {
	return int(math.Floor(v.X))
}

func (v Vector3) BlockY() int {
	return int(math.Floor(v.Y))
}

func (v Vector3) BlockZ() int {
	return int(math.Floor(v.Z))
}

func (v Vector3) Equal(o Vector3) bool {
	return math.Abs(v.X-o.X) < Epsilon &&
		math.Abs(v.Y-o.Y) < Epsilon &&
		math.Abs(v.Z-o.Z) < Epsilon
}

func (v Vector3) String() string {
	return fmt.Sprintf("Vector3{X:%g,Y:%g,Z:%g}", v.X, v.Y, v.Z)
}

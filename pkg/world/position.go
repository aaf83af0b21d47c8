// Package world holds the world level value types shared between the
// protocol and gameplay code.
package world

import (
	"fmt"
	"math"

	"github.com/haveachin/barebones/pkg/vector"
)

const (
	PackedXMask = 0x3FFFFFF
	PackedYMask = 0xFFF
	PackedZMask = 0x3FFFFFF
)

// MaxHorizontalCoordinate is the largest absolute x or z an entity may
// occupy.
const MaxHorizontalCoordinate = 3.2e7

type BlockPosition struct {
	X, Y, Z int
}

// Pack encodes the position into the 64 bit protocol representation:
// 26 bits x, 26 bits z, 12 bits y.
func (p BlockPosition) Pack() int64 {
	return (int64(p.X)&PackedXMask)<<38 |
		(int64(p.Z)&PackedZMask)<<12 |
		int64(p.Y)&PackedYMask
}

// UnpackBlockPosition reverses Pack, sign extending each component.
func UnpackBlockPosition(v int64) BlockPosition {
	return BlockPosition{
		X: int(v >> 38),
		Y: int(v << 52 >> 52),
		Z: int(v << 26 >> 38),
	}
}

func (p BlockPosition) Vector() vector.Vector3 {
	return vector.Vector3{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

func (p BlockPosition) Offset(dx, dy, dz int) BlockPosition {
	return BlockPosition{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func (p BlockPosition) String() string {
	return fmt.Sprintf("BlockPosition{X:%d,Y:%d,Z:%d}", p.X, p.Y, p.Z)
}

// EntityPosition is a precise position with a rotation. Yaw is always kept
// in [-180, 180].
type EntityPosition struct {
	x, y, z    float64
	yaw, pitch float32
}

func NewEntityPosition(x, y, z float64, yaw, pitch float32) EntityPosition {
	return EntityPosition{
		x:     x,
		y:     y,
		z:     z,
		yaw:   fixYaw(yaw),
		pitch: pitch,
	}
}

// EntityPositionAt returns the position of the corner of a block.
func EntityPositionAt(p BlockPosition) EntityPosition {
	return NewEntityPosition(float64(p.X), float64(p.Y), float64(p.Z), 0, 0)
}

func (p EntityPosition) X() float64     { return p.x }
func (p EntityPosition) Y() float64     { return p.y }
func (p EntityPosition) Z() float64     { return p.z }
func (p EntityPosition) Yaw() float32   { return p.yaw }
func (p EntityPosition) Pitch() float32 { return p.pitch }

func (p EntityPosition) WithX(x float64) EntityPosition {
	p.x = x
	return p
}

func (p EntityPosition) WithY(y float64) EntityPosition {
	p.y = y
	return p
}

func (p EntityPosition) WithZ(z float64) EntityPosition {
	p.z = z
	return p
}

func (p EntityPosition) WithYaw(yaw float32) EntityPosition {
	p.yaw = fixYaw(yaw)
	return p
}

func (p EntityPosition) WithPitch(pitch float32) EntityPosition {
	p.pitch = pitch
	return p
}

// Direction returns the unit vector the position is facing.
func (p EntityPosition) Direction() vector.Vector3 {
	yaw := degToRad(float64(p.yaw))
	pitch := degToRad(float64(p.pitch))

	xz := math.Cos(pitch)
	return vector.Vector3{
		X: -xz * math.Sin(yaw),
		Y: -math.Sin(pitch),
		Z: xz * math.Cos(yaw),
	}
}

// WithDirection rotates the position to face along v. A vertical v only
// changes the pitch.
func (p EntityPosition) WithDirection(v vector.Vector3) EntityPosition {
	if v.X == 0 && v.Z == 0 {
		if v.Y > 0 {
			return p.WithPitch(-90)
		}
		return p.WithPitch(90)
	}

	const tau = 2 * math.Pi
	theta := math.Atan2(-v.X, v.Z)
	xz := math.Sqrt(v.X*v.X + v.Z*v.Z)

	return p.
		WithYaw(float32(radToDeg(math.Mod(theta+tau, tau)))).
		WithPitch(float32(radToDeg(math.Atan(-v.Y / xz))))
}

func (p EntityPosition) Offset(v vector.Vector3) EntityPosition {
	p.x += v.X
	p.y += v.Y
	p.z += v.Z
	return p
}

func (p EntityPosition) BlockX() int { return int(math.Floor(p.x)) }
func (p EntityPosition) BlockY() int { return int(math.Floor(p.y)) }
func (p EntityPosition) BlockZ() int { return int(math.Floor(p.z)) }

func (p EntityPosition) BlockPosition() BlockPosition {
	return BlockPosition{X: p.BlockX(), Y: p.BlockY(), Z: p.BlockZ()}
}

// Vector returns the block aligned coordinates as a vector.
func (p EntityPosition) Vector() vector.Vector3 {
	return p.BlockPosition().Vector()
}

// Rotation returns yaw and pitch as x and y.
func (p EntityPosition) Rotation() vector.Vector2 {
	return vector.Vector2{X: float64(p.yaw), Y: float64(p.pitch)}
}

func (p EntityPosition) WithRotation(r vector.Vector2) EntityPosition {
	return p.WithYaw(float32(r.X)).WithPitch(float32(r.Y))
}

// IsInvalid reports whether a client supplied position must be rejected.
func (p EntityPosition) IsInvalid() bool {
	if !isFinite(p.x) || !isFinite(p.y) || !isFinite(p.z) {
		return true
	}
	return math.Max(math.Abs(p.x), math.Abs(p.z)) > MaxHorizontalCoordinate
}

func (p EntityPosition) String() string {
	return fmt.Sprintf("EntityPosition{X:%g,Y:%g,Z:%g,Yaw:%g,Pitch:%g}",
		p.x, p.y, p.z, p.yaw, p.pitch)
}

func fixYaw(yaw float32) float32 {
	yaw = float32(math.Mod(float64(yaw), 360))
	if yaw < -180 {
		yaw += 360
	} else if yaw > 180 {
		yaw -= 360
	}
	return yaw
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

func radToDeg(r float64) float64 {
	return r * 180 / math.Pi
}

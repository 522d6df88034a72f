package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at position with the given rotation.
// The rotation is normalized and its inverse cached.
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	if rotation.Len() < 1e-12 {
		rotation = mgl64.QuatIdent()
	}
	rotation = rotation.Normalize()

	return Transform{
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Inverse(),
	}
}

// Translated returns a copy of the transform moved by offset
func (t Transform) Translated(offset mgl64.Vec3) Transform {
	t.Position = t.Position.Add(offset)
	return t
}

// ToWorld maps a local-space point to world space
func (t Transform) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(local).Add(t.Position)
}

// DirectionToLocal maps a world-space direction to local space
func (t Transform) DirectionToLocal(direction mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(direction)
}

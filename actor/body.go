package actor

import "github.com/go-gl/mathgl/mgl64"

// BodyID is the opaque entity handle reported by queries
type BodyID uint64

// NoBody is the zero handle, never assigned to a registered body
const NoBody BodyID = 0

// AllLayers makes a body collide with every query mask
const AllLayers uint32 = 0xFFFFFFFF

// BodyType represents how a body takes part in queries
type BodyType int

const (
	// BodyTypeStatic bodies are immovable level geometry (ground, walls, steps)
	BodyTypeStatic BodyType = iota

	// BodyTypeKinematic bodies are moved explicitly by their owner (characters, platforms)
	// They are never pushed by queries
	BodyTypeKinematic
)

// Collider is a shape placed at a transform.
// It provides the world-space support mapping used by GJK and EPA.
type Collider struct {
	Transform Transform
	Shape     ShapeInterface
}

// NewCollider places shape at position with the given rotation
func NewCollider(shape ShapeInterface, position mgl64.Vec3, rotation mgl64.Quat) Collider {
	return Collider{
		Transform: NewTransformAt(position, rotation),
		Shape:     shape,
	}
}

func (c Collider) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	// 1. Transformer la direction en espace local (rotation inverse)
	localDirection := c.Transform.DirectionToLocal(direction)

	// 2. Trouver le support en espace local
	localSupport := c.Shape.Support(localDirection)

	// 3. Transformer le point support en espace monde (rotation + translation)
	return c.Transform.ToWorld(localSupport)
}

func (c Collider) Center() mgl64.Vec3 {
	return c.Transform.Position
}

func (c Collider) ComputeAABB() AABB {
	return c.Shape.ComputeAABB(c.Transform)
}

// Body represents a collider registered in a world
type Body struct {
	Collider

	ID       BodyID
	BodyType BodyType
	// Layers is the membership bitmask tested against query masks
	Layers uint32
	// IsSensor bodies never block shape casts
	IsSensor bool

	aabb AABB
}

// NewBody creates a new body with the given properties
func NewBody(id BodyID, transform Transform, shape ShapeInterface, bodyType BodyType) *Body {
	if transform.Rotation.Len() < 1e-12 {
		transform.Rotation = mgl64.QuatIdent()
	}
	transform.InverseRotation = transform.Rotation.Inverse()

	b := &Body{
		Collider: Collider{Transform: transform, Shape: shape},
		ID:       id,
		BodyType: bodyType,
		Layers:   AllLayers,
	}
	b.aabb = shape.ComputeAABB(b.Transform)

	return b
}

// SetTransform moves the body and refreshes its bounding box
func (b *Body) SetTransform(transform Transform) {
	transform.InverseRotation = transform.Rotation.Inverse()
	b.Transform = transform
	b.aabb = b.Shape.ComputeAABB(b.Transform)
}

func (b *Body) GetAABB() AABB {
	return b.aabb
}

// IsPlane reports whether the body is an unbounded plane
func (b *Body) IsPlane() bool {
	_, ok := b.Shape.(*Plane)
	return ok
}

package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
	ShapeTypeCapsule
	ShapeTypeCylinder
)

// planeHalfSize bounds the support mapping of an infinite plane.
// Casts against planes are analytic, this only matters for GJK fallbacks.
const planeHalfSize = 1000.0

// ShapeInterface is the interface that all collision shapes must implement.
// Shapes are immutable descriptions in local space, so the same shape value can be
// placed at any number of transforms concurrently.
type ShapeInterface interface {
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform) AABB
	// Support returns the furthest local-space point of the shape along direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	Type() ShapeType
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

func (b *Box) ComputeAABB(transform Transform) AABB {
	corners := [8]mgl64.Vec3{
		{-b.HalfExtents.X(), -b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{+b.HalfExtents.X(), -b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{-b.HalfExtents.X(), +b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{+b.HalfExtents.X(), +b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{-b.HalfExtents.X(), -b.HalfExtents.Y(), +b.HalfExtents.Z()},
		{+b.HalfExtents.X(), -b.HalfExtents.Y(), +b.HalfExtents.Z()},
		{-b.HalfExtents.X(), +b.HalfExtents.Y(), +b.HalfExtents.Z()},
		{+b.HalfExtents.X(), +b.HalfExtents.Y(), +b.HalfExtents.Z()},
	}

	worldCorner := transform.ToWorld(corners[0])
	min := worldCorner
	max := worldCorner

	for i := 1; i < 8; i++ {
		worldCorner = transform.ToWorld(corners[i])

		min[0] = math.Min(min[0], worldCorner[0])
		min[1] = math.Min(min[1], worldCorner[1])
		min[2] = math.Min(min[2], worldCorner[2])

		max[0] = math.Max(max[0], worldCorner[0])
		max[1] = math.Max(max[1], worldCorner[1])
		max[2] = math.Max(max[2], worldCorner[2])
	}

	return AABB{Min: min, Max: max}
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) AABB {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	return AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return safeNormalize(direction).Mul(s.Radius)
}

// Capsule is a segment of length 2*HalfHeight along the local Y axis, inflated by Radius.
// The total height is 2*(HalfHeight+Radius).
type Capsule struct {
	Radius     float64
	HalfHeight float64
}

func (c *Capsule) Type() ShapeType { return ShapeTypeCapsule }

func (c *Capsule) ComputeAABB(transform Transform) AABB {
	top := transform.ToWorld(mgl64.Vec3{0, c.HalfHeight, 0})
	bottom := transform.ToWorld(mgl64.Vec3{0, -c.HalfHeight, 0})
	r := mgl64.Vec3{c.Radius, c.Radius, c.Radius}

	return AABB{
		Min: mgl64.Vec3{math.Min(top[0], bottom[0]), math.Min(top[1], bottom[1]), math.Min(top[2], bottom[2])}.Sub(r),
		Max: mgl64.Vec3{math.Max(top[0], bottom[0]), math.Max(top[1], bottom[1]), math.Max(top[2], bottom[2])}.Add(r),
	}
}

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	tip := mgl64.Vec3{0, c.HalfHeight, 0}
	if direction.Y() < 0 {
		tip[1] = -c.HalfHeight
	}

	return tip.Add(safeNormalize(direction).Mul(c.Radius))
}

// Height returns the full extent of the capsule along its axis
func (c *Capsule) Height() float64 {
	return 2 * (c.HalfHeight + c.Radius)
}

// Cylinder is a flat-capped cylinder along the local Y axis.
// Its flat base and constant side angle make it a stable probe for ground and step tests.
type Cylinder struct {
	Radius     float64
	HalfHeight float64
}

// NewProbeCylinder returns a cylinder with the same radius and full height as the capsule
func NewProbeCylinder(capsule *Capsule) *Cylinder {
	return &Cylinder{
		Radius:     capsule.Radius,
		HalfHeight: capsule.HalfHeight + capsule.Radius,
	}
}

func (c *Cylinder) Type() ShapeType { return ShapeTypeCylinder }

func (c *Cylinder) ComputeAABB(transform Transform) AABB {
	// Bound the rotated cylinder by the extent of its axis segment plus the disc radius
	// projected on each world axis.
	axis := transform.Rotation.Rotate(mgl64.Vec3{0, 1, 0})
	extent := mgl64.Vec3{
		math.Abs(axis[0])*c.HalfHeight + c.Radius*math.Sqrt(math.Max(0, 1-axis[0]*axis[0])),
		math.Abs(axis[1])*c.HalfHeight + c.Radius*math.Sqrt(math.Max(0, 1-axis[1]*axis[1])),
		math.Abs(axis[2])*c.HalfHeight + c.Radius*math.Sqrt(math.Max(0, 1-axis[2]*axis[2])),
	}

	return AABB{
		Min: transform.Position.Sub(extent),
		Max: transform.Position.Add(extent),
	}
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	result := mgl64.Vec3{0, c.HalfHeight, 0}
	if direction.Y() < 0 {
		result[1] = -c.HalfHeight
	}

	radial := mgl64.Vec3{direction.X(), 0, direction.Z()}
	if length := radial.Len(); length > 1e-12 {
		result = result.Add(radial.Mul(c.Radius / length))
	}

	return result
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal
type Plane struct {
	Normal   mgl64.Vec3 // Plane normal (must be normalized)
	Distance float64    // Plane constant (signed distance from origin)
}

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

func (p *Plane) ComputeAABB(transform Transform) AABB {
	const thickness = 1.0 // épaisseur de détection du plan
	const infinity = 1e10 // grande valeur pour les dimensions infinies

	normal := transform.Rotation.Rotate(p.Normal)
	planePoint := normal.Mul(-p.Distance).Add(transform.Position)

	min := planePoint.Sub(normal.Mul(thickness))
	max := planePoint

	for i := 0; i < 3; i++ {
		if min[i] > max[i] {
			min[i], max[i] = max[i], min[i]
		}
		// For NON-dominant axes, extend to infinity
		if math.Abs(normal[i]) < 1.0 {
			min[i] = -infinity
			max[i] = infinity
		}
	}

	return AABB{Min: min, Max: max}
}

// Support treats the plane as a large slab lying below its surface
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	tangent1, tangent2 := TangentBasis(p.Normal)

	result := p.Normal.Mul(-p.Distance)
	if direction.Dot(tangent1) < 0 {
		result = result.Sub(tangent1.Mul(planeHalfSize))
	} else {
		result = result.Add(tangent1.Mul(planeHalfSize))
	}
	if direction.Dot(tangent2) < 0 {
		result = result.Sub(tangent2.Mul(planeHalfSize))
	} else {
		result = result.Add(tangent2.Mul(planeHalfSize))
	}
	if direction.Dot(p.Normal) <= 0 {
		result = result.Sub(p.Normal.Mul(0.5))
	}

	return result
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

// safeNormalize returns a unit vector, or +Y for a zero or non-finite input
func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	length := v.Len()
	if length < 1e-12 || math.IsNaN(length) || math.IsInf(length, 0) {
		return mgl64.Vec3{0, 1, 0}
	}
	return v.Mul(1.0 / length)
}

package kcc

import (
	"math"

	"github.com/akmonengine/kinematic/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Ground is the walkable surface a character stands on.
type Ground struct {
	Entity actor.BodyID
	// Normal is the unit surface normal
	Normal mgl64.Vec3
	// Distance is the safe distance down to the surface when the ground was found by a probe
	Distance float64
}

// IsWalkable reports whether a surface with the given normal can be stood on:
// the angle between up and normal must be strictly below walkableAngle.
// Zero, NaN and infinite normals are never walkable.
func IsWalkable(normal, up mgl64.Vec3, walkableAngle float64) bool {
	n, ok := unitDirection(normal)
	if !ok {
		return false
	}
	u, ok := unitDirection(up)
	if !ok {
		return false
	}

	return angleBetween(u, n) < walkableAngle
}

// angleBetween returns the angle between two unit vectors, in [0, π]
func angleBetween(a, b mgl64.Vec3) float64 {
	return math.Acos(mgl64.Clamp(a.Dot(b), -1, 1))
}

// NewGroundIfWalkable returns a Ground for the surface, or nil when it is not walkable.
func NewGroundIfWalkable(entity actor.BodyID, normal mgl64.Vec3, distance float64, up mgl64.Vec3, walkableAngle float64) *Ground {
	if !IsWalkable(normal, up, walkableAngle) {
		return nil
	}

	n, _ := unitDirection(normal)
	return &Ground{Entity: entity, Normal: n, Distance: distance}
}

// FindGround sweeps shape down against up by maxDistance and returns the walkable
// ground below it, or nil.
func FindGround(query SpatialQuery, shape actor.ShapeInterface, origin mgl64.Vec3, rotation mgl64.Quat, up mgl64.Vec3, maxDistance, epsilon, walkableAngle float64, filter QueryFilter) *Ground {
	safeDistance, hit, ok := Sweep(query, shape, origin, rotation, up.Mul(-1), maxDistance, epsilon, filter)
	if !ok {
		return nil
	}

	return NewGroundIfWalkable(hit.Entity, hit.Normal, safeDistance, up, walkableAngle)
}

// Package kcc resolves the movement of a kinematic character against static geometry.
//
// A resolve sweeps the character collider along its velocity, stops just short of the
// first surface, and slides the remaining motion along the accumulated contact planes.
// Walkable surfaces are classified as ground, and short obstructions can be climbed with
// a two-sweep step probe.
//
// The package never touches a physics world directly: every geometric question goes
// through a SpatialQuery, so the same code runs against the real world or a test double.
package kcc

import (
	"slices"

	"github.com/akmonengine/kinematic/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ShapeCastConfig parametrizes one shape cast.
type ShapeCastConfig struct {
	// MaxDistance is the farthest travel along the direction
	MaxDistance float64
	// TargetDistance is the separation at which the cast reports contact
	TargetDistance float64
	// IgnoreOriginPenetration skips bodies the shape already touches at the origin
	// when the motion does not move into them
	IgnoreOriginPenetration bool
}

// Hit is the first contact found by a shape cast.
type Hit struct {
	// Normal points from the hit surface toward the moving shape
	Normal mgl64.Vec3
	// Distance travelled along the direction
	Distance float64
	Entity   actor.BodyID
	// Point is the contact point on the hit body
	Point mgl64.Vec3
}

// SpatialQuery sweeps shapes through a physics world.
// Implementations must be safe for concurrent reads when resolves run in parallel.
type SpatialQuery interface {
	CastShape(shape actor.ShapeInterface, origin mgl64.Vec3, rotation mgl64.Quat, direction mgl64.Vec3, config ShapeCastConfig, filter QueryFilter) (Hit, bool)
}

// QueryFilter selects the bodies a query may hit.
type QueryFilter struct {
	// Excluded bodies are never hit, typically the character itself
	Excluded []actor.BodyID
	// Mask is tested against the body layers, zero means every layer
	Mask uint32
}

// DefaultQueryFilter hits every body on every layer
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Mask: actor.AllLayers}
}

// WithExcluded returns a copy of the filter that also excludes ids.
func (f QueryFilter) WithExcluded(ids ...actor.BodyID) QueryFilter {
	f.Excluded = append(slices.Clip(f.Excluded), ids...)
	return f
}

// WithMask returns a copy of the filter restricted to mask.
func (f QueryFilter) WithMask(mask uint32) QueryFilter {
	f.Mask = mask
	return f
}

// Allows reports whether a body with the given id and layers passes the filter.
func (f QueryFilter) Allows(id actor.BodyID, layers uint32) bool {
	if f.Mask != 0 && f.Mask&layers == 0 {
		return false
	}
	return !slices.Contains(f.Excluded, id)
}

// Package cast sweeps a convex shape along a straight line against a single body.
//
// Convex targets use conservative advancement over the GJK closest-distance query:
// the supporting plane of the closest features bounds how far the shape can travel
// before the separation drops to the target distance, so each step is safe and the
// sequence converges on the contact from the free side.
//
// Planes are solved analytically. Overlaps at the start of the cast are oriented with EPA.
package cast

import (
	"math"

	"github.com/akmonengine/kinematic/actor"
	"github.com/akmonengine/kinematic/epa"
	"github.com/akmonengine/kinematic/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations bounds conservative advancement.
	// Head-on contacts converge in 1-3 steps, grazing ones take longer.
	MaxIterations = 32

	// Tolerance is how close to the target separation a step must land to count as contact
	Tolerance = 1e-6

	// ExhaustedTolerance is how close to the target separation the shape must be when
	// the iterations run out for the cast to still count as a hit
	ExhaustedTolerance = 1e-3

	// minApproach is the smallest closing speed (per unit travel) still treated as approaching
	minApproach = 1e-9
)

// Config controls a single cast.
type Config struct {
	// MaxDistance is the farthest travel along the direction, inclusive
	MaxDistance float64
	// TargetDistance is the separation at which the cast reports contact
	TargetDistance float64
	// IgnoreOriginPenetration skips a body the shape already touches at the origin
	// when the motion does not move into it
	IgnoreOriginPenetration bool
	// MaxIterations bounds conservative advancement, MaxIterations when zero
	MaxIterations int
}

// Hit describes the first contact along a cast.
type Hit struct {
	// Distance travelled along the unit direction when the separation reaches the target
	Distance float64
	// Normal is the unit surface normal, pointing from the hit body toward the moving shape
	Normal mgl64.Vec3
	// Point is the closest point on the hit body
	Point mgl64.Vec3
}

// Shape casts shape, placed at origin with rotation, along direction against target.
// direction is normalized internally. A zero, NaN or infinite direction never hits.
func Shape(shape actor.ShapeInterface, origin mgl64.Vec3, rotation mgl64.Quat, direction mgl64.Vec3, target *actor.Body, config Config) (Hit, bool) {
	length := direction.Len()
	if length < 1e-12 || math.IsNaN(length) || math.IsInf(length, 0) {
		return Hit{}, false
	}
	direction = direction.Mul(1.0 / length)

	if config.MaxDistance < 0 || math.IsNaN(config.MaxDistance) {
		return Hit{}, false
	}

	moving := actor.NewCollider(shape, origin, rotation)
	if target.IsPlane() {
		return againstPlane(moving, direction, target, config)
	}
	return againstConvex(moving, direction, target, config)
}

func againstConvex(moving actor.Collider, direction mgl64.Vec3, target *actor.Body, config Config) (Hit, bool) {
	iterations := config.MaxIterations
	if iterations <= 0 {
		iterations = MaxIterations
	}

	travelled := 0.0
	var last gjk.DistanceResult

	for i := 0; i < iterations; i++ {
		result := gjk.Distance(moving, target)

		if result.Overlap {
			if travelled == 0 {
				return originPenetration(moving, direction, target, config)
			}
			// Numerical overshoot: report the last separated position
			return Hit{Distance: travelled, Normal: last.Normal, Point: last.PointB}, true
		}
		last = result

		if travelled == 0 && result.Distance <= config.TargetDistance {
			if config.IgnoreOriginPenetration && direction.Dot(result.Normal) >= 0 {
				return Hit{}, false
			}
			return Hit{Distance: 0, Normal: result.Normal, Point: result.PointB}, true
		}

		gap := result.Distance - config.TargetDistance
		if gap <= Tolerance {
			return Hit{Distance: travelled, Normal: result.Normal, Point: result.PointB}, true
		}

		approach := -direction.Dot(result.Normal)
		if approach <= minApproach {
			return Hit{}, false
		}

		travelled += gap / approach
		if travelled > config.MaxDistance {
			return Hit{}, false
		}

		moving.Transform = moving.Transform.Translated(direction.Mul(gap / approach))
	}

	// Out of iterations while still closing in. The position reached is collision free,
	// but it is only a contact when it lies at the target separation.
	result := gjk.Distance(moving, target)
	if result.Overlap {
		return Hit{Distance: travelled, Normal: last.Normal, Point: last.PointB}, true
	}
	if result.Distance-config.TargetDistance > ExhaustedTolerance {
		return Hit{}, false
	}
	return Hit{Distance: travelled, Normal: result.Normal, Point: result.PointB}, true
}

// originPenetration handles a shape that overlaps target before moving.
func originPenetration(moving actor.Collider, direction mgl64.Vec3, target *actor.Body, config Config) (Hit, bool) {
	normal := penetrationNormal(moving, target)

	if config.IgnoreOriginPenetration && direction.Dot(normal) >= 0 {
		return Hit{}, false
	}

	return Hit{Distance: 0, Normal: normal, Point: moving.Center()}, true
}

func penetrationNormal(moving actor.Collider, target *actor.Body) mgl64.Vec3 {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if gjk.Intersect(moving, target, simplex) {
		// A non-converged polytope still carries its best face
		penetration, _ := epa.EPA(moving, target, simplex)
		if penetration.Normal.LenSqr() > 0.5 {
			return penetration.Normal
		}
	}

	normal := moving.Center().Sub(target.Center())
	if length := normal.Len(); length > 1e-9 {
		return normal.Mul(1.0 / length)
	}
	return mgl64.Vec3{0, 1, 0}
}

// againstPlane is the analytic one-sided cast: the solid half-space lies behind the normal.
func againstPlane(moving actor.Collider, direction mgl64.Vec3, target *actor.Body, config Config) (Hit, bool) {
	plane := target.Shape.(*actor.Plane)

	normal := target.Transform.Rotation.Rotate(plane.Normal).Normalize()
	surface := target.Transform.ToWorld(plane.Normal.Mul(-plane.Distance))

	deepest := moving.SupportWorld(normal.Mul(-1))
	separation := normal.Dot(deepest.Sub(surface))
	approach := -direction.Dot(normal)

	if separation <= config.TargetDistance {
		if config.IgnoreOriginPenetration && approach <= 0 {
			return Hit{}, false
		}
		return Hit{Distance: 0, Normal: normal, Point: projectOnPlane(deepest, normal, surface)}, true
	}

	if approach <= minApproach {
		return Hit{}, false
	}

	distance := (separation - config.TargetDistance) / approach
	if distance > config.MaxDistance {
		return Hit{}, false
	}

	contact := deepest.Add(direction.Mul(distance))
	return Hit{Distance: distance, Normal: normal, Point: projectOnPlane(contact, normal, surface)}, true
}

func projectOnPlane(point, normal, surface mgl64.Vec3) mgl64.Vec3 {
	return point.Sub(normal.Mul(normal.Dot(point.Sub(surface))))
}

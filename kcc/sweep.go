package kcc

import (
	"math"

	"github.com/akmonengine/kinematic/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Sweep casts shape from origin along direction for up to maxDistance, keeping a skin
// of epsilon between the shape and any surface.
//
// The cast is extended by epsilon and targets a separation of epsilon, so the shape may
// graze a surface but never embed in it. Bodies the shape already touches at the origin
// are ignored unless the motion moves into them.
//
// It returns the distance that can be travelled safely and the hit. ok is false when
// nothing is hit, or when direction or maxDistance are degenerate.
func Sweep(query SpatialQuery, shape actor.ShapeInterface, origin mgl64.Vec3, rotation mgl64.Quat, direction mgl64.Vec3, maxDistance, epsilon float64, filter QueryFilter) (safeDistance float64, hit Hit, ok bool) {
	direction, valid := unitDirection(direction)
	if !valid || !(maxDistance > 0) || math.IsInf(maxDistance, 0) {
		return 0, Hit{}, false
	}

	hit, ok = query.CastShape(shape, origin, rotation, direction, ShapeCastConfig{
		MaxDistance:             maxDistance + epsilon,
		TargetDistance:          epsilon,
		IgnoreOriginPenetration: true,
	}, filter)
	if !ok {
		return 0, Hit{}, false
	}

	return math.Max(hit.Distance-epsilon, 0), hit, true
}

// unitDirection normalizes v, rejecting zero and non-finite vectors.
func unitDirection(v mgl64.Vec3) (mgl64.Vec3, bool) {
	direction, length := directionAndLength(v)
	return direction, length > 0
}

// directionAndLength splits v into a unit direction and its length.
// The length is zero for degenerate vectors.
func directionAndLength(v mgl64.Vec3) (mgl64.Vec3, float64) {
	length := v.Len()
	if !(length > minLength) || math.IsInf(length, 0) {
		return mgl64.Vec3{}, 0
	}
	return v.Mul(1.0 / length), length
}

// minLength is the shortest vector accepted as a direction
const minLength = 1e-9

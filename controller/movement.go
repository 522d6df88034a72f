package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Acceleration returns the velocity change that accelerates toward targetSpeed along
// direction, at most maxAcceleration*dt. Speed already above the target along direction
// is kept, never reduced. direction is normalized, a zero direction gives no acceleration.
func Acceleration(velocity, direction mgl64.Vec3, maxAcceleration, targetSpeed, dt float64) mgl64.Vec3 {
	length := direction.Len()
	if !(length > 1e-9) || math.IsInf(length, 0) {
		return mgl64.Vec3{}
	}
	direction = direction.Mul(1.0 / length)

	currentSpeed := velocity.Dot(direction)
	if currentSpeed >= targetSpeed {
		return mgl64.Vec3{}
	}

	return direction.Mul(math.Min(targetSpeed-currentSpeed, maxAcceleration*dt))
}

// Friction returns the velocity change of a constant deceleration against velocity.
// The decay is exponential so the velocity never reverses.
func Friction(velocity mgl64.Vec3, friction, dt float64) mgl64.Vec3 {
	speedSqr := velocity.LenSqr()
	if speedSqr < 1e-4 {
		return mgl64.Vec3{}
	}

	factor := math.Exp(-friction / math.Sqrt(speedSqr) * dt)
	return velocity.Mul(-(1 - factor))
}

// normalizeOrZero returns the unit vector of v, or zero for degenerate vectors
func normalizeOrZero(v mgl64.Vec3) mgl64.Vec3 {
	length := v.Len()
	if !(length > 1e-9) || math.IsInf(length, 0) {
		return mgl64.Vec3{}
	}
	return v.Mul(1.0 / length)
}

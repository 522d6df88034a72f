package kcc

import (
	"math"

	"github.com/akmonengine/kinematic/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// StepConfig parametrizes step climbing.
type StepConfig struct {
	// StepUpHeight is the tallest riser that can be climbed
	StepUpHeight float64
	// GroundCheckDistance is added to the lift so the landing probe reaches the step top
	GroundCheckDistance float64
	// Epsilon is the skin kept by every probe sweep
	Epsilon float64
	// WalkableAngle is the steepest landing accepted, in radians
	WalkableAngle float64
}

// DefaultStepConfig returns the tuning used by the bundled controller
func DefaultStepConfig() StepConfig {
	return StepConfig{
		StepUpHeight:        0.25,
		GroundCheckDistance: 0.1,
		Epsilon:             DefaultEpsilon,
		WalkableAngle:       math.Pi / 4,
	}
}

// StepResult is a successful step.
type StepResult struct {
	// Translation is the position on top of the step
	Translation mgl64.Vec3
	// Normal of the landing surface
	Normal mgl64.Vec3
	Entity actor.BodyID
	// Height climbed along up
	Height float64
}

// TryClimbStep probes whether motion can continue over a short obstruction.
//
// The probe is raised by StepUpHeight+GroundCheckDistance (less if a ceiling is closer),
// swept along the horizontal part of motion, then swept back down to find the step top.
// It fails when the forward sweep hits anything, when the down sweep finds nothing or a
// non-walkable surface, and when the landing is not above the starting position.
//
// Call it only for a grounded character blocked by a non-walkable hit. shape is usually a
// flat-bottomed probe such as actor.NewProbeCylinder of the character capsule. On success
// the caller should remove the up component of the velocity.
func TryClimbStep(query SpatialQuery, shape actor.ShapeInterface, translation, motion mgl64.Vec3, rotation mgl64.Quat, up mgl64.Vec3, config StepConfig, filter QueryFilter) (StepResult, bool) {
	u, ok := unitDirection(up)
	if !ok {
		return StepResult{}, false
	}

	lift := config.StepUpHeight + config.GroundCheckDistance
	if !(lift > 0) {
		return StepResult{}, false
	}

	horizontal := RemoveUpComponent(motion, u)
	direction, distance := directionAndLength(horizontal)
	if distance == 0 {
		return StepResult{}, false
	}

	// Headroom: a low ceiling limits the lift
	if safe, _, hit := Sweep(query, shape, translation, rotation, u, lift, config.Epsilon, filter); hit {
		lift = safe
		if lift <= config.Epsilon {
			return StepResult{}, false
		}
	}
	raised := translation.Add(u.Mul(lift))

	if _, _, hit := Sweep(query, shape, raised, rotation, direction, distance, config.Epsilon, filter); hit {
		// Taller than the climbable height
		return StepResult{}, false
	}

	advanced := raised.Add(horizontal)
	drop, hit, ok := Sweep(query, shape, advanced, rotation, u.Mul(-1), lift, config.Epsilon, filter)
	if !ok {
		return StepResult{}, false
	}
	if !IsWalkable(hit.Normal, u, config.WalkableAngle) {
		return StepResult{}, false
	}

	height := lift - drop
	if height <= 0 {
		return StepResult{}, false
	}

	normal, _ := unitDirection(hit.Normal)
	return StepResult{
		Translation: advanced.Sub(u.Mul(drop)),
		Normal:      normal,
		Entity:      hit.Entity,
		Height:      height,
	}, true
}

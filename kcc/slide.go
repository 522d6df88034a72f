package kcc

import (
	"errors"
	"fmt"

	"github.com/akmonengine/kinematic/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaxSubsteps bounds the sweeps of one resolve
	DefaultMaxSubsteps = 4
	// DefaultEpsilon is the skin width kept between the collider and surfaces
	DefaultEpsilon = 0.01
)

// ErrInvalidConfig is wrapped by every configuration validation error
var ErrInvalidConfig = errors.New("kcc: invalid configuration")

// MoveAndSlideConfig parametrizes MoveAndSlide.
type MoveAndSlideConfig struct {
	// MaxSubsteps is the maximum number of sweeps per resolve
	MaxSubsteps int
	// Epsilon is the skin width
	Epsilon float64
	// ConstrainOriginalDirection keeps the resolved velocity from ever pointing
	// against the direction the resolve started with. It rejects that component after
	// each solve against the real planes; the original direction is never filtered
	// as a plane of its own.
	ConstrainOriginalDirection bool
}

// DefaultMoveAndSlideConfig returns 4 substeps with a 0.01 skin
func DefaultMoveAndSlideConfig() MoveAndSlideConfig {
	return MoveAndSlideConfig{
		MaxSubsteps: DefaultMaxSubsteps,
		Epsilon:     DefaultEpsilon,
	}
}

// Validate reports every invalid field.
func (c MoveAndSlideConfig) Validate() error {
	var errs []error
	if c.MaxSubsteps < 1 {
		errs = append(errs, fmt.Errorf("%w: max substeps must be at least 1, got %d", ErrInvalidConfig, c.MaxSubsteps))
	}
	if !(c.Epsilon > 0) {
		errs = append(errs, fmt.Errorf("%w: epsilon must be positive, got %v", ErrInvalidConfig, c.Epsilon))
	}
	return errors.Join(errs...)
}

// Decision tells MoveAndSlide what to do after a hit.
type Decision uint8

const (
	// Slide inserts the slide normal into the contact planes and solves the velocity
	Slide Decision = iota
	// SkipSlide keeps the velocity as left by the handler
	SkipSlide
	// Stop ends the resolve
	Stop
)

func (d Decision) String() string {
	switch d {
	case Slide:
		return "slide"
	case SkipSlide:
		return "skip"
	case Stop:
		return "stop"
	}
	return "unknown"
}

// SlideContext is handed to the HitHandler for each hit.
// Translation, Velocity, Normal and RemainingTime may be overridden.
type SlideContext struct {
	Hit Hit

	// Translation is the position after advancing to the hit
	Translation mgl64.Vec3
	Velocity    mgl64.Vec3
	// Normal is the plane slid along, the hit normal unless overridden
	Normal mgl64.Vec3

	Substep int
	// IncomingMotion is the motion requested by this substep
	IncomingMotion mgl64.Vec3
	// RemainingMotion is the part of IncomingMotion that was not travelled
	RemainingMotion mgl64.Vec3
	RemainingTime   float64
}

// HitHandler reacts to the hits of a resolve.
type HitHandler interface {
	OnHit(ctx *SlideContext) Decision
}

// HitHandlerFunc adapts a function to HitHandler
type HitHandlerFunc func(ctx *SlideContext) Decision

func (f HitHandlerFunc) OnHit(ctx *SlideContext) Decision {
	return f(ctx)
}

// MoveAndSlideResult is the outcome of a resolve.
type MoveAndSlideResult struct {
	Translation mgl64.Vec3
	Velocity    mgl64.Vec3
	// Substeps is the number of sweeps performed
	Substeps int
	// Hits is the number of substeps that hit a surface
	Hits int
	// Classification of the contact planes at the end of the resolve
	Classification Classification
}

// MoveAndSlide moves shape from translation by velocity*dt, sliding along the surfaces it meets.
//
// Each substep sweeps the remaining motion. Without a hit the full motion is applied and the
// resolve ends. On a hit the shape advances to the safe distance, the remaining time shrinks
// by the fraction travelled, and handler decides how to continue. Sliding feeds the normal to
// a SlidePlanes set and replaces the velocity with the solved one. The resolve stops early
// once the velocity no longer moves along the starting direction.
//
// handler may be nil. A zero velocity or non-positive dt returns the inputs unchanged.
func MoveAndSlide(query SpatialQuery, shape actor.ShapeInterface, translation, velocity mgl64.Vec3, rotation mgl64.Quat, config MoveAndSlideConfig, filter QueryFilter, dt float64, handler HitHandler) MoveAndSlideResult {
	result := MoveAndSlideResult{Translation: translation, Velocity: velocity}

	originalDirection, ok := unitDirection(velocity)
	if !ok || !(dt > 0) {
		return result
	}

	maxSubsteps := config.MaxSubsteps
	if maxSubsteps < 1 {
		maxSubsteps = DefaultMaxSubsteps
	}

	var planes SlidePlanes
	if config.ConstrainOriginalDirection {
		planes.SeedOriginalDirection(originalDirection)
	}

	remainingTime := dt
	for substep := 0; substep < maxSubsteps; substep++ {
		motion := velocity.Mul(remainingTime)
		direction, distance := directionAndLength(motion)
		if distance == 0 {
			break
		}
		result.Substeps++

		safe, hit, ok := Sweep(query, shape, translation, rotation, direction, distance, config.Epsilon, filter)
		if !ok {
			translation = translation.Add(motion)
			break
		}
		result.Hits++

		safe = min(safe, distance)
		translation = translation.Add(direction.Mul(safe))
		remainingTime *= 1 - safe/distance

		ctx := SlideContext{
			Hit:             hit,
			Translation:     translation,
			Velocity:        velocity,
			Normal:          hit.Normal,
			Substep:         substep,
			IncomingMotion:  motion,
			RemainingMotion: direction.Mul(distance - safe),
			RemainingTime:   remainingTime,
		}

		decision := Slide
		if handler != nil {
			decision = handler.OnHit(&ctx)
		}
		translation = ctx.Translation
		velocity = ctx.Velocity
		remainingTime = ctx.RemainingTime

		if decision == Stop {
			break
		}
		if decision == Slide {
			planes.Insert(ctx.Normal)
			velocity = planes.Solve(velocity)
		}

		// Quake-style early out against tiny oscillations in sloped corners
		if velocity.Dot(originalDirection) <= 0 {
			break
		}
	}

	result.Translation = translation
	result.Velocity = velocity
	result.Classification = planes.Classification()
	return result
}

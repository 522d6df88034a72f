package controller

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/kinematic/actor"
	"github.com/akmonengine/kinematic/kcc"
)

// ErrInvalidConfig is wrapped by every configuration validation error
var ErrInvalidConfig = errors.New("controller: invalid configuration")

// Config holds the movement tuning of a character.
// Distances are in meters, speeds in m/s, accelerations in m/s² and angles in radians.
type Config struct {
	Gravity            float64
	GroundAcceleration float64
	AirAcceleration    float64
	// Friction is the deceleration applied against the velocity while grounded
	Friction      float64
	JumpImpulse   float64
	MovementSpeed float64

	WalkableAngle       float64
	StepUpHeight        float64
	GroundCheckDistance float64

	MaxSubsteps                int
	Epsilon                    float64
	ConstrainOriginalDirection bool

	CharacterRadius     float64
	CharacterHalfHeight float64
}

// DefaultConfig returns the tuning of the example character: a 0.35 m capsule
// walking at 8 m/s under 20 m/s² of gravity.
func DefaultConfig() Config {
	return Config{
		Gravity:             20,
		GroundAcceleration:  100,
		AirAcceleration:     40,
		Friction:            60,
		JumpImpulse:         6,
		MovementSpeed:       8,
		WalkableAngle:       math.Pi / 4,
		StepUpHeight:        0.25,
		GroundCheckDistance: 0.1,
		MaxSubsteps:         kcc.DefaultMaxSubsteps,
		Epsilon:             kcc.DefaultEpsilon,
		CharacterRadius:     0.35,
		CharacterHalfHeight: 0.5,
	}
}

// MoveAndSlide returns the resolver settings
func (c Config) MoveAndSlide() kcc.MoveAndSlideConfig {
	return kcc.MoveAndSlideConfig{
		MaxSubsteps:                c.MaxSubsteps,
		Epsilon:                    c.Epsilon,
		ConstrainOriginalDirection: c.ConstrainOriginalDirection,
	}
}

// Step returns the step climbing settings
func (c Config) Step() kcc.StepConfig {
	return kcc.StepConfig{
		StepUpHeight:        c.StepUpHeight,
		GroundCheckDistance: c.GroundCheckDistance,
		Epsilon:             c.Epsilon,
		WalkableAngle:       c.WalkableAngle,
	}
}

// Capsule returns the character collider
func (c Config) Capsule() *actor.Capsule {
	return &actor.Capsule{Radius: c.CharacterRadius, HalfHeight: c.CharacterHalfHeight}
}

// Validate reports every invalid field, including the resolver settings.
func (c Config) Validate() error {
	var errs []error

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"gravity", c.Gravity},
		{"ground acceleration", c.GroundAcceleration},
		{"air acceleration", c.AirAcceleration},
		{"friction", c.Friction},
		{"jump impulse", c.JumpImpulse},
		{"movement speed", c.MovementSpeed},
		{"step up height", c.StepUpHeight},
		{"ground check distance", c.GroundCheckDistance},
		{"character half height", c.CharacterHalfHeight},
	}
	for _, field := range nonNegative {
		if !(field.value >= 0) || math.IsInf(field.value, 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidConfig, field.name, field.value))
		}
	}

	if !(c.CharacterRadius > 0) || math.IsInf(c.CharacterRadius, 0) {
		errs = append(errs, fmt.Errorf("%w: character radius must be positive, got %v", ErrInvalidConfig, c.CharacterRadius))
	}
	if !(c.WalkableAngle > 0 && c.WalkableAngle <= math.Pi/2) {
		errs = append(errs, fmt.Errorf("%w: walkable angle must be in (0, π/2], got %v", ErrInvalidConfig, c.WalkableAngle))
	}

	if err := c.MoveAndSlide().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	return errors.Join(errs...)
}

// Package controller moves a character with the kcc resolver.
//
// Each tick applies jumping, friction or gravity and a Quake-style acceleration to the
// velocity, then resolves the motion with kcc.MoveAndSlide. Walkable hits turn the velocity
// along the surface at the same speed, so ramps are walked without slowing down. Blocked
// grounded characters try to climb the obstruction as a step and slide along it when they
// cannot. Characters that found no walkable surface during the resolve probe the ground
// below them and snap to it.
package controller

import (
	"github.com/akmonengine/kinematic/actor"
	"github.com/akmonengine/kinematic/kcc"
	"github.com/go-gl/mathgl/mgl64"
)

// Character is the state a controller carries from one tick to the next.
type Character struct {
	// Position of the capsule center
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Velocity mgl64.Vec3
	// Ground is nil while airborne
	Ground *kcc.Ground
	// Up is the world up direction, +Y when zero
	Up mgl64.Vec3
}

// NewCharacter returns an airborne character at position
func NewCharacter(position mgl64.Vec3) Character {
	return Character{
		Position: position,
		Rotation: mgl64.QuatIdent(),
		Up:       mgl64.Vec3{0, 1, 0},
	}
}

// Grounded reports whether the character stands on walkable ground
func (c *Character) Grounded() bool {
	return c.Ground != nil
}

func (c *Character) up() mgl64.Vec3 {
	if up := normalizeOrZero(c.Up); up != (mgl64.Vec3{}) {
		return up
	}
	return mgl64.Vec3{0, 1, 0}
}

// Input is the movement requested for one tick.
type Input struct {
	// Direction is the world-space wish direction, its length is ignored
	Direction mgl64.Vec3
	Jump      bool
}

// TickReport summarizes what happened during a tick.
type TickReport struct {
	Jumped     bool
	Landed     bool
	LeftGround bool
	SteppedUp  bool
	// StepHeight is the total height climbed by steps
	StepHeight float64
	// Snapped is set when the fallback ground probe moved the character down
	Snapped        bool
	Substeps       int
	Hits           int
	Classification kcc.Classification
}

// Controller applies a Config to characters.
type Controller struct {
	config Config
	shape  *actor.Capsule
	probe  *actor.Cylinder
}

// New creates a controller. The config is expected to be valid, see Config.Validate.
func New(config Config) *Controller {
	c := &Controller{}
	c.SetConfig(config)
	return c
}

// SetConfig replaces the tuning and rebuilds the colliders.
// It must not be called concurrently with Tick.
func (c *Controller) SetConfig(config Config) {
	c.config = config
	c.shape = config.Capsule()
	c.probe = actor.NewProbeCylinder(c.shape)
}

func (c *Controller) Config() Config {
	return c.config
}

// Shape returns the character capsule
func (c *Controller) Shape() *actor.Capsule {
	return c.shape
}

// Tick advances ch by dt. query is only read, so ticks of different characters may run
// in parallel against the same world.
func (c *Controller) Tick(query kcc.SpatialQuery, ch *Character, input Input, filter kcc.QueryFilter, dt float64) TickReport {
	var report TickReport
	if !(dt > 0) {
		return report
	}

	up := ch.up()
	wasGrounded := ch.Ground != nil

	if input.Jump && ch.Ground != nil {
		ch.Velocity = ch.Velocity.Add(up.Mul(c.config.JumpImpulse))
		ch.Ground = nil
		report.Jumped = true
	}

	direction := input.Direction
	maxAcceleration := c.config.AirAcceleration
	if ch.Ground != nil {
		normal := ch.Ground.Normal
		ch.Velocity = ch.Velocity.Add(Friction(ch.Velocity, c.config.Friction, dt))

		// never move into the floor, the jump height would depend on it
		if into := ch.Velocity.Dot(normal); into < 0 {
			ch.Velocity = ch.Velocity.Sub(normal.Mul(into))
		}

		// accelerate along the floor, keeping the heading of the input
		direction = kcc.ProjectMotionOnGround(direction, normal, up)
		maxAcceleration = c.config.GroundAcceleration
	} else {
		ch.Velocity = ch.Velocity.Sub(up.Mul(c.config.Gravity * dt))
	}

	ch.Velocity = ch.Velocity.Add(Acceleration(ch.Velocity, direction, maxAcceleration, c.config.MovementSpeed, dt))

	handler := &tickHandler{
		controller: c,
		query:      query,
		character:  ch,
		filter:     filter,
		up:         up,
		report:     &report,
	}
	result := kcc.MoveAndSlide(query, c.shape, ch.Position, ch.Velocity, ch.Rotation, c.config.MoveAndSlide(), filter, dt, handler)
	ch.Position = result.Translation
	ch.Velocity = result.Velocity
	report.Substeps = result.Substeps
	report.Hits = result.Hits
	report.Classification = result.Classification

	// The jump tick must not be pulled back onto the floor it leaves
	if !handler.grounded && !report.Jumped {
		ground := kcc.FindGround(query, c.shape, ch.Position, ch.Rotation, up, c.config.GroundCheckDistance, c.config.Epsilon, c.config.WalkableAngle, filter)
		if ground != nil {
			ch.Position = ch.Position.Sub(up.Mul(ground.Distance))
			report.Snapped = ground.Distance > 0
		}
		ch.Ground = ground
	}

	report.Landed = !wasGrounded && ch.Ground != nil
	report.LeftGround = wasGrounded && ch.Ground == nil
	return report
}

// tickHandler classifies the hits of one resolve and climbs steps
type tickHandler struct {
	controller *Controller
	query      kcc.SpatialQuery
	character  *Character
	filter     kcc.QueryFilter
	up         mgl64.Vec3
	report     *TickReport

	grounded bool
}

func (h *tickHandler) OnHit(ctx *kcc.SlideContext) kcc.Decision {
	config := h.controller.config

	if ground := kcc.NewGroundIfWalkable(ctx.Hit.Entity, ctx.Hit.Normal, 0, h.up, config.WalkableAngle); ground != nil {
		h.grounded = true
		h.character.Ground = ground
		ctx.Velocity = kcc.ProjectMotionOnGround(ctx.Velocity, ground.Normal, h.up)
		return kcc.SkipSlide
	}

	// Only a grounded character blocked by a wall may step up
	if h.character.Ground == nil {
		return kcc.Slide
	}

	step, ok := kcc.TryClimbStep(h.query, h.controller.probe, ctx.Translation, ctx.RemainingMotion, h.character.Rotation, h.up, config.Step(), h.filter)
	if !ok {
		// slide along the wall without climbing it
		ctx.Velocity = kcc.ProjectMotion(ctx.Velocity, ctx.Hit.Normal, h.up, config.WalkableAngle)
		return kcc.Slide
	}

	// The rounded capsule bottom pushes up against the riser, keeping that would launch the character
	ctx.Velocity = kcc.RemoveUpComponent(ctx.Velocity, h.up)
	ctx.Translation = step.Translation
	// the step travelled the whole remaining motion
	ctx.RemainingTime = 0
	h.report.SteppedUp = true
	h.report.StepHeight += step.Height

	ground := kcc.FindGround(h.query, h.controller.probe, ctx.Translation, h.character.Rotation, h.up, config.GroundCheckDistance, config.Epsilon, config.WalkableAngle, h.filter)
	if ground == nil {
		h.character.Ground = nil
		return kcc.SkipSlide
	}

	h.grounded = true
	h.character.Ground = ground
	ctx.Velocity = kcc.ProjectMotionOnGround(ctx.Velocity, ground.Normal, h.up)
	return kcc.SkipSlide
}

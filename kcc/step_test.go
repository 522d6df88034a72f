package kcc

import (
	"testing"

	"github.com/akmonengine/kinematic/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func stepTestConfig() StepConfig {
	return StepConfig{
		StepUpHeight:        0.25,
		GroundCheckDistance: 0.1,
		Epsilon:             0.01,
		WalkableAngle:       degrees(45),
	}
}

func TestTryClimbStep(t *testing.T) {
	probe := actor.NewProbeCylinder(testCapsule())
	// Probe bottom rests 0.01 above the floor
	start := mgl64.Vec3{0, 0.86, 0}
	motion := mgl64.Vec3{1, 0, 0}

	t.Run("low step is climbed", func(t *testing.T) {
		query := &bodiesQuery{}
		query.addPlane(worldUp, mgl64.Vec3{})
		step := query.addBox(mgl64.Vec3{2, 0.1, 0}, mgl64.Vec3{1, 0.1, 2})

		result, ok := TryClimbStep(query, probe, start, motion, mgl64.QuatIdent(), worldUp, stepTestConfig(), DefaultQueryFilter())
		if !ok {
			t.Fatal("expected the step to be climbed")
		}
		if result.Entity != step.ID {
			t.Errorf("Entity = %d, want the step %d", result.Entity, step.ID)
		}
		if !vec3Near(result.Translation, mgl64.Vec3{1, 1.07, 0}, 1e-6) {
			t.Errorf("Translation = %v, want (1,1.07,0)", result.Translation)
		}
		if !floatNear(result.Height, 0.21, 1e-6) {
			t.Errorf("Height = %v, want 0.21", result.Height)
		}
		if !IsWalkable(result.Normal, worldUp, degrees(45)) {
			t.Errorf("landing normal %v is not walkable", result.Normal)
		}
	})

	t.Run("tall step is a wall", func(t *testing.T) {
		query := &bodiesQuery{}
		query.addPlane(worldUp, mgl64.Vec3{})
		query.addBox(mgl64.Vec3{2, 0.25, 0}, mgl64.Vec3{1, 0.25, 2})

		if _, ok := TryClimbStep(query, probe, start, motion, mgl64.QuatIdent(), worldUp, stepTestConfig(), DefaultQueryFilter()); ok {
			t.Error("a 0.5 riser must not be climbed")
		}
	})

	t.Run("obstruction at probe height", func(t *testing.T) {
		query := &bodiesQuery{}
		query.addPlane(worldUp, mgl64.Vec3{})
		query.addBox(mgl64.Vec3{2, 0.1, 0}, mgl64.Vec3{1, 0.1, 2})
		query.addBox(mgl64.Vec3{1.5, 1.5, 0}, mgl64.Vec3{0.5, 1.2, 2})

		if _, ok := TryClimbStep(query, probe, start, motion, mgl64.QuatIdent(), worldUp, stepTestConfig(), DefaultQueryFilter()); ok {
			t.Error("the forward sweep should be blocked")
		}
	})

	t.Run("gap ahead", func(t *testing.T) {
		query := &bodiesQuery{}
		query.addBox(mgl64.Vec3{-5, -0.5, 0}, mgl64.Vec3{5.5, 0.5, 5})

		if _, ok := TryClimbStep(query, probe, start, mgl64.Vec3{2, 0, 0}, mgl64.QuatIdent(), worldUp, stepTestConfig(), DefaultQueryFilter()); ok {
			t.Error("nothing to land on")
		}
	})

	t.Run("no horizontal motion", func(t *testing.T) {
		query := &scriptedQuery{}
		if _, ok := TryClimbStep(query, probe, start, mgl64.Vec3{0, -3, 0}, mgl64.QuatIdent(), worldUp, stepTestConfig(), DefaultQueryFilter()); ok {
			t.Error("vertical motion cannot step")
		}
		if len(query.requests) != 0 {
			t.Errorf("expected no cast, got %d", len(query.requests))
		}
	})
}

func TestTryClimbStep_Scripted(t *testing.T) {
	probe := actor.NewProbeCylinder(testCapsule())
	motion := mgl64.Vec3{0, 0, 0.5}

	t.Run("steep landing", func(t *testing.T) {
		query := &scriptedQuery{answers: []scriptedAnswer{
			{},
			{},
			{hit: Hit{Distance: 0.2, Normal: slopeNormal(degrees(60))}, ok: true},
		}}
		if _, ok := TryClimbStep(query, probe, mgl64.Vec3{}, motion, mgl64.QuatIdent(), worldUp, stepTestConfig(), DefaultQueryFilter()); ok {
			t.Error("a steep landing is not a step")
		}
	})

	t.Run("landing not above the start", func(t *testing.T) {
		query := &scriptedQuery{answers: []scriptedAnswer{
			{},
			{},
			{hit: Hit{Distance: 0.4, Normal: worldUp}, ok: true},
		}}
		if _, ok := TryClimbStep(query, probe, mgl64.Vec3{}, motion, mgl64.QuatIdent(), worldUp, stepTestConfig(), DefaultQueryFilter()); ok {
			t.Error("a flat landing is not a step")
		}
	})

	t.Run("low ceiling limits the lift", func(t *testing.T) {
		query := &scriptedQuery{answers: []scriptedAnswer{
			{hit: Hit{Distance: 0.2, Normal: mgl64.Vec3{0, -1, 0}}, ok: true},
			{},
			{hit: Hit{Distance: 0.1, Normal: worldUp, Entity: 9}, ok: true},
		}}

		result, ok := TryClimbStep(query, probe, mgl64.Vec3{}, motion, mgl64.QuatIdent(), worldUp, stepTestConfig(), DefaultQueryFilter())
		if !ok {
			t.Fatal("expected a step")
		}
		if len(query.requests) != 3 {
			t.Fatalf("expected 3 casts, got %d", len(query.requests))
		}

		forward := query.requests[1]
		if !vec3Near(forward.origin, mgl64.Vec3{0, 0.19, 0}, 1e-12) {
			t.Errorf("forward sweep origin = %v, want lifted by 0.19", forward.origin)
		}
		if !vec3Near(forward.direction, mgl64.Vec3{0, 0, 1}, 1e-12) {
			t.Errorf("forward sweep direction = %v", forward.direction)
		}

		down := query.requests[2]
		if !floatNear(down.config.MaxDistance, 0.2, 1e-12) {
			t.Errorf("down sweep reach = %v, want 0.2", down.config.MaxDistance)
		}
		if !vec3Near(result.Translation, mgl64.Vec3{0, 0.1, 0.5}, 1e-12) || !floatNear(result.Height, 0.1, 1e-12) || result.Entity != 9 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("ceiling touching the head", func(t *testing.T) {
		query := &scriptedQuery{answers: []scriptedAnswer{
			{hit: Hit{Distance: 0.005, Normal: mgl64.Vec3{0, -1, 0}}, ok: true},
		}}
		if _, ok := TryClimbStep(query, probe, mgl64.Vec3{}, motion, mgl64.QuatIdent(), worldUp, stepTestConfig(), DefaultQueryFilter()); ok {
			t.Error("no room to lift")
		}
	})
}

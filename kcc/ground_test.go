package kcc

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func slopeNormal(angle float64) mgl64.Vec3 {
	// Surface rising toward +Z
	return mgl64.Vec3{0, math.Cos(angle), -math.Sin(angle)}
}

func TestIsWalkable(t *testing.T) {
	walkableAngle := degrees(45)

	tests := []struct {
		name     string
		normal   mgl64.Vec3
		up       mgl64.Vec3
		expected bool
	}{
		{"flat floor", worldUp, worldUp, true},
		{"unnormalized floor", mgl64.Vec3{0, 3, 0}, worldUp, true},
		{"20 degree slope", slopeNormal(degrees(20)), worldUp, true},
		{"50 degree slope", slopeNormal(degrees(50)), worldUp, false},
		{"vertical wall", mgl64.Vec3{-1, 0, 0}, worldUp, false},
		{"ceiling", mgl64.Vec3{0, -1, 0}, worldUp, false},
		{"zero normal", mgl64.Vec3{}, worldUp, false},
		{"NaN normal", mgl64.Vec3{math.NaN(), 1, 0}, worldUp, false},
		{"infinite normal", mgl64.Vec3{0, math.Inf(1), 0}, worldUp, false},
		{"zero up", worldUp, mgl64.Vec3{}, false},
		{"sideways up", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWalkable(tt.normal, tt.up, walkableAngle); got != tt.expected {
				t.Errorf("IsWalkable(%v) = %v, want %v", tt.normal, got, tt.expected)
			}
		})
	}
}

func TestIsWalkable_Boundary(t *testing.T) {
	for _, angle := range []float64{degrees(10), degrees(30), degrees(45), degrees(60)} {
		normal := slopeNormal(angle)

		n, _ := unitDirection(normal)
		exact := angleBetween(worldUp, n)

		if IsWalkable(normal, worldUp, exact) {
			t.Errorf("angle %v: the boundary must not be walkable", exact)
		}
		if !IsWalkable(normal, worldUp, math.Nextafter(exact, math.Inf(1))) {
			t.Errorf("angle %v: just above the boundary must be walkable", exact)
		}
	}
}

func TestNewGroundIfWalkable(t *testing.T) {
	ground := NewGroundIfWalkable(7, mgl64.Vec3{0, 2, 0}, 0.05, worldUp, degrees(45))
	if ground == nil {
		t.Fatal("expected ground")
	}
	if ground.Entity != 7 || ground.Distance != 0.05 {
		t.Errorf("unexpected ground %+v", ground)
	}
	if !vec3Near(ground.Normal, worldUp, 1e-12) {
		t.Errorf("Normal = %v, want a unit normal", ground.Normal)
	}

	if NewGroundIfWalkable(7, mgl64.Vec3{-1, 0, 0}, 0, worldUp, degrees(45)) != nil {
		t.Error("a wall is not ground")
	}
	if NewGroundIfWalkable(7, mgl64.Vec3{math.NaN(), 0, 0}, 0, worldUp, degrees(45)) != nil {
		t.Error("a NaN normal is not ground")
	}
}

func TestFindGround(t *testing.T) {
	query := &bodiesQuery{}
	floor := query.addPlane(worldUp, mgl64.Vec3{})
	capsule := testCapsule()

	t.Run("ground within reach", func(t *testing.T) {
		ground := FindGround(query, capsule, mgl64.Vec3{0, 1, 0}, mgl64.QuatIdent(), worldUp, 0.2, 0.01, degrees(45), DefaultQueryFilter())
		if ground == nil {
			t.Fatal("expected ground")
		}
		if ground.Entity != floor.ID {
			t.Errorf("Entity = %d, want %d", ground.Entity, floor.ID)
		}
		// Bottom at 0.15, minus the cast target and the skin
		if !floatNear(ground.Distance, 0.13, 1e-9) {
			t.Errorf("Distance = %v, want 0.13", ground.Distance)
		}
	})

	t.Run("ground out of reach", func(t *testing.T) {
		if FindGround(query, capsule, mgl64.Vec3{0, 2, 0}, mgl64.QuatIdent(), worldUp, 0.2, 0.01, degrees(45), DefaultQueryFilter()) != nil {
			t.Error("expected no ground")
		}
	})

	t.Run("steep surface is not ground", func(t *testing.T) {
		steep := &bodiesQuery{}
		steep.addPlane(slopeNormal(degrees(60)), mgl64.Vec3{})
		if FindGround(steep, capsule, mgl64.Vec3{0, 2, 0}, mgl64.QuatIdent(), worldUp, 1, 0.01, degrees(45), DefaultQueryFilter()) != nil {
			t.Error("expected no ground on a 60 degree slope")
		}
	})
}

package kcc

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSlidePlanes_Insert(t *testing.T) {
	var planes SlidePlanes

	if c := planes.Classification(); c != PlaneNone {
		t.Fatalf("empty set classified as %v", c)
	}

	steps := []struct {
		name     string
		normal   mgl64.Vec3
		expected Classification
		inserted bool
	}{
		{"first wall", mgl64.Vec3{-1, 0, 0}, PlaneSingle, true},
		{"same wall again", mgl64.Vec3{-1, 0, 0.01}, PlaneSingle, false},
		{"degenerate normal", mgl64.Vec3{}, PlaneSingle, false},
		{"NaN normal", mgl64.Vec3{math.NaN(), 0, 0}, PlaneSingle, false},
		{"floor", mgl64.Vec3{0, 2, 0}, PlaneCrease, true},
		{"second wall", mgl64.Vec3{0, 0, -1}, PlaneCorner, true},
		{"a fourth plane", mgl64.Vec3{1, 0, 0}, PlaneCorner, false},
	}

	for _, step := range steps {
		classification, inserted := planes.Insert(step.normal)
		if classification != step.expected || inserted != step.inserted {
			t.Errorf("%s: Insert = (%v, %v), want (%v, %v)", step.name, classification, inserted, step.expected, step.inserted)
		}
	}

	if planes.Len() != MaxSlidePlanes {
		t.Fatalf("Len = %d, want %d", planes.Len(), MaxSlidePlanes)
	}

	normals := planes.Normals()
	for i := range normals {
		if !floatNear(normals[i].Len(), 1, 1e-12) {
			t.Errorf("normal %d is not unit: %v", i, normals[i])
		}
		for j := i + 1; j < len(normals); j++ {
			if normals[i].Dot(normals[j]) > SimilarNormalDot {
				t.Errorf("normals %d and %d are similar", i, j)
			}
		}
	}
}

func TestSlidePlanes_Solve(t *testing.T) {
	velocity := mgl64.Vec3{5, -2, 3}

	t.Run("no plane", func(t *testing.T) {
		var planes SlidePlanes
		if got := planes.Solve(velocity); got != velocity {
			t.Errorf("Solve = %v, want %v", got, velocity)
		}
	})

	t.Run("single plane removes the normal component", func(t *testing.T) {
		var planes SlidePlanes
		normal := mgl64.Vec3{-1, 1, 0}.Normalize()
		planes.Insert(normal)

		got := planes.Solve(velocity)
		if !floatNear(got.Dot(normal), 0, 1e-12) {
			t.Errorf("velocity still has %v along the normal", got.Dot(normal))
		}
		if !floatNear(got.Z(), 3, 1e-12) {
			t.Errorf("tangent component changed: %v", got)
		}
	})

	t.Run("crease follows the crease line", func(t *testing.T) {
		var planes SlidePlanes
		n1 := mgl64.Vec3{-1, 0, 0}
		n2 := mgl64.Vec3{0, 0, -1}.Add(mgl64.Vec3{-0.3, 0, 0}).Normalize()
		planes.Insert(n1)
		planes.Insert(n2)

		got := planes.Solve(velocity)
		crease := n1.Cross(n2).Normalize()
		if got.Cross(crease).Len() > 1e-12 {
			t.Errorf("velocity %v is not parallel to the crease %v", got, crease)
		}
		if !floatNear(got.Y(), -2, 1e-12) {
			t.Errorf("Solve = %v, want only the vertical component", got)
		}
	})

	t.Run("opposite planes fall back to the newest normal", func(t *testing.T) {
		var planes SlidePlanes
		planes.Insert(mgl64.Vec3{1, 0, 0})
		if _, ok := planes.Insert(mgl64.Vec3{-1, 0, 0}); !ok {
			t.Fatal("opposite normals are not similar")
		}

		got := planes.Solve(velocity)
		if !vec3Near(got, mgl64.Vec3{0, -2, 3}, 1e-12) {
			t.Errorf("Solve = %v, want (0,-2,3)", got)
		}
	})

	t.Run("corner locks velocity", func(t *testing.T) {
		var planes SlidePlanes
		planes.Insert(mgl64.Vec3{-1, 0, 0})
		planes.Insert(mgl64.Vec3{0, 1, 0})
		planes.Insert(mgl64.Vec3{0, 0, -1})

		if got := planes.Solve(velocity); got != (mgl64.Vec3{}) {
			t.Errorf("Solve = %v, want zero", got)
		}
	})
}

func TestSlidePlanes_OriginalDirection(t *testing.T) {
	velocity := mgl64.Vec3{-0.2, 1, 1}
	ceiling := mgl64.Vec3{0, -1, 0}

	t.Run("unconstrained can turn back", func(t *testing.T) {
		var planes SlidePlanes
		planes.Insert(ceiling)
		if got := planes.Solve(velocity); !vec3Near(got, mgl64.Vec3{-0.2, 0, 1}, 1e-12) {
			t.Errorf("Solve = %v", got)
		}
	})

	t.Run("constrained never points against the start direction", func(t *testing.T) {
		var planes SlidePlanes
		if !planes.SeedOriginalDirection(mgl64.Vec3{3, 0, 0}) {
			t.Fatal("seed rejected")
		}
		planes.Insert(ceiling)

		got := planes.Solve(velocity)
		if !vec3Near(got, mgl64.Vec3{0, 0, 1}, 1e-12) {
			t.Errorf("Solve = %v, want (0,0,1)", got)
		}
		if planes.Classification() != PlaneSingle {
			t.Errorf("the virtual plane must not count, got %v", planes.Classification())
		}
	})

	t.Run("degenerate seed", func(t *testing.T) {
		var planes SlidePlanes
		if planes.SeedOriginalDirection(mgl64.Vec3{}) {
			t.Error("expected a zero direction to be rejected")
		}
	})
}

func TestClassificationString(t *testing.T) {
	names := map[Classification]string{
		PlaneNone:   "none",
		PlaneSingle: "plane",
		PlaneCrease: "crease",
		PlaneCorner: "corner",
	}
	for c, name := range names {
		if c.String() != name {
			t.Errorf("%d.String() = %q, want %q", c, c.String(), name)
		}
	}
}

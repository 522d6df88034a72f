package epa

import (
	"errors"
	"math"
	"testing"

	"github.com/akmonengine/kinematic/actor"
	"github.com/akmonengine/kinematic/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

func vec3ApproxEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func isNormalized(v mgl64.Vec3, tolerance float64) bool {
	return math.Abs(v.Len()-1.0) < tolerance
}

func createSphere(position mgl64.Vec3, radius float64) actor.Collider {
	return actor.NewCollider(&actor.Sphere{Radius: radius}, position, mgl64.QuatIdent())
}

func createBox(position mgl64.Vec3, halfExtents mgl64.Vec3) actor.Collider {
	return actor.NewCollider(&actor.Box{HalfExtents: halfExtents}, position, mgl64.QuatIdent())
}

func TestSnapNormalToAxis(t *testing.T) {
	tests := []struct {
		name     string
		input    mgl64.Vec3
		expected mgl64.Vec3
	}{
		{"small_x_component", mgl64.Vec3{1e-9, 1.0, 0.0}, mgl64.Vec3{0.0, 1.0, 0.0}},
		{"small_z_component", mgl64.Vec3{0.0, 1.0, 1e-9}, mgl64.Vec3{0.0, 1.0, 0.0}},
		{"already_axis_aligned", mgl64.Vec3{1.0, 0.0, 0.0}, mgl64.Vec3{1.0, 0.0, 0.0}},
		{"diagonal_normal", mgl64.Vec3{1.0, 1.0, 1.0}.Normalize(), mgl64.Vec3{1.0, 1.0, 1.0}.Normalize()},
		{"near_zero_vector", mgl64.Vec3{1e-9, 1e-9, 1e-9}, mgl64.Vec3{0.0, 1.0, 0.0}},
		{"unnormalized_input", mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := snapNormalToAxis(tt.input)

			if !vec3ApproxEqual(result, tt.expected, 1e-6) {
				t.Errorf("snapNormalToAxis(%v) = %v, want %v", tt.input, result, tt.expected)
			}
			if !isNormalized(result, 1e-6) {
				t.Errorf("result is not normalized: length = %v", result.Len())
			}
		})
	}
}

func TestEPA(t *testing.T) {
	tests := []struct {
		name   string
		a, b   gjk.Convex
		normal mgl64.Vec3
		depth  float64
	}{
		{
			name:   "spheres overlapping along x",
			a:      createSphere(mgl64.Vec3{0, 0, 0}, 1),
			b:      createSphere(mgl64.Vec3{1.5, 0, 0}, 1),
			normal: mgl64.Vec3{-1, 0, 0},
			depth:  0.5,
		},
		{
			name:   "box resting into box",
			a:      createBox(mgl64.Vec3{0.2, 1.8, -0.1}, mgl64.Vec3{1, 1, 1}),
			b:      createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 1, 2}),
			normal: mgl64.Vec3{0, 1, 0},
			depth:  0.2,
		},
		{
			name:   "sphere sunk into box top",
			a:      createSphere(mgl64.Vec3{0, 1.3, 0}, 0.5),
			b:      createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{3, 1, 3}),
			normal: mgl64.Vec3{0, 1, 0},
			depth:  0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := &gjk.Simplex{}
			if !gjk.Intersect(tt.a, tt.b, simplex) {
				t.Fatal("expected GJK to report an overlap")
			}

			result, err := EPA(tt.a, tt.b, simplex)
			if err != nil && !errors.Is(err, ErrNotConverged) {
				t.Fatalf("unexpected error: %v", err)
			}

			if !isNormalized(result.Normal, 1e-6) {
				t.Errorf("normal is not normalized: %v", result.Normal)
			}
			if result.Normal.Dot(tt.normal) < 0.95 {
				t.Errorf("Normal = %v, want close to %v", result.Normal, tt.normal)
			}
			if math.Abs(result.Depth-tt.depth) > 0.05 {
				t.Errorf("Depth = %v, want %v", result.Depth, tt.depth)
			}
		})
	}
}

func TestEPA_DegenerateSimplex(t *testing.T) {
	a := createBox(mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{1, 1, 1})
	b := createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})

	t.Run("segment simplex uses closest point", func(t *testing.T) {
		simplex := &gjk.Simplex{Count: 2}
		simplex.Points[0] = mgl64.Vec3{0, -0.3, 0}
		simplex.Points[1] = mgl64.Vec3{0, 1.5, 0}

		result, err := EPA(a, b, simplex)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !vec3ApproxEqual(result.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
			t.Errorf("Normal = %v, want (0,1,0)", result.Normal)
		}
		if math.Abs(result.Depth-0.3) > 1e-9 {
			t.Errorf("Depth = %v, want 0.3", result.Depth)
		}
	})

	t.Run("single point falls back to centers", func(t *testing.T) {
		simplex := &gjk.Simplex{Count: 1}

		result, err := EPA(a, b, simplex)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !vec3ApproxEqual(result.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
			t.Errorf("Normal = %v, want (0,1,0)", result.Normal)
		}
		if result.Depth != DegeneratePenetrationEstimate {
			t.Errorf("Depth = %v, want %v", result.Depth, DegeneratePenetrationEstimate)
		}
	})

	t.Run("coincident centers default to up", func(t *testing.T) {
		simplex := &gjk.Simplex{Count: 1}
		result, _ := EPA(b, b, simplex)
		if !vec3ApproxEqual(result.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
			t.Errorf("Normal = %v, want (0,1,0)", result.Normal)
		}
	})
}

func TestPolytopeBuilder(t *testing.T) {
	tetrahedron := &gjk.Simplex{Count: 4}
	tetrahedron.Points = [4]mgl64.Vec3{
		{3, -0.2, -3},
		{-3, -0.2, -3},
		{0, -0.2, 3},
		{0, 3, 0},
	}

	t.Run("initial faces point outward", func(t *testing.T) {
		builder := &PolytopeBuilder{}
		if err := builder.BuildInitialFaces(tetrahedron); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(builder.faces) != 4 {
			t.Fatalf("expected 4 faces, got %d", len(builder.faces))
		}
		for i, face := range builder.faces {
			if face.Distance <= 0 {
				t.Errorf("face %d has non-positive distance %v", i, face.Distance)
			}
			if face.Points[0].Dot(face.Normal) < 0 {
				t.Errorf("face %d normal %v points toward the origin", i, face.Normal)
			}
		}
	})

	t.Run("closest face is the bottom", func(t *testing.T) {
		builder := &PolytopeBuilder{}
		_ = builder.BuildInitialFaces(tetrahedron)

		face := builder.GetClosestFace()
		if face == nil {
			t.Fatal("expected a face")
		}
		if !vec3ApproxEqual(face.Normal, mgl64.Vec3{0, -1, 0}, 1e-9) {
			t.Errorf("Normal = %v, want (0,-1,0)", face.Normal)
		}
	})

	t.Run("invalid simplex", func(t *testing.T) {
		builder := &PolytopeBuilder{}
		if err := builder.BuildInitialFaces(&gjk.Simplex{Count: 3}); err == nil {
			t.Error("expected an error for a triangle simplex")
		}
	})

	t.Run("centroid ignores shared vertices", func(t *testing.T) {
		builder := &PolytopeBuilder{}
		_ = builder.BuildInitialFaces(tetrahedron)

		centroid := builder.calculateCentroid()
		if len(builder.uniquePoints) != 4 {
			t.Fatalf("expected 4 unique points, got %d", len(builder.uniquePoints))
		}
		if !vec3ApproxEqual(centroid, mgl64.Vec3{0, 0.6, -0.75}, 1e-9) {
			t.Errorf("centroid = %v, want (0,0.6,-0.75)", centroid)
		}
	})

	t.Run("expansion keeps a closed hull", func(t *testing.T) {
		builder := &PolytopeBuilder{}
		_ = builder.BuildInitialFaces(tetrahedron)

		closest := builder.FindClosestFaceIndex()
		builder.AddPointAndRebuildFaces(mgl64.Vec3{0, -2, 0}, closest)

		// The bottom face is replaced by three faces meeting at the new point
		if len(builder.faces) != 6 {
			t.Fatalf("expected 6 faces, got %d", len(builder.faces))
		}
		for i, face := range builder.faces {
			if face.Points[0].Dot(face.Normal) < 0 {
				t.Errorf("face %d normal %v points toward the origin", i, face.Normal)
			}
		}
	})
}

func TestCompareVec3(t *testing.T) {
	if compareVec3(mgl64.Vec3{0, 1, 2}, mgl64.Vec3{0, 1, 3}) >= 0 {
		t.Error("expected (0,1,2) < (0,1,3)")
	}
	if compareVec3(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 5, 5}) <= 0 {
		t.Error("expected (1,0,0) > (0,5,5)")
	}
	if compareVec3(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 3}) != 0 {
		t.Error("expected equality")
	}
}

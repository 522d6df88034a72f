// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA runs after GJK reports an overlap. It expands a polytope, seeded with the final
// GJK tetrahedron, toward the boundary of the Minkowski difference A - B until the face
// closest to the origin stops moving. That face gives the minimum translation that
// separates the two volumes.
//
// The character controller uses it only to orient a zero-distance hit when a cast
// starts in penetration.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/kinematic/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations limits polytope expansion.
	// Typical convergence: 5-15 iterations for simple shapes.
	EPAMaxIterations = 32

	// EPAConvergenceTolerance is reached when a new support point improves the
	// closest face distance by less than this amount.
	EPAConvergenceTolerance = 0.001

	// EPAMinFaceDistance is the minimum face distance before a face is skipped.
	EPAMinFaceDistance = 0.0001

	// NormalSnapThreshold clamps nearly-zero normal components to exactly zero.
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the depth reported when GJK produced
	// less than a tetrahedron.
	DegeneratePenetrationEstimate = 0.01

	polytopeInitialCapacity = 4
)

// ErrNotConverged is returned when the polytope did not settle within EPAMaxIterations
var ErrNotConverged = errors.New("epa: polytope did not converge")

// Penetration is the minimum translation separating two overlapping volumes.
type Penetration struct {
	// Normal is the unit direction to move A out of B
	Normal mgl64.Vec3
	// Depth is the distance to move A along Normal, always positive
	Depth float64
}

// EPA computes the penetration of two overlapping convex volumes.
//
// Algorithm overview:
//  1. Build the initial polytope from the GJK tetrahedron
//  2. Find the face closest to the origin
//  3. Get the support point along that face normal
//  4. If it does not extend the polytope past the face, done
//  5. Otherwise add the support point and rebuild the faces it sees
func EPA(a, b gjk.Convex, simplex *gjk.Simplex) (Penetration, error) {
	if simplex.Count < 4 {
		return degeneratePenetration(a, b, simplex), nil
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	if err := builder.BuildInitialFaces(simplex); err != nil {
		return Penetration{}, err
	}

	for i := 0; i < EPAMaxIterations; i++ {
		if len(builder.faces) == 0 {
			break
		}

		closestIndex := builder.FindClosestFaceIndex()
		closest := builder.faces[closestIndex]

		if closest.Distance < EPAMinFaceDistance && len(builder.faces) > 1 {
			builder.faces[closestIndex] = builder.faces[len(builder.faces)-1]
			builder.faces = builder.faces[:len(builder.faces)-1]
			continue
		}

		support := gjk.MinkowskiSupport(a, b, closest.Normal)
		if support.Dot(closest.Normal)-closest.Distance < EPAConvergenceTolerance {
			return closest.penetration(), nil
		}

		builder.AddPointAndRebuildFaces(support, closestIndex)
	}

	if face := builder.GetClosestFace(); face != nil {
		return face.penetration(), fmt.Errorf("%w after %d iterations", ErrNotConverged, EPAMaxIterations)
	}
	return Penetration{}, fmt.Errorf("%w after %d iterations", ErrNotConverged, EPAMaxIterations)
}

// degeneratePenetration estimates a penetration when GJK stopped on a point, a
// segment or a triangle. The vertex closest to the origin is the best available guess.
func degeneratePenetration(a, b gjk.Convex, simplex *gjk.Simplex) Penetration {
	if simplex.Count >= 2 {
		closest := simplex.Points[0]
		for i := 1; i < simplex.Count; i++ {
			if simplex.Points[i].LenSqr() < closest.LenSqr() {
				closest = simplex.Points[i]
			}
		}

		depth := closest.Len()
		if depth > NormalSnapThreshold {
			return Penetration{Normal: closest.Mul(-1.0 / depth), Depth: depth}
		}
	}

	// Push A away from the center of B
	normal := a.Center().Sub(b.Center())
	if length := normal.Len(); length < NormalSnapThreshold {
		normal = mgl64.Vec3{0, 1, 0}
	} else {
		normal = normal.Mul(1.0 / length)
	}

	return Penetration{Normal: normal, Depth: DegeneratePenetrationEstimate}
}

// snapNormalToAxis clamps nearly-zero components of a normal to zero and renormalizes,
// so axis-aligned contacts report exact axis normals.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length <= 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}

	return normal.Mul(1.0 / length)
}

// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm on support-mapped
// convex volumes.
//
// Two queries are provided:
//   - Intersect: boolean overlap test. On overlap the final simplex is a tetrahedron
//     enclosing the origin, which seeds EPA for the penetration normal.
//   - Distance: closest points and separation normal of disjoint volumes, the building
//     block of shape casting.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// IntersectMaxIterations is a safety limit, convergence takes 3-6 iterations in practice
const IntersectMaxIterations = 32

// Convex is a convex volume described by its world-space support mapping.
// actor.Collider and *actor.Body both satisfy it.
type Convex interface {
	SupportWorld(direction mgl64.Vec3) mgl64.Vec3
	Center() mgl64.Vec3
}

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// Size progression: 1 point → 2 points (line) → 3 points (triangle) → 4 points (tetrahedron)
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport computes a support point in the Minkowski difference (A - B):
// furthestPoint(A, direction) - furthestPoint(B, -direction)
func MinkowskiSupport(a, b Convex, direction mgl64.Vec3) mgl64.Vec3 {
	supportA := a.SupportWorld(direction)
	supportB := b.SupportWorld(direction.Mul(-1))
	return supportA.Sub(supportB)
}

// Intersect reports whether two convex volumes overlap.
// Touching shapes count as overlapping. The simplex is modified in place.
func Intersect(a, b Convex, simplex *Simplex) bool {
	// Starting toward the other shape typically reduces iterations
	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.Points[0] = MinkowskiSupport(a, b, direction)
	simplex.Count = 1

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true
	}

	for i := 0; i < IntersectMaxIterations; i++ {
		newPoint := MinkowskiSupport(a, b, direction)

		// The new point does not pass the origin: separation proven
		if newPoint.Dot(direction) <= 0 {
			return false
		}

		simplex.Points[simplex.Count] = newPoint
		simplex.Count++

		if refine(simplex, &direction) {
			return true
		}
	}

	return false
}

// refine reduces the simplex to its feature closest to the origin and updates the
// search direction. It returns true when the origin is enclosed.
func refine(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return refineLine(simplex, direction)
	case 3:
		return refineTriangle(simplex, direction)
	case 4:
		return refineTetrahedron(simplex, direction)
	}
	return false
}

func refineLine(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[1] // newest
	b := simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	if ab.Dot(ao) <= 0 {
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	abPerp := ab.Cross(ao).Cross(ab)
	if abPerp.LenSqr() < 1e-8 {
		// Origin lies on the segment
		return true
	}

	*direction = abPerp
	return false
}

func refineTriangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[2] // newest
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	abc := ab.Cross(ac)

	if abc.LenSqr() < 1e-10 {
		// Collinear: keep the newest edge
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		return refineLine(simplex, direction)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	if abc.Cross(ac).Dot(ao) > 0 {
		simplex.Points[0] = c
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if abc.Dot(ao) > 0 {
		*direction = abc
	} else {
		// Below: swap winding so the normal faces the origin
		simplex.Points[0] = a
		simplex.Points[1] = c
		simplex.Points[2] = b
		*direction = abc.Mul(-1)
	}

	return false
}

func refineTetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[3] // newest
	b := simplex.Points[2]
	c := simplex.Points[1]
	d := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// Face normals oriented away from the opposite vertex
	abc := ab.Cross(ac)
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}
	acd := ac.Cross(ad)
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}
	adb := ad.Cross(ab)
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}

	faces := [3]struct {
		normal mgl64.Vec3
		p0, p1 mgl64.Vec3
	}{
		{abc, c, b},
		{acd, d, c},
		{adb, b, d},
	}

	degenerate := abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10
	for i, face := range faces {
		if degenerate && i > 0 {
			break
		}
		if degenerate || face.normal.Dot(ao) > 0 {
			simplex.Points[0] = face.p0
			simplex.Points[1] = face.p1
			simplex.Points[2] = a
			simplex.Count = 3
			return refineTriangle(simplex, direction)
		}
	}

	return true
}

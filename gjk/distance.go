package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DistanceMaxIterations bounds the closest-point search.
	// Polytopes converge in a handful of iterations, curved shapes in 10-20.
	DistanceMaxIterations = 64

	// DistanceRelativeTolerance stops the search once a new support point improves
	// the squared distance by less than this fraction.
	DistanceRelativeTolerance = 1e-10

	// OverlapTolerance is the squared distance under which the shapes are considered touching
	OverlapTolerance = 1e-18
)

// SupportPoint is a vertex of the Minkowski difference A - B, with the two
// support points it was built from. The witnesses give the closest points on each shape.
type SupportPoint struct {
	W mgl64.Vec3 // A - B
	A mgl64.Vec3 // support point on A
	B mgl64.Vec3 // support point on B
}

// DistanceResult describes the closest features of two convex volumes
type DistanceResult struct {
	// Distance between the surfaces, zero when overlapping
	Distance float64
	// Normal is the unit separation direction pointing from B toward A.
	// It is zero when the shapes overlap.
	Normal mgl64.Vec3
	// PointA and PointB are the closest points on each shape
	PointA mgl64.Vec3
	PointB mgl64.Vec3
	// Overlap is true when the shapes intersect (or touch within OverlapTolerance)
	Overlap bool
}

func supportPoint(a, b Convex, direction mgl64.Vec3) SupportPoint {
	pa := a.SupportWorld(direction)
	pb := b.SupportWorld(direction.Mul(-1))
	return SupportPoint{W: pa.Sub(pb), A: pa, B: pb}
}

// distanceSimplex holds up to 4 support points and the barycentric weights of the
// point closest to the origin.
type distanceSimplex struct {
	points  [4]SupportPoint
	weights [4]float64
	count   int
}

func (s *distanceSimplex) closest() mgl64.Vec3 {
	var v mgl64.Vec3
	for i := 0; i < s.count; i++ {
		v = v.Add(s.points[i].W.Mul(s.weights[i]))
	}
	return v
}

func (s *distanceSimplex) witnesses() (mgl64.Vec3, mgl64.Vec3) {
	var pa, pb mgl64.Vec3
	for i := 0; i < s.count; i++ {
		pa = pa.Add(s.points[i].A.Mul(s.weights[i]))
		pb = pb.Add(s.points[i].B.Mul(s.weights[i]))
	}
	return pa, pb
}

func (s *distanceSimplex) contains(w mgl64.Vec3) bool {
	for i := 0; i < s.count; i++ {
		if s.points[i].W.Sub(w).LenSqr() < 1e-20 {
			return true
		}
	}
	return false
}

// Distance computes the distance between two convex volumes with the GJK
// closest-point iteration.
//
// Algorithm overview:
//  1. Seed the simplex with one support point of A - B
//  2. Find the point v of the simplex closest to the origin, reduce the simplex to the
//     smallest feature containing v
//  3. Add the support point in direction -v
//  4. Stop when the new point does not get closer to the origin than v
//
// The simplex reduction uses the Voronoi-region tests of Ericson,
// "Real-Time Collision Detection" (2004), sections 5.1.2 to 5.1.6.
func Distance(a, b Convex) DistanceResult {
	var s distanceSimplex

	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < 1e-12 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	s.points[0] = supportPoint(a, b, direction)
	s.weights[0] = 1
	s.count = 1
	v := s.points[0].W

	for i := 0; i < DistanceMaxIterations; i++ {
		vv := v.Dot(v)
		if vv < OverlapTolerance {
			return overlapResult(&s)
		}

		w := supportPoint(a, b, v.Mul(-1))

		// No progress possible: the support point is not closer than v along v
		if vv-v.Dot(w.W) <= DistanceRelativeTolerance*vv || s.contains(w.W) {
			break
		}

		previous := s
		s.points[s.count] = w
		s.count++

		if !reduce(&s) {
			// Origin enclosed by a tetrahedron
			return overlapResult(&s)
		}

		next := s.closest()
		if next.Dot(next) >= vv {
			// Numerical stall, keep the last consistent simplex
			s = previous
			break
		}
		v = next
	}

	distance := v.Len()
	if distance*distance < OverlapTolerance {
		return overlapResult(&s)
	}

	pa, pb := s.witnesses()
	return DistanceResult{
		Distance: distance,
		Normal:   v.Mul(1.0 / distance),
		PointA:   pa,
		PointB:   pb,
	}
}

func overlapResult(s *distanceSimplex) DistanceResult {
	pa, pb := s.witnesses()
	return DistanceResult{PointA: pa, PointB: pb, Overlap: true}
}

// reduce updates the simplex weights to the point closest to the origin and drops the
// vertices that do not contribute. It returns false when the origin lies inside the
// tetrahedron.
func reduce(s *distanceSimplex) bool {
	switch s.count {
	case 1:
		s.weights[0] = 1
	case 2:
		reduceSegment(s, 0, 1)
	case 3:
		reduceTriangle(s, 0, 1, 2)
	case 4:
		return reduceTetrahedron(s)
	}
	return true
}

// keep rewrites the simplex with the listed vertices and weights
func (s *distanceSimplex) keep(indices []int, weights []float64) {
	var points [4]SupportPoint
	for i, idx := range indices {
		points[i] = s.points[idx]
	}
	s.points = points
	s.count = len(indices)
	for i := range s.weights {
		s.weights[i] = 0
	}
	copy(s.weights[:], weights)
}

func reduceSegment(s *distanceSimplex, i, j int) {
	a := s.points[i].W
	b := s.points[j].W
	ab := b.Sub(a)

	denominator := ab.Dot(ab)
	if denominator < 1e-20 {
		s.keep([]int{i}, []float64{1})
		return
	}

	t := -a.Dot(ab) / denominator
	switch {
	case t <= 0:
		s.keep([]int{i}, []float64{1})
	case t >= 1:
		s.keep([]int{j}, []float64{1})
	default:
		s.keep([]int{i, j}, []float64{1 - t, t})
	}
}

// closestOnTriangle returns the barycentric weights of the point of triangle (a, b, c)
// closest to the origin, and which vertices are involved.
func closestOnTriangle(a, b, c mgl64.Vec3) (weights [3]float64, used [3]bool) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return [3]float64{1, 0, 0}, [3]bool{true, false, false}
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return [3]float64{0, 1, 0}, [3]bool{false, true, false}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 && d1-d3 > 0 {
		v := d1 / (d1 - d3)
		return [3]float64{1 - v, v, 0}, [3]bool{true, true, false}
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return [3]float64{0, 0, 1}, [3]bool{false, false, true}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 && d2-d6 > 0 {
		w := d2 / (d2 - d6)
		return [3]float64{1 - w, 0, w}, [3]bool{true, false, true}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 && (d4-d3)+(d5-d6) > 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return [3]float64{0, 1 - w, w}, [3]bool{false, true, true}
	}

	sum := va + vb + vc
	if math.Abs(sum) < 1e-30 {
		// Degenerate (collinear) triangle, fall back to the closest edge
		return closestOnDegenerateTriangle(a, b, c)
	}

	denominator := 1.0 / sum
	v := vb * denominator
	w := vc * denominator
	return [3]float64{1 - v - w, v, w}, [3]bool{true, true, true}
}

func closestOnDegenerateTriangle(a, b, c mgl64.Vec3) ([3]float64, [3]bool) {
	points := [3]mgl64.Vec3{a, b, c}
	edges := [3][2]int{{0, 1}, {0, 2}, {1, 2}}

	bestDistance := math.MaxFloat64
	var bestWeights [3]float64
	var bestUsed [3]bool

	for _, edge := range edges {
		p := points[edge[0]]
		q := points[edge[1]]
		pq := q.Sub(p)

		t := 0.0
		if denominator := pq.Dot(pq); denominator > 1e-20 {
			t = math.Max(0, math.Min(1, -p.Dot(pq)/denominator))
		}

		closest := p.Add(pq.Mul(t))
		if d := closest.Dot(closest); d < bestDistance {
			bestDistance = d
			bestWeights = [3]float64{}
			bestUsed = [3]bool{}
			bestWeights[edge[0]] = 1 - t
			bestWeights[edge[1]] = t
			bestUsed[edge[0]] = true
			bestUsed[edge[1]] = t > 0
		}
	}

	return bestWeights, bestUsed
}

func reduceTriangle(s *distanceSimplex, i, j, k int) {
	weights, used := closestOnTriangle(s.points[i].W, s.points[j].W, s.points[k].W)

	indices := make([]int, 0, 3)
	kept := make([]float64, 0, 3)
	for n, idx := range [3]int{i, j, k} {
		if used[n] {
			indices = append(indices, idx)
			kept = append(kept, weights[n])
		}
	}
	s.keep(indices, kept)
}

// originOutsidePlane reports whether the origin and the opposite vertex d lie on
// different sides of plane (a, b, c). Degenerate faces count as outside.
func originOutsidePlane(a, b, c, d mgl64.Vec3) bool {
	normal := b.Sub(a).Cross(c.Sub(a))
	signOrigin := a.Mul(-1).Dot(normal)
	signOpposite := d.Sub(a).Dot(normal)

	if math.Abs(signOpposite) < 1e-20 {
		return true
	}
	return signOrigin*signOpposite < 0
}

func reduceTetrahedron(s *distanceSimplex) bool {
	faces := [4][4]int{
		{0, 1, 2, 3},
		{0, 2, 3, 1},
		{0, 3, 1, 2},
		{1, 3, 2, 0},
	}

	bestDistance := math.MaxFloat64
	var best distanceSimplex
	outside := false

	for _, face := range faces {
		a := s.points[face[0]].W
		b := s.points[face[1]].W
		c := s.points[face[2]].W
		if !originOutsidePlane(a, b, c, s.points[face[3]].W) {
			continue
		}
		outside = true

		candidate := *s
		reduceTriangle(&candidate, face[0], face[1], face[2])
		closest := candidate.closest()
		if d := closest.Dot(closest); d < bestDistance {
			bestDistance = d
			best = candidate
		}
	}

	if !outside {
		for i := range s.weights {
			s.weights[i] = 0.25
		}
		return false
	}

	*s = best
	return true
}

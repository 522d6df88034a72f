package kcc

import "github.com/go-gl/mathgl/mgl64"

const (
	// MaxSlidePlanes is the number of distinct contact planes kept in one resolve
	MaxSlidePlanes = 3

	// SimilarNormalDot is the dot product above which two normals are the same plane
	SimilarNormalDot = 0.999
)

// Classification describes the contact situation of a SlidePlanes set.
type Classification uint8

const (
	// PlaneNone means no contact yet, velocity is free
	PlaneNone Classification = iota
	// PlaneSingle slides along one plane
	PlaneSingle
	// PlaneCrease constrains motion to the line where two planes meet
	PlaneCrease
	// PlaneCorner locks motion: three planes leave no valid direction
	PlaneCorner
)

func (c Classification) String() string {
	switch c {
	case PlaneNone:
		return "none"
	case PlaneSingle:
		return "plane"
	case PlaneCrease:
		return "crease"
	case PlaneCorner:
		return "corner"
	}
	return "unknown"
}

// SlidePlanes accumulates the distinct contact normals met during one resolve and
// solves velocity against them. The zero value is empty and ready to use.
//
// It is a value type with fixed storage: build a fresh one per resolve.
type SlidePlanes struct {
	normals [MaxSlidePlanes]mgl64.Vec3
	count   int

	// optional constraint keeping the solved velocity from turning against the
	// direction the resolve started with
	original    mgl64.Vec3
	hasOriginal bool
}

// SeedOriginalDirection adds the start direction of the resolve as a virtual
// constraint: Solve never returns a velocity pointing against it. The virtual plane
// does not count toward the classification. It returns false for a degenerate direction.
func (p *SlidePlanes) SeedOriginalDirection(direction mgl64.Vec3) bool {
	d, ok := unitDirection(direction)
	if !ok {
		return false
	}
	p.original = d
	p.hasOriginal = true
	return true
}

// Insert adds a contact normal.
// It returns the resulting classification, and false when the normal was rejected:
// degenerate, similar to a stored normal, or the set is already a corner.
func (p *SlidePlanes) Insert(normal mgl64.Vec3) (Classification, bool) {
	n, ok := unitDirection(normal)
	if !ok {
		return p.Classification(), false
	}

	for i := 0; i < p.count; i++ {
		if p.normals[i].Dot(n) > SimilarNormalDot {
			return p.Classification(), false
		}
	}

	if p.count == MaxSlidePlanes {
		return PlaneCorner, false
	}

	p.normals[p.count] = n
	p.count++
	return p.Classification(), true
}

// Len returns the number of stored normals
func (p *SlidePlanes) Len() int {
	return p.count
}

// Normals returns the stored normals in insertion order
func (p *SlidePlanes) Normals() []mgl64.Vec3 {
	return p.normals[:p.count]
}

// Classification returns the current contact situation
func (p *SlidePlanes) Classification() Classification {
	return Classification(p.count)
}

// Solve constrains velocity against the stored planes:
//   - plane: the component along the normal is removed
//   - crease: velocity is projected onto the crease line n1 × n2
//   - corner: velocity is zero
//
// When the newest two normals are parallel enough that their cross product vanishes,
// a crease falls back to a single-plane slide on the newest normal.
func (p *SlidePlanes) Solve(velocity mgl64.Vec3) mgl64.Vec3 {
	var solved mgl64.Vec3

	switch p.count {
	case 0:
		solved = velocity
	case 1:
		solved = rejectFrom(velocity, p.normals[0])
	case 2:
		crease, ok := unitDirection(p.normals[0].Cross(p.normals[1]))
		if !ok {
			solved = rejectFrom(velocity, p.normals[1])
		} else {
			solved = projectOnto(velocity, crease)
		}
	default:
		return mgl64.Vec3{}
	}

	if p.hasOriginal && solved.Dot(p.original) < 0 {
		solved = rejectFrom(solved, p.original)
		// Pulling back from the virtual plane must not push into a real one
		for i := 0; i < p.count; i++ {
			if solved.Dot(p.normals[i]) < -minLength {
				return mgl64.Vec3{}
			}
		}
	}

	return solved
}

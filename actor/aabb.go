package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Expand grows the box by margin on every side
func (a AABB) Expand(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Union returns the smallest box containing both boxes
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{
			math.Min(a.Min[0], other.Min[0]),
			math.Min(a.Min[1], other.Min[1]),
			math.Min(a.Min[2], other.Min[2]),
		},
		Max: mgl64.Vec3{
			math.Max(a.Max[0], other.Max[0]),
			math.Max(a.Max[1], other.Max[1]),
			math.Max(a.Max[2], other.Max[2]),
		},
	}
}

// Swept returns the box covering a translation of this box by motion.
// Used by the broad phase of shape casts.
func (a AABB) Swept(motion mgl64.Vec3) AABB {
	return a.Union(AABB{Min: a.Min.Add(motion), Max: a.Max.Add(motion)})
}

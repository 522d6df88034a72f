package kcc

import "github.com/go-gl/mathgl/mgl64"

// ProjectMotionOnGround re-aligns motion along a walkable slope.
//
// The vertical part (along up) is dropped when it points into the surface. The horizontal
// part keeps its magnitude and is turned along the slope, following the line of the
// surface that lies in the vertical plane of the motion. Walking up or down a ramp thus
// keeps the speed and heading of the motion.
//
// A degenerate normal or up returns motion unchanged.
func ProjectMotionOnGround(motion, normal, up mgl64.Vec3) mgl64.Vec3 {
	n, ok := unitDirection(normal)
	if !ok {
		return motion
	}
	u, ok := unitDirection(up)
	if !ok {
		return motion
	}

	vertical := u.Mul(motion.Dot(u))
	horizontal := motion.Sub(vertical)

	if vertical.Dot(n) < 0 {
		vertical = mgl64.Vec3{}
	}

	speed := horizontal.Len()
	if speed <= minLength {
		return vertical
	}

	tangent := horizontal.Cross(u)
	slope, ok := unitDirection(n.Cross(tangent))
	if !ok {
		// Normal aligned with the motion plane, nothing to follow
		return vertical.Add(horizontal)
	}

	return vertical.Add(slope.Mul(speed))
}

// ProjectMotionOnWall turns motion into a pure slide along a non-walkable surface.
//
// The vertical part is rejected from the wall normal so a steep slope cannot be climbed,
// and the horizontal part is projected onto the horizontal wall tangent (normal × up).
//
// A degenerate normal or up returns motion unchanged.
func ProjectMotionOnWall(motion, normal, up mgl64.Vec3) mgl64.Vec3 {
	n, ok := unitDirection(normal)
	if !ok {
		return motion
	}
	u, ok := unitDirection(up)
	if !ok {
		return motion
	}

	vertical := u.Mul(motion.Dot(u))
	horizontal := motion.Sub(vertical)

	vertical = rejectFrom(vertical, n)

	tangent, ok := unitDirection(n.Cross(u))
	if !ok {
		// Floor or ceiling facing straight along up
		return vertical.Add(rejectFrom(horizontal, n))
	}

	return vertical.Add(tangent.Mul(horizontal.Dot(tangent)))
}

// ProjectMotion picks the ground or wall projection from the walkability of normal.
func ProjectMotion(motion, normal, up mgl64.Vec3, walkableAngle float64) mgl64.Vec3 {
	if IsWalkable(normal, up, walkableAngle) {
		return ProjectMotionOnGround(motion, normal, up)
	}
	return ProjectMotionOnWall(motion, normal, up)
}

// RemoveUpComponent zeroes the part of v along up.
func RemoveUpComponent(v, up mgl64.Vec3) mgl64.Vec3 {
	u, ok := unitDirection(up)
	if !ok {
		return v
	}
	return v.Sub(u.Mul(v.Dot(u)))
}

// rejectFrom removes the component of v along the unit vector n
func rejectFrom(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}

// projectOnto keeps the component of v along the unit vector n
func projectOnto(v, n mgl64.Vec3) mgl64.Vec3 {
	return n.Mul(v.Dot(n))
}

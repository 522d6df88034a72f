// Package track builds static test geometry for characters: flat ground, walls, corners,
// ramps, stairs, crevices, ridges, low obstacles and narrow beams.
//
// Every builder places the top of the ground at y = 0 and returns static bodies ready to
// be registered in a world. Angles are in radians.
package track

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/akmonengine/kinematic/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Thickness of walls, ramps and crevice slabs
const Thickness = 0.5

// GroundHalfSize matches a 400 m square ground
const GroundHalfSize = 200.0

var ErrUnknownLayout = errors.New("track: unknown layout")

// IDSource allocates body ids
type IDSource func() actor.BodyID

// Builder accumulates the bodies of a track.
type Builder struct {
	ids    IDSource
	next   actor.BodyID
	bodies []*actor.Body
}

// NewBuilder returns a builder taking its ids from ids, or numbering bodies from 1 when ids is nil
func NewBuilder(ids IDSource) *Builder {
	return &Builder{ids: ids}
}

func (b *Builder) id() actor.BodyID {
	if b.ids != nil {
		return b.ids()
	}
	b.next++
	return b.next
}

// Bodies returns the bodies built so far, in creation order
func (b *Builder) Bodies() []*actor.Body {
	return slices.Clone(b.bodies)
}

// Box adds a static box
func (b *Builder) Box(center, halfExtents mgl64.Vec3, rotation mgl64.Quat) *actor.Body {
	body := actor.NewBody(b.id(), actor.NewTransformAt(center, rotation), &actor.Box{HalfExtents: halfExtents}, actor.BodyTypeStatic)
	b.bodies = append(b.bodies, body)
	return body
}

// Plane adds a one-sided static plane through point
func (b *Builder) Plane(normal, point mgl64.Vec3) *actor.Body {
	normal = normal.Normalize()
	shape := &actor.Plane{Normal: normal, Distance: -normal.Dot(point)}
	body := actor.NewBody(b.id(), actor.NewTransform(), shape, actor.BodyTypeStatic)
	b.bodies = append(b.bodies, body)
	return body
}

// Ground adds a 1 m thick square slab whose top face is at y = 0
func (b *Builder) Ground(halfSize float64) *actor.Body {
	return b.Box(mgl64.Vec3{0, -0.5, 0}, mgl64.Vec3{halfSize, 0.5, halfSize}, mgl64.QuatIdent())
}

// Wall adds a vertical slab standing on base.
// At zero yaw the wall runs along X and its faces look along ±Z.
func (b *Builder) Wall(base mgl64.Vec3, yaw, length, height float64) *actor.Body {
	center := base.Add(mgl64.Vec3{0, height / 2, 0})
	return b.Box(center, mgl64.Vec3{length / 2, height / 2, Thickness / 2}, mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0}))
}

// Corner adds two walls of the given length meeting at apex and opening toward +X.
// angle is the full opening angle between the inner faces.
func (b *Builder) Corner(apex mgl64.Vec3, angle, length, height float64) [2]*actor.Body {
	half := angle / 2

	var walls [2]*actor.Body
	for i, side := range [2]float64{1, -1} {
		direction := mgl64.Vec3{math.Cos(half), 0, side * math.Sin(half)}
		inward := mgl64.Vec3{math.Sin(half), 0, -side * math.Cos(half)}

		center := apex.
			Add(direction.Mul(length / 2)).
			Sub(inward.Mul(Thickness / 2)).
			Add(mgl64.Vec3{0, height / 2, 0})
		rotation := mgl64.QuatRotate(-side*half, mgl64.Vec3{0, 1, 0})

		walls[i] = b.Box(center, mgl64.Vec3{length / 2, height / 2, Thickness / 2}, rotation)
	}
	return walls
}

// Ramp adds a slab rising along +X from its bottom edge at start, inclined by slope.
// length is measured along the surface.
func (b *Builder) Ramp(start mgl64.Vec3, slope, length, width float64) *actor.Body {
	along := mgl64.Vec3{math.Cos(slope), math.Sin(slope), 0}
	normal := mgl64.Vec3{-math.Sin(slope), math.Cos(slope), 0}

	center := start.Add(along.Mul(length / 2)).Sub(normal.Mul(Thickness / 2))
	return b.Box(center, mgl64.Vec3{length / 2, Thickness / 2, width / 2}, mgl64.QuatRotate(slope, mgl64.Vec3{0, 0, 1}))
}

// Stairs adds count solid steps climbing along +X from start.
// Step i has its top at (i+1)*rise and its riser at start.X + i*run.
func (b *Builder) Stairs(start mgl64.Vec3, count int, rise, run, width float64) []*actor.Body {
	steps := make([]*actor.Body, 0, max(count, 0))
	for i := 0; i < count; i++ {
		top := float64(i+1) * rise
		center := start.Add(mgl64.Vec3{float64(i)*run + run/2, top / 2, 0})
		steps = append(steps, b.Box(center, mgl64.Vec3{run / 2, top / 2, width / 2}, mgl64.QuatIdent()))
	}
	return steps
}

// Crevice adds two slabs inclined by slope toward a gap along the X axis through bottom.
// width is the extent of each slab across the crevice, length its extent along X.
func (b *Builder) Crevice(bottom mgl64.Vec3, slope, gap, width, length float64) [2]*actor.Body {
	var slabs [2]*actor.Body
	for i, side := range [2]float64{1, -1} {
		across := mgl64.Vec3{0, math.Sin(slope), side * math.Cos(slope)}
		normal := mgl64.Vec3{0, math.Cos(slope), -side * math.Sin(slope)}

		edge := bottom.Add(mgl64.Vec3{0, 0, side * gap / 2})
		center := edge.Add(across.Mul(width / 2)).Sub(normal.Mul(Thickness / 2))
		rotation := mgl64.QuatRotate(-side*slope, mgl64.Vec3{1, 0, 0})

		slabs[i] = b.Box(center, mgl64.Vec3{length / 2, Thickness / 2, width / 2}, rotation)
	}
	return slabs
}

// Ridge adds two slabs inclined by slope that meet in a peak running along Z above center.
// width is the extent of each slab along its surface, length the extent of the ridge along Z.
// The lower edges touch the ground plane of center.
func (b *Builder) Ridge(center mgl64.Vec3, slope, width, length float64) [2]*actor.Body {
	peak := center.Add(mgl64.Vec3{0, width * math.Sin(slope), 0})

	var slabs [2]*actor.Body
	for i, side := range [2]float64{-1, 1} {
		down := mgl64.Vec3{side * math.Cos(slope), -math.Sin(slope), 0}
		normal := mgl64.Vec3{side * math.Sin(slope), math.Cos(slope), 0}

		middle := peak.Add(down.Mul(width / 2)).Sub(normal.Mul(Thickness / 2))
		rotation := mgl64.QuatRotate(-side*slope, mgl64.Vec3{0, 0, 1})

		slabs[i] = b.Box(middle, mgl64.Vec3{width / 2, Thickness / 2, length / 2}, rotation)
	}
	return slabs
}

// BeamThickness is the height of a beam slab
const BeamThickness = 0.2

// Beam adds a narrow slab running along +X from start with its top at height above start
func (b *Builder) Beam(start mgl64.Vec3, height, width, length float64) *actor.Body {
	center := start.Add(mgl64.Vec3{length / 2, height - BeamThickness/2, 0})
	return b.Box(center, mgl64.Vec3{length / 2, BeamThickness / 2, width / 2}, mgl64.QuatIdent())
}

// Layouts lists the names accepted by Build
var Layouts = []string{"flat", "wall", "corner", "ramp", "stairs", "crevice", "ridge", "obstacles", "beams", "course"}

// Build adds the named layout on top of a ground slab.
// Each layout is placed so a character spawned at the origin and walking along +X meets it.
func Build(b *Builder, layout string) error {
	switch layout {
	case "flat":
		b.Ground(GroundHalfSize)
	case "wall":
		b.Ground(GroundHalfSize)
		b.Wall(mgl64.Vec3{5, 0, 0}, math.Pi/2, 10, 3)
	case "corner":
		b.Ground(GroundHalfSize)
		b.Corner(mgl64.Vec3{8, 0, 0}, math.Pi/2, 6, 3)
	case "ramp":
		b.Ground(GroundHalfSize)
		b.Ramp(mgl64.Vec3{3, 0, 0}, 20*math.Pi/180, 8, 4)
	case "stairs":
		b.Ground(GroundHalfSize)
		b.Stairs(mgl64.Vec3{3, 0, 0}, 4, 0.2, 0.6, 4)
	case "crevice":
		b.Ground(GroundHalfSize)
		b.Crevice(mgl64.Vec3{0, 0, 0}, 60*math.Pi/180, 0.4, 3, 20)
	case "ridge":
		b.Ground(GroundHalfSize)
		b.Ridge(mgl64.Vec3{5, 0, 0}, 15*math.Pi/180, 3, 4)
	case "obstacles":
		// both too tall to step over
		b.Ground(GroundHalfSize)
		b.Wall(mgl64.Vec3{4, 0, -2}, math.Pi/2, 3, 0.8)
		b.Wall(mgl64.Vec3{4, 0, 2}, math.Pi/2, 3, 1.2)
	case "beams":
		b.Ground(GroundHalfSize)
		b.Beam(mgl64.Vec3{2, 0, -1}, 1.2, 0.5, 8)
		b.Beam(mgl64.Vec3{2, 0, 1}, 1.2, 0.3, 12)
	case "course":
		b.Ground(GroundHalfSize)
		b.Wall(mgl64.Vec3{20, 0, 0}, math.Pi/2, 10, 3)
		b.Ramp(mgl64.Vec3{3, 0, 8}, 20*math.Pi/180, 8, 4)
		b.Stairs(mgl64.Vec3{3, 0, -8}, 4, 0.2, 0.6, 4)
		b.Corner(mgl64.Vec3{8, 0, 16}, math.Pi/2, 6, 3)
		b.Crevice(mgl64.Vec3{0, 0, -16}, 60*math.Pi/180, 0.4, 3, 20)
		b.Ridge(mgl64.Vec3{5, 0, -24}, 15*math.Pi/180, 3, 4)
		b.Wall(mgl64.Vec3{5, 0, 24}, math.Pi/2, 3, 0.8)
		b.Beam(mgl64.Vec3{2, 0, 32}, 1.2, 0.5, 8)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLayout, layout)
	}
	return nil
}

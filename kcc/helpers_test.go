package kcc

import (
	"math"

	"github.com/akmonengine/kinematic/actor"
	"github.com/akmonengine/kinematic/cast"
	"github.com/go-gl/mathgl/mgl64"
)

// bodiesQuery is a brute-force SpatialQuery over a list of bodies
type bodiesQuery struct {
	bodies []*actor.Body
	casts  int
}

func (q *bodiesQuery) add(shape actor.ShapeInterface, position mgl64.Vec3, rotation mgl64.Quat) *actor.Body {
	body := actor.NewBody(actor.BodyID(len(q.bodies)+1), actor.NewTransformAt(position, rotation), shape, actor.BodyTypeStatic)
	q.bodies = append(q.bodies, body)
	return body
}

// addPlane adds a one-sided plane through point
func (q *bodiesQuery) addPlane(normal, point mgl64.Vec3) *actor.Body {
	normal = normal.Normalize()
	return q.add(&actor.Plane{Normal: normal, Distance: -normal.Dot(point)}, mgl64.Vec3{}, mgl64.QuatIdent())
}

func (q *bodiesQuery) addBox(center, halfExtents mgl64.Vec3) *actor.Body {
	return q.add(&actor.Box{HalfExtents: halfExtents}, center, mgl64.QuatIdent())
}

func (q *bodiesQuery) CastShape(shape actor.ShapeInterface, origin mgl64.Vec3, rotation mgl64.Quat, direction mgl64.Vec3, config ShapeCastConfig, filter QueryFilter) (Hit, bool) {
	q.casts++

	var best Hit
	found := false
	for _, body := range q.bodies {
		if body.IsSensor || !filter.Allows(body.ID, body.Layers) {
			continue
		}

		hit, ok := cast.Shape(shape, origin, rotation, direction, body, cast.Config{
			MaxDistance:             config.MaxDistance,
			TargetDistance:          config.TargetDistance,
			IgnoreOriginPenetration: config.IgnoreOriginPenetration,
		})
		if !ok || (found && hit.Distance >= best.Distance) {
			continue
		}

		best = Hit{Normal: hit.Normal, Distance: hit.Distance, Entity: body.ID, Point: hit.Point}
		found = true
	}

	return best, found
}

// scriptedQuery replays canned answers, one per cast, and records the requests
type scriptedQuery struct {
	answers  []scriptedAnswer
	requests []scriptedRequest
}

type scriptedAnswer struct {
	hit Hit
	ok  bool
}

type scriptedRequest struct {
	origin    mgl64.Vec3
	direction mgl64.Vec3
	config    ShapeCastConfig
}

func (q *scriptedQuery) CastShape(_ actor.ShapeInterface, origin mgl64.Vec3, _ mgl64.Quat, direction mgl64.Vec3, config ShapeCastConfig, _ QueryFilter) (Hit, bool) {
	q.requests = append(q.requests, scriptedRequest{origin: origin, direction: direction, config: config})
	if len(q.answers) == 0 {
		return Hit{}, false
	}

	answer := q.answers[0]
	q.answers = q.answers[1:]
	return answer.hit, answer.ok
}

func testCapsule() *actor.Capsule {
	return &actor.Capsule{Radius: 0.35, HalfHeight: 0.5}
}

func vec3Near(a, b mgl64.Vec3, tolerance float64) bool {
	return a.Sub(b).Len() <= tolerance
}

func floatNear(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func degrees(d float64) float64 {
	return d * math.Pi / 180
}

var worldUp = mgl64.Vec3{0, 1, 0}

func actorID(id uint64) actor.BodyID {
	return actor.BodyID(id)
}

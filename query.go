package kinematic

import (
	"math"
	"sync"

	"github.com/akmonengine/kinematic/actor"
	"github.com/akmonengine/kinematic/cast"
	"github.com/akmonengine/kinematic/kcc"
	"github.com/go-gl/mathgl/mgl64"
)

var candidatePool = sync.Pool{
	New: func() any {
		candidates := make([]int, 0, 32)
		return &candidates
	},
}

// CastShape sweeps shape from origin along direction and returns the closest hit.
//
// The grid is queried with the box swept by the shape, grown by the target distance.
// Sensors and the bodies rejected by filter are skipped. Hits at the same distance are
// ordered by body id, so results do not depend on the registration history of the grid.
// CastShape only takes the read lock and may be called concurrently.
func (w *World) CastShape(shape actor.ShapeInterface, origin mgl64.Vec3, rotation mgl64.Quat, direction mgl64.Vec3, config kcc.ShapeCastConfig, filter kcc.QueryFilter) (kcc.Hit, bool) {
	length := direction.Len()
	if shape == nil || !(length > 1e-12) || math.IsInf(length, 0) || !(config.MaxDistance >= 0) {
		return kcc.Hit{}, false
	}
	direction = direction.Mul(1.0 / length)

	castConfig := cast.Config{
		MaxDistance:             config.MaxDistance,
		TargetDistance:          config.TargetDistance,
		IgnoreOriginPenetration: config.IgnoreOriginPenetration,
	}

	var best kcc.Hit
	found := false
	consider := func(body *actor.Body) {
		if body.IsSensor || !filter.Allows(body.ID, body.Layers) {
			return
		}

		hit, ok := cast.Shape(shape, origin, rotation, direction, body, castConfig)
		if !ok {
			return
		}
		if found && (hit.Distance > best.Distance || (hit.Distance == best.Distance && body.ID > best.Entity)) {
			return
		}

		best = kcc.Hit{Normal: hit.Normal, Distance: hit.Distance, Entity: body.ID, Point: hit.Point}
		found = true
	}

	bounds := shape.ComputeAABB(actor.NewTransformAt(origin, rotation)).
		Swept(direction.Mul(config.MaxDistance)).
		Expand(math.Max(config.TargetDistance, 0))

	w.mu.RLock()
	defer w.mu.RUnlock()

	candidates := candidatePool.Get().(*[]int)
	defer func() {
		*candidates = (*candidates)[:0]
		candidatePool.Put(candidates)
	}()

	var bounded bool
	*candidates, bounded = w.SpatialGrid.Query(bounds, (*candidates)[:0])
	if bounded {
		for _, index := range *candidates {
			if body := w.indexed[index]; body.GetAABB().Overlaps(bounds) {
				consider(body)
			}
		}
	} else {
		for _, body := range w.indexed {
			consider(body)
		}
	}

	for _, body := range w.unbounded {
		consider(body)
	}

	return best, found
}

package epa

import (
	"fmt"
	"sync"

	"github.com/akmonengine/kinematic/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of the polytope with its outward normal
type Face struct {
	Points   [3]mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64 // distance from the origin to the face plane
}

func (f Face) penetration() Penetration {
	// The closest face sits at Normal*Distance in A - B: moving A by the opposite
	// vector brings the origin onto the boundary.
	return Penetration{Normal: f.Normal.Mul(-1), Depth: f.Distance}
}

// PolytopeBuilder owns the working buffers of one EPA run.
type PolytopeBuilder struct {
	faces []Face

	// sorted, deduplicated vertices for the centroid
	uniquePoints []mgl64.Vec3

	edges          []EdgeEntry
	visibleIndices []int
}

// EdgeEntry counts how many visible faces share an edge.
// An edge seen exactly once lies on the horizon.
type EdgeEntry struct {
	A, B  mgl64.Vec3 // ordered so that A < B
	Count int
}

var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			faces:          make([]Face, 0, polytopeInitialCapacity),
			uniquePoints:   make([]mgl64.Vec3, 0, polytopeInitialCapacity),
			edges:          make([]EdgeEntry, 0, polytopeInitialCapacity),
			visibleIndices: make([]int, 0, polytopeInitialCapacity),
		}
	},
}

// Reset clears the buffers, keeping their capacity.
func (b *PolytopeBuilder) Reset() {
	b.faces = b.faces[:0]
	b.uniquePoints = b.uniquePoints[:0]
	b.edges = b.edges[:0]
	b.visibleIndices = b.visibleIndices[:0]
}

// BuildInitialFaces creates the four faces of the GJK tetrahedron.
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return fmt.Errorf("epa: invalid simplex count %d, expected 4", simplex.Count)
	}

	p0, p1, p2, p3 := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	candidates := [4]Face{
		newFaceOutward(p0, p1, p2, p3),
		newFaceOutward(p0, p2, p3, p1),
		newFaceOutward(p0, p3, p1, p2),
		newFaceOutward(p1, p3, p2, p0),
	}

	for _, face := range candidates {
		if face.Distance >= EPAMinFaceDistance {
			b.faces = append(b.faces, face)
		}
	}

	// A flat tetrahedron keeps every face
	if len(b.faces) < 3 {
		b.faces = append(b.faces[:0], candidates[:]...)
	}

	return nil
}

// newFaceOutward builds the face (p0, p1, p2) with its normal pointing away from
// the opposite vertex and away from the origin.
func newFaceOutward(p0, p1, p2, opposite mgl64.Vec3) Face {
	face := Face{Points: [3]mgl64.Vec3{p0, p1, p2}}

	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	length := normal.Len()
	if length < 1e-8 {
		face.Normal = mgl64.Vec3{0, 1, 0}
		face.Distance = EPAMinFaceDistance
		return face
	}
	normal = normal.Mul(1.0 / length)

	if normal.Dot(opposite.Sub(p0)) > 0 {
		normal = normal.Mul(-1)
	}

	distance := p0.Dot(normal)
	if distance < 0 {
		normal = normal.Mul(-1)
		distance = -distance
	}
	if distance < EPAMinFaceDistance {
		distance = EPAMinFaceDistance
	}

	face.Normal = snapNormalToAxis(normal)
	face.Distance = distance
	return face
}

// FindClosestFaceIndex returns the index of the face closest to the origin, -1 when empty.
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	if len(b.faces) == 0 {
		return -1
	}

	closest := 0
	for i := 1; i < len(b.faces); i++ {
		if b.faces[i].Distance < b.faces[closest].Distance {
			closest = i
		}
	}
	return closest
}

// GetClosestFace returns the closest face, nil when the polytope is empty.
func (b *PolytopeBuilder) GetClosestFace() *Face {
	idx := b.FindClosestFaceIndex()
	if idx < 0 {
		return nil
	}
	return &b.faces[idx]
}

func (b *PolytopeBuilder) calculateCentroid() mgl64.Vec3 {
	b.uniquePoints = b.uniquePoints[:0]

	for i := range b.faces {
		for _, point := range b.faces[i].Points {
			idx := b.findPointInsertionIndex(point)
			if idx < len(b.uniquePoints) && vec3Equal(b.uniquePoints[idx], point) {
				continue
			}

			b.uniquePoints = append(b.uniquePoints, mgl64.Vec3{})
			copy(b.uniquePoints[idx+1:], b.uniquePoints[idx:])
			b.uniquePoints[idx] = point
		}
	}

	if len(b.uniquePoints) == 0 {
		return mgl64.Vec3{}
	}

	var sum mgl64.Vec3
	for _, point := range b.uniquePoints {
		sum = sum.Add(point)
	}
	return sum.Mul(1.0 / float64(len(b.uniquePoints)))
}

// findPointInsertionIndex binary-searches the sorted uniquePoints
func (b *PolytopeBuilder) findPointInsertionIndex(point mgl64.Vec3) int {
	left, right := 0, len(b.uniquePoints)
	for left < right {
		mid := (left + right) / 2
		if compareVec3(b.uniquePoints[mid], point) < 0 {
			left = mid + 1
		} else {
			right = mid
		}
	}
	return left
}

func (b *PolytopeBuilder) findVisibleFaces(support mgl64.Vec3) {
	b.visibleIndices = b.visibleIndices[:0]
	for i := range b.faces {
		if support.Sub(b.faces[i].Points[0]).Dot(b.faces[i].Normal) > 0 {
			b.visibleIndices = append(b.visibleIndices, i)
		}
	}
}

func (b *PolytopeBuilder) findHorizonEdges() {
	b.edges = b.edges[:0]

	for _, faceIdx := range b.visibleIndices {
		p := b.faces[faceIdx].Points
		for _, edge := range [3][2]mgl64.Vec3{{p[0], p[1]}, {p[1], p[2]}, {p[2], p[0]}} {
			edgeA, edgeB := edge[0], edge[1]
			if compareVec3(edgeA, edgeB) > 0 {
				edgeA, edgeB = edgeB, edgeA
			}

			if idx := b.findEdgeIndex(edgeA, edgeB); idx >= 0 {
				b.edges[idx].Count++
				continue
			}
			b.edges = append(b.edges, EdgeEntry{A: edgeA, B: edgeB, Count: 1})
		}
	}
}

func (b *PolytopeBuilder) findEdgeIndex(edgeA, edgeB mgl64.Vec3) int {
	for i := range b.edges {
		if vec3Equal(b.edges[i].A, edgeA) && vec3Equal(b.edges[i].B, edgeB) {
			return i
		}
	}
	return -1
}

// removeVisibleFaces swaps out visible faces, highest index first
func (b *PolytopeBuilder) removeVisibleFaces() {
	indices := b.visibleIndices
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && indices[j-1] < indices[j]; j-- {
			indices[j-1], indices[j] = indices[j], indices[j-1]
		}
	}

	for _, idx := range indices {
		if idx < len(b.faces) {
			b.faces[idx] = b.faces[len(b.faces)-1]
			b.faces = b.faces[:len(b.faces)-1]
		}
	}
}

// AddPointAndRebuildFaces expands the polytope with a support point: faces that see
// the point are removed and the horizon is stitched to it.
func (b *PolytopeBuilder) AddPointAndRebuildFaces(support mgl64.Vec3, closestIndex int) {
	centroid := b.calculateCentroid()

	b.findVisibleFaces(support)
	if len(b.visibleIndices) == 0 || len(b.visibleIndices) >= len(b.faces) {
		b.visibleIndices = append(b.visibleIndices[:0], closestIndex)
	}

	b.findHorizonEdges()
	b.removeVisibleFaces()

	for _, edge := range b.edges {
		if edge.Count == 1 {
			b.faces = append(b.faces, newFaceOutward(edge.A, edge.B, support, centroid))
		}
	}

	if len(b.faces) == 0 {
		b.faces = append(b.faces, Face{
			Points:   [3]mgl64.Vec3{support, support, support},
			Normal:   mgl64.Vec3{0, 1, 0},
			Distance: EPAMinFaceDistance,
		})
	}
}

// vec3Equal compares exactly, faces share bit-identical support points
func vec3Equal(a, b mgl64.Vec3) bool {
	return a[0] == b[0] && a[1] == b[1] && a[2] == b[2]
}

// compareVec3 orders vectors lexicographically
func compareVec3(a, b mgl64.Vec3) int {
	for i := 0; i < 3; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

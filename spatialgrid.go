package kinematic

import (
	"math"
	"slices"

	"github.com/akmonengine/kinematic/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxCellsPerBody is the largest number of cells a body may cover.
	// Bigger bodies are kept outside the grid and tested by every query.
	MaxCellsPerBody = 4096

	// MaxQueryCells is the largest number of cells a query visits before falling back
	// to a full scan
	MaxQueryCells = 4096
)

// CellKey - Coordonnées d'une cellule dans l'espace 3D
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the bodies overlapping it
type Cell struct {
	bodyIndices []int
}

// SpatialGrid - Grille spatiale uniforme avec hashing, broad phase des shape casts.
// Distinct cells may share a slot, queries return a superset of the overlapping bodies.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// NewSpatialGrid creates a grid of cellSize cubes hashed into numCells slots,
// rounded up to a power of two.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	if !(cellSize > 0) {
		cellSize = 1
	}
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

// nextPowerOfTwo - Arrondit à la puissance de 2 supérieure
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds bodyIndex to every cell overlapped by aabb.
// It returns false, without inserting, when the box is not finite or covers more than
// MaxCellsPerBody cells.
func (sg *SpatialGrid) Insert(bodyIndex int, aabb actor.AABB) bool {
	minCell, maxCell, ok := sg.cellRange(aabb, MaxCellsPerBody)
	if !ok {
		return false
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
			}
		}
	}
	return true
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			slices.Sort(sg.cells[i].bodyIndices)
		}
	}
}

// Query appends to dst the sorted, deduplicated indices of the bodies that may overlap
// aabb. It returns false when the box is not finite or covers more than MaxQueryCells
// cells, the caller must then test every body.
func (sg *SpatialGrid) Query(aabb actor.AABB, dst []int) ([]int, bool) {
	minCell, maxCell, ok := sg.cellRange(aabb, MaxQueryCells)
	if !ok {
		return dst, false
	}

	start := len(dst)
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				dst = append(dst, sg.cells[sg.hashCell(CellKey{x, y, z})].bodyIndices...)
			}
		}
	}

	found := dst[start:]
	slices.Sort(found)
	found = slices.Compact(found)
	return dst[:start+len(found)], true
}

// cellRange returns the cells covered by aabb, or false when there are more than limit
func (sg *SpatialGrid) cellRange(aabb actor.AABB, limit int) (CellKey, CellKey, bool) {
	if !finite(aabb.Min) || !finite(aabb.Max) {
		return CellKey{}, CellKey{}, false
	}

	// Compare in floating point first, huge boxes overflow the cell coordinates
	span := aabb.Max.Sub(aabb.Min).Mul(1 / sg.cellSize)
	if (span.X()+1)*(span.Y()+1)*(span.Z()+1) > float64(2*limit) {
		return CellKey{}, CellKey{}, false
	}

	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)
	count := (maxCell.X - minCell.X + 1) * (maxCell.Y - minCell.Y + 1) * (maxCell.Z - minCell.Z + 1)
	if count <= 0 || count > limit {
		return CellKey{}, CellKey{}, false
	}

	return minCell, maxCell, true
}

// worldToCell - Convertit une position monde en coordonnées de cellule
func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

// hashCell - Hash une cellule vers un index dans l'array
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

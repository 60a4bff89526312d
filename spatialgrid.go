package orbit

import (
	"math"
	"sort"

	"github.com/akmonengine/orbit/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// CellKey is the integer coordinate of a grid cell.
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the bodies overlapping it.
type Cell struct {
	bodyIndices []int
}

// SpatialGrid is a uniform hashed grid used as broad phase. Different cells may
// hash to the same slot, so callers must confirm candidates with an AABB test.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int

	// scratch for Query, sized to the largest inserted index
	seen []bool
}

// NewSpatialGrid creates a grid with numCells slots, rounded up to a power of two.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
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

// Insert registers bodyIndex in every cell its AABB covers.
func (sg *SpatialGrid) Insert(bodyIndex int, aabb actor.AABB) {
	if bodyIndex >= len(sg.seen) {
		sg.seen = append(sg.seen, make([]bool, bodyIndex+1-len(sg.seen))...)
	}

	sg.forEachCell(aabb, func(cellIdx int) {
		indices := sg.cells[cellIdx].bodyIndices
		// a large body can hash twice to the same slot
		if n := len(indices); n > 0 && indices[n-1] == bodyIndex {
			return
		}
		sg.cells[cellIdx].bodyIndices = append(indices, bodyIndex)
	})
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			sort.Ints(sg.cells[i].bodyIndices)
		}
	}
}

// Query appends to out the index of every body sharing a cell with aabb, each once,
// and returns the extended slice. It allocates only when out has to grow.
func (sg *SpatialGrid) Query(aabb actor.AABB, out []int) []int {
	start := len(out)
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})

				for _, idx := range sg.cells[cellIdx].bodyIndices {
					if sg.seen[idx] {
						continue
					}
					sg.seen[idx] = true
					out = append(out, idx)
				}
			}
		}
	}

	for _, idx := range out[start:] {
		sg.seen[idx] = false
	}
	return out
}

func (sg *SpatialGrid) forEachCell(aabb actor.AABB, fn func(cellIdx int)) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}

package orbit

import (
	"math"

	"github.com/akmonengine/orbit/actor"
	"github.com/akmonengine/orbit/gjk"
	"github.com/pkg/errors"
)

// PairResult is the overlap state of two named bodies at the time of the test.
type PairResult struct {
	A, B        string
	Overlapping bool
}

type pairIndex struct {
	a, b, k int
}

// TestPairs tests every unordered pair of bodies once, in (i, j) order with i < j.
// Bodies whose AABBs do not overlap are reported without running GJK.
// Pairs are spread over workers goroutines, each with its own pooled simplex.
func TestPairs(bodies []*actor.Body, workers int) ([]PairResult, error) {
	if err := validateBodies(bodies); err != nil {
		return nil, err
	}

	n := len(bodies)
	pairs := make([]pairIndex, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pairIndex{a: i, b: j, k: len(pairs)})
		}
	}

	results := make([]PairResult, len(pairs))
	task(max(DEFAULT_WORKERS, workers), pairs, func(p pairIndex) {
		bodyA, bodyB := bodies[p.a], bodies[p.b]
		result := &results[p.k]
		result.A, result.B = bodyA.Name, bodyB.Name

		if !bodyA.AABB().Overlaps(bodyB.AABB()) {
			return
		}

		simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
		result.Overlapping = gjk.Overlaps(bodyA, bodyB, simplex)
		gjk.SimplexPool.Put(simplex)
	})

	return results, nil
}

// Overlapping filters results down to the pairs currently in contact.
func Overlapping(results []PairResult) []PairResult {
	var contacts []PairResult
	for _, r := range results {
		if r.Overlapping {
			contacts = append(contacts, r)
		}
	}
	return contacts
}

func validateBodies(bodies []*actor.Body) error {
	names := make(map[string]struct{}, len(bodies))
	for _, body := range bodies {
		if err := body.Validate(); err != nil {
			return err
		}
		if _, ok := names[body.Name]; ok {
			return &actor.InvalidGeometryError{Name: body.Name, Reason: "duplicate name"}
		}
		names[body.Name] = struct{}{}
	}
	return nil
}

// Monitor tests one moving body against a fixed scene. The statics are indexed in a
// SpatialGrid once; each call reuses the same buffers, so a steady-state call does
// not allocate.
type Monitor struct {
	statics []*actor.Body
	names   map[string]struct{}
	grid    *SpatialGrid

	simplex    gjk.Simplex
	candidates []int
	results    []PairResult
}

// NewMonitor indexes statics with the given grid cell size.
func NewMonitor(statics []*actor.Body, cellSize float64) (*Monitor, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, errors.Errorf("cell size must be positive and finite, got %v", cellSize)
	}
	if err := validateBodies(statics); err != nil {
		return nil, errors.Wrap(err, "static scene")
	}

	grid := NewSpatialGrid(cellSize, max(64, 4*len(statics)))
	results := make([]PairResult, len(statics))
	names := make(map[string]struct{}, len(statics))
	for i, body := range statics {
		names[body.Name] = struct{}{}
		grid.Insert(i, body.AABB())
		results[i].B = body.Name
	}
	grid.SortCells()

	return &Monitor{
		statics:    statics,
		names:      names,
		grid:       grid,
		candidates: make([]int, 0, len(statics)),
		results:    results,
	}, nil
}

// Statics returns the indexed scene.
func (m *Monitor) Statics() []*actor.Body {
	return m.statics
}

// TestAgentAgainstStatic returns one result per static body, in scene order, with A set
// to the agent name. The full overlap state is reported on every call. The returned
// slice is owned by the Monitor and is overwritten by the next call.
//
// A malformed agent, or one named like a static body, is rejected with an
// *actor.InvalidGeometryError before any test runs.
func (m *Monitor) TestAgentAgainstStatic(agent *actor.Body) ([]PairResult, error) {
	if err := agent.Validate(); err != nil {
		return nil, err
	}
	if _, ok := m.names[agent.Name]; ok {
		return nil, &actor.InvalidGeometryError{Name: agent.Name, Reason: "agent shares its name with a static body"}
	}

	for i := range m.results {
		m.results[i].A = agent.Name
		m.results[i].Overlapping = false
	}

	aabb := agent.AABB()
	m.candidates = m.grid.Query(aabb, m.candidates[:0])
	for _, idx := range m.candidates {
		static := m.statics[idx]
		if !aabb.Overlaps(static.AABB()) {
			continue
		}
		m.results[idx].Overlapping = gjk.Overlaps(agent, static, &m.simplex)
	}

	return m.results, nil
}

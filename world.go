package orbit

import (
	"sync"

	"github.com/akmonengine/orbit/actor"
)

const DEFAULT_WORKERS = 1

// World is the state shared between the control loop and whoever renders it:
// the static scenery and the agent body.
type World struct {
	mu sync.RWMutex

	// Statics never move after construction
	Statics []*actor.Body
	Agent   *actor.Body
	Workers int
}

// NewWorld validates every body. Names must be unique across the world.
func NewWorld(statics []*actor.Body, agent *actor.Body) (*World, error) {
	if err := validateBodies(append(append([]*actor.Body{}, statics...), agent)); err != nil {
		return nil, err
	}

	return &World{
		Statics: statics,
		Agent:   agent,
		Workers: DEFAULT_WORKERS,
	}, nil
}

// Update runs fn with the write lock held. Keep fn short: it is the
// window during which readers are blocked.
func (w *World) Update(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn()
}

// View runs fn with the read lock held.
func (w *World) View(fn func()) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	fn()
}

// Bodies returns the statics followed by the agent.
func (w *World) Bodies() []*actor.Body {
	bodies := make([]*actor.Body, 0, len(w.Statics)+1)
	bodies = append(bodies, w.Statics...)
	if w.Agent != nil {
		bodies = append(bodies, w.Agent)
	}
	return bodies
}

// TestPairs checks every pair of bodies in the world under the read lock.
func (w *World) TestPairs() ([]PairResult, error) {
	var (
		results []PairResult
		err     error
	)
	w.View(func() {
		results, err = TestPairs(w.Bodies(), max(DEFAULT_WORKERS, w.Workers))
	})
	return results, err
}

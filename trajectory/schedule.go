package trajectory

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ErrClockRegression is returned when time goes backwards between two ticks.
var ErrClockRegression = errors.New("simulation clock went backwards")

// Step is what a Schedule produces for one tick.
type Step struct {
	Reference
	// Entered is set on the first tick of a new phase
	Entered bool
	// Tracked is set when the tick falls in the recorded window
	Tracked bool
}

// Schedule is the per-run phase state machine. Its Params are computed once, on the
// first tick at or after StartTime, from the position sensed at that tick.
type Schedule struct {
	settings Settings
	params   *Params

	phase  Phase
	last   float64
	ticked bool
}

// NewSchedule rejects degenerate settings before the run starts.
func NewSchedule(settings Settings) (*Schedule, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Schedule{settings: settings, phase: Settling}, nil
}

func (s *Schedule) Settings() Settings {
	return s.settings
}

// Params returns nil while settling.
func (s *Schedule) Params() *Params {
	return s.params
}

func (s *Schedule) Phase() Phase {
	return s.phase
}

// Advance moves the schedule to time t. current is the sensed planar position; it is
// held while settling and becomes the initial position on the boundary tick.
func (s *Schedule) Advance(t float64, current mgl64.Vec2) (Step, error) {
	if s.ticked && t < s.last {
		return Step{}, errors.Wrapf(ErrClockRegression, "%v after %v", t, s.last)
	}
	s.last, s.ticked = t, true

	if s.params == nil {
		if t < s.settings.StartTime {
			return Step{Reference: Reference{Phase: Settling, Position: current}}, nil
		}

		params, err := NewParams(s.settings, current)
		if err != nil {
			return Step{}, err
		}
		s.params = &params
	}

	step := Step{
		Reference: s.params.Reference(t),
		Tracked:   s.params.Tracked(t),
	}
	if step.Phase != s.phase {
		step.Entered = true
		s.phase = step.Phase
	}
	return step, nil
}

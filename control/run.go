package control

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// DEFAULT_PERIOD is the control period used when RunOptions leaves it unset.
const DEFAULT_PERIOD = 10 * time.Millisecond

// ErrNoStopCondition is returned by Run when nothing could ever end the run: no
// StopOnComplete, no Budget, no Shown poll and a context that is never done.
var ErrNoStopCondition = errors.New("run has no stop condition")

// StopReason tells why Run returned.
type StopReason int

const (
	StopHidden StopReason = iota
	StopBudget
	StopCanceled
	StopCompleted
	StopFailed
)

func (r StopReason) String() string {
	switch r {
	case StopHidden:
		return "hidden"
	case StopBudget:
		return "budget"
	case StopCanceled:
		return "canceled"
	case StopCompleted:
		return "completed"
	case StopFailed:
		return "failed"
	}
	return "unknown"
}

// RunOptions configure the tick driver.
type RunOptions struct {
	// Period between ticks, also the dt handed to Step
	Period time.Duration
	// Budget is the wall-clock time allowed for the run; zero means unlimited
	Budget time.Duration
	// Clock measures the budget and paces real-time runs; defaults to the system clock
	Clock clock.Clock
	// Realtime waits one Period between ticks; otherwise ticks run back to back
	Realtime bool
	// Shown is polled every tick; returning false stops the run
	Shown func() bool
	// Step advances the external simulation by dt seconds after each tick
	Step func(dt float64) error
	// StopOnComplete ends the run once the samples have been reported
	StopOnComplete bool
}

// Run ticks the loop until the host hides it, the budget runs out, ctx is canceled,
// the trajectory completes (with StopOnComplete) or a tick fails. All stop conditions
// are polled once per tick. A run stopped before completion never reports.
func (l *Loop) Run(ctx context.Context, opts RunOptions) (StopReason, error) {
	if !opts.StopOnComplete && opts.Budget <= 0 && opts.Shown == nil && ctx.Done() == nil {
		return StopFailed, ErrNoStopCondition
	}
	if opts.Period <= 0 {
		opts.Period = DEFAULT_PERIOD
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	var deadline time.Time
	if opts.Budget > 0 {
		deadline = opts.Clock.Now().Add(opts.Budget)
	}

	var ticker *clock.Ticker
	if opts.Realtime {
		ticker = opts.Clock.Ticker(opts.Period)
		defer ticker.Stop()
	}

	dt := opts.Period.Seconds()
	for ticks := 0; ; ticks++ {
		if err := ctx.Err(); err != nil {
			l.logger.Infow("run canceled", "ticks", ticks, "reported", l.reported)
			return StopCanceled, err
		}
		if opts.Shown != nil && !opts.Shown() {
			l.logger.Infow("host no longer shown", "ticks", ticks, "reported", l.reported)
			return StopHidden, nil
		}
		if !deadline.IsZero() && !opts.Clock.Now().Before(deadline) {
			l.logger.Infow("wall-clock budget elapsed", "ticks", ticks, "budget", opts.Budget, "reported", l.reported)
			return StopBudget, nil
		}

		status, err := l.Tick(ctx)
		if err != nil {
			return StopFailed, err
		}
		if opts.StopOnComplete && status.Reported {
			return StopCompleted, nil
		}

		if opts.Step != nil {
			if err := opts.Step(dt); err != nil {
				return StopFailed, errors.Wrap(err, "simulation step")
			}
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return StopCanceled, ctx.Err()
			case <-ticker.C:
			}
		}
	}
}

package worker

import (
	"time"

	"github.com/pablo-ross/komornicka100/pkg/logger"
)

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithInterval sets the sweep interval.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithActiveWindow sets the daily active window hours [start, end).
func WithActiveWindow(startHour, endHour int) Option {
	return func(r *Reconciler) {
		if startHour >= 0 && endHour <= 24 && startHour < endHour {
			r.windowStartHour = startHour
			r.windowEndHour = endHour
		}
	}
}

// WithLocation sets the timezone the active window is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithInitialLookback sets the scan window for users without a checkpoint.
func WithInitialLookback(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.initialLookback = d
		}
	}
}

// WithOverlap sets how far behind the checkpoint each scan starts.
func WithOverlap(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.overlap = d
		}
	}
}

// WithAdvanceAfterRun moves the checkpoint only after a user's sweep
// completes instead of before the fetch.
func WithAdvanceAfterRun(enabled bool) Option {
	return func(r *Reconciler) {
		r.advanceAfterRun = enabled
	}
}

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the reconciler logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

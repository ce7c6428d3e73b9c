package verification

import (
	"time"

	"github.com/pablo-ross/komornicka100/internal/domain/similarity"
	"github.com/pablo-ross/komornicka100/pkg/logger"
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithMatcher replaces the similarity matcher.
func WithMatcher(m *similarity.Matcher) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.matcher = m
		}
	}
}

// WithActivityKind sets the accepted provider activity kind.
func WithActivityKind(kind string) Option {
	return func(o *Orchestrator) {
		if kind != "" {
			o.activityKind = kind
		}
	}
}

// WithMinDistance sets the minimum qualifying activity distance in meters.
func WithMinDistance(meters float64) Option {
	return func(o *Orchestrator) {
		if meters > 0 {
			o.minDistanceMeters = meters
		}
	}
}

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

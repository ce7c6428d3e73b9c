package similarity

import (
	"fmt"

	"github.com/pablo-ross/komornicka100/internal/domain/geo"
)

// Default matching configuration constants.
const (
	defaultSimplifyTolerance = 0.0001 // degrees
	defaultMaxDeviation      = 20.0   // meters
	defaultThreshold         = 0.8
	defaultMinTrackPoints    = 10
)

// Result carries the verdict of one reference-vs-candidate comparison.
type Result struct {
	Score    float64
	Verified bool
	Message  string
	// InsufficientPoints is set when either track had too few points for a
	// meaningful comparison; Score is 0 in that case.
	InsufficientPoints bool
	Deviations         []Deviation
}

// Matcher compares candidate tracks against reference routes. It is stateless
// after construction and safe for concurrent use.
type Matcher struct {
	simplifyTolerance  float64
	maxDeviationMeters float64
	threshold          float64
	minTrackPoints     int
}

// NewMatcher creates a matcher with configuration options.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		simplifyTolerance:  defaultSimplifyTolerance,
		maxDeviationMeters: defaultMaxDeviation,
		threshold:          defaultThreshold,
		minTrackPoints:     defaultMinTrackPoints,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match simplifies both tracks then scores the candidate against the
// reference. Tracks with too few points cannot reliably establish a match and
// fail without comparison. Identical inputs always yield identical results.
func (m *Matcher) Match(reference, candidate geo.Track) Result {
	// Point-count gate runs on the raw tracks: a long straight ride may
	// legitimately simplify down to a handful of points.
	if len(reference) < m.minTrackPoints || len(candidate) < m.minTrackPoints {
		return Result{
			Score:              0,
			Verified:           false,
			Message:            "Not enough GPS points to perform verification",
			InsufficientPoints: true,
		}
	}

	ref := Simplify(reference, m.simplifyTolerance)
	cand := Simplify(candidate, m.simplifyTolerance)

	score, deviations := Score(ref, cand, m.maxDeviationMeters)
	verified := score >= m.threshold

	var message string
	if verified {
		message = fmt.Sprintf("Route verified successfully with %.1f%% match", score*100)
	} else {
		message = fmt.Sprintf("Route similarity (%.1f%%) below required threshold (%.1f%%)",
			score*100, m.threshold*100)
	}

	return Result{
		Score:      score,
		Verified:   verified,
		Message:    message,
		Deviations: deviations,
	}
}

package similarity

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithSimplifyTolerance sets the Douglas-Peucker tolerance in degrees.
func WithSimplifyTolerance(tolerance float64) Option {
	return func(m *Matcher) {
		if tolerance > 0 {
			m.simplifyTolerance = tolerance
		}
	}
}

// WithMaxDeviation sets the maximum allowed point deviation in meters.
func WithMaxDeviation(meters float64) Option {
	return func(m *Matcher) {
		if meters > 0 {
			m.maxDeviationMeters = meters
		}
	}
}

// WithThreshold sets the fraction of points that must lie within the maximum
// deviation for a match.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 && threshold <= 1 {
			m.threshold = threshold
		}
	}
}

// WithMinTrackPoints sets the minimum number of raw points either track must
// have before a comparison is attempted.
func WithMinTrackPoints(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.minTrackPoints = n
		}
	}
}

// Package similarity implements the geometric matching engine that decides
// whether a candidate GPS track represents the same ride as a reference route.
package similarity

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/pablo-ross/komornicka100/internal/domain/geo"
)

// Deviation records the distance from one candidate point to the reference
// polyline.
type Deviation struct {
	Point  geo.Point
	Meters float64
}

// Simplify reduces a track with Douglas-Peucker while keeping every original
// point within tolerance (in degrees) of the simplified polyline. Tracks of
// fewer than 3 points are returned unchanged.
func Simplify(t geo.Track, tolerance float64) geo.Track {
	if len(t) < 3 {
		return t
	}

	ls := t.LineString()
	reduced := simplify.DouglasPeucker(tolerance).Simplify(ls.Clone())
	out, ok := reduced.(orb.LineString)
	if !ok || len(out) < 2 {
		return t
	}
	return geo.FromLineString(out)
}

// Score computes the fraction of candidate points lying within
// maxDeviationMeters of the reference polyline, along with the per-point
// deviations. An empty candidate scores 0. The result is a pure function of
// its inputs.
func Score(reference, candidate geo.Track, maxDeviationMeters float64) (float64, []Deviation) {
	if len(candidate) == 0 {
		return 0, nil
	}

	line := reference.LineString()
	deviations := make([]Deviation, 0, len(candidate))
	within := 0
	for _, p := range candidate {
		d := geo.DistanceToPolylineMeters(p, line)
		deviations = append(deviations, Deviation{Point: p, Meters: d})
		if d <= maxDeviationMeters {
			within++
		}
	}

	return float64(within) / float64(len(candidate)), deviations
}

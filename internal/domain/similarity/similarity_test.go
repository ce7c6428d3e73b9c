package similarity_test

import (
	"math"
	"testing"

	"github.com/pablo-ross/komornicka100/internal/domain/geo"
	"github.com/pablo-ross/komornicka100/internal/domain/similarity"
	. "github.com/smartystreets/goconvey/convey"
)

// straightTrack builds n points on a meridian spanning roughly the given
// length in kilometers.
func straightTrack(n int, lengthKM float64) geo.Track {
	span := lengthKM * 1000 / 111194.9 // degrees of latitude
	track := make(geo.Track, n)
	for i := 0; i < n; i++ {
		track[i] = geo.Point{
			Lat: 52.0 + span*float64(i)/float64(n-1),
			Lon: 16.5,
		}
	}
	return track
}

// windingTrack builds n points along a northbound sinusoid, dense enough that
// simplification keeps the overall shape.
func windingTrack(n int) geo.Track {
	track := make(geo.Track, n)
	for i := 0; i < n; i++ {
		track[i] = geo.Point{
			Lat: 52.0 + 0.005*float64(i),
			Lon: 16.5 + 0.01*math.Sin(float64(i)/5),
		}
	}
	return track
}

// isSubsequence reports whether sub appears in full in order.
func isSubsequence(sub, full geo.Track) bool {
	j := 0
	for _, p := range full {
		if j < len(sub) && sub[j] == p {
			j++
		}
	}
	return j == len(sub)
}

func TestSimplify(t *testing.T) {
	Convey("Given tracks of fewer than 3 points", t, func() {
		for _, track := range []geo.Track{nil, {}, {{Lat: 52, Lon: 16}}, {{Lat: 52, Lon: 16}, {Lat: 53, Lon: 17}}} {
			So(similarity.Simplify(track, 0.0001), ShouldResemble, track)
		}
	})

	Convey("Given a winding track", t, func() {
		track := windingTrack(200)
		const tolerance = 0.0001
		simplified := similarity.Simplify(track, tolerance)

		Convey("The result is a subsequence of the input", func() {
			So(isSubsequence(simplified, track), ShouldBeTrue)
		})

		Convey("First and last points are retained", func() {
			So(simplified[0], ShouldResemble, track[0])
			So(simplified[len(simplified)-1], ShouldResemble, track[len(track)-1])
		})

		Convey("Every original point stays within tolerance of the simplified polyline", func() {
			line := simplified.LineString()
			for _, p := range track {
				d := geo.DistanceToPolylineMeters(p, line) / geo.MetersPerDegree
				So(d, ShouldBeLessThanOrEqualTo, tolerance*1.0001)
			}
		})
	})

	Convey("Given a perfectly straight track", t, func() {
		track := straightTrack(150, 100.5)

		Convey("Simplification collapses it to its endpoints", func() {
			simplified := similarity.Simplify(track, 0.0001)
			So(len(simplified), ShouldBeLessThan, len(track))
			So(simplified[0], ShouldResemble, track[0])
			So(simplified[len(simplified)-1], ShouldResemble, track[len(track)-1])
		})
	})
}

func TestScore(t *testing.T) {
	Convey("Given a route compared against itself", t, func() {
		route := windingTrack(100)
		score, deviations := similarity.Score(route, route, 20)

		Convey("Self-similarity is exactly 1.0 with zero deviations", func() {
			So(score, ShouldEqual, 1.0)
			So(deviations, ShouldHaveLength, len(route))
			for _, d := range deviations {
				So(d.Meters, ShouldAlmostEqual, 0, 1e-6)
			}
		})
	})

	Convey("Given an empty candidate", t, func() {
		score, deviations := similarity.Score(windingTrack(100), nil, 20)

		Convey("The score is 0", func() {
			So(score, ShouldEqual, 0)
			So(deviations, ShouldBeNil)
		})
	})

	Convey("Given a fixed reference and candidate pair", t, func() {
		reference := windingTrack(100)
		candidate := make(geo.Track, len(reference))
		for i, p := range reference {
			// Offset grows along the ride, so different tolerances admit
			// different fractions of points.
			candidate[i] = geo.Point{Lat: p.Lat, Lon: p.Lon + 0.00001*float64(i)}
		}

		Convey("Score is monotonically non-decreasing in the max deviation", func() {
			prev := -1.0
			for _, maxDev := range []float64{1, 5, 10, 20, 50, 100, 1000} {
				score, _ := similarity.Score(reference, candidate, maxDev)
				So(score, ShouldBeGreaterThanOrEqualTo, prev)
				prev = score
			}
			So(prev, ShouldEqual, 1.0)
		})

		Convey("Identical inputs always yield identical output", func() {
			a, _ := similarity.Score(reference, candidate, 20)
			b, _ := similarity.Score(reference, candidate, 20)
			So(a, ShouldEqual, b)
		})
	})
}

func TestMatcher(t *testing.T) {
	Convey("Given a matcher with default settings", t, func() {
		matcher := similarity.NewMatcher()

		Convey("A 150-point straight route matched against identical points scores a full match", func() {
			route := straightTrack(150, 100.5)
			result := matcher.Match(route, route)

			So(result.Score, ShouldEqual, 1.0)
			So(result.Verified, ShouldBeTrue)
			So(result.Message, ShouldContainSubstring, "100.0%")
		})

		Convey("A candidate with a 500 m detour over 10% of its points still verifies", func() {
			reference := windingTrack(200)
			candidate := make(geo.Track, len(reference))
			copy(candidate, reference)
			for i := 20; i < 40; i++ {
				candidate[i].Lon += 0.0045 // roughly 500 m east
			}

			rawScore, _ := similarity.Score(reference, candidate, 20)
			So(rawScore, ShouldAlmostEqual, 0.9, 0.005)

			result := matcher.Match(reference, candidate)
			So(result.Verified, ShouldBeTrue)
			So(result.Score, ShouldBeBetween, 0.8, 0.98)
		})

		Convey("A candidate far from the route fails with a threshold message", func() {
			reference := windingTrack(200)
			candidate := make(geo.Track, len(reference))
			for i, p := range reference {
				candidate[i] = geo.Point{Lat: p.Lat, Lon: p.Lon + 0.05}
			}

			result := matcher.Match(reference, candidate)
			So(result.Verified, ShouldBeFalse)
			So(result.Score, ShouldBeLessThan, 0.8)
			So(result.Message, ShouldContainSubstring, "below required threshold")
		})

		Convey("Too few points on either side forces a failure without comparison", func() {
			short := windingTrack(5)
			long := windingTrack(100)

			for _, pair := range [][2]geo.Track{{short, long}, {long, short}, {short, short}} {
				result := matcher.Match(pair[0], pair[1])
				So(result.Verified, ShouldBeFalse)
				So(result.Score, ShouldEqual, 0)
				So(result.Message, ShouldContainSubstring, "Not enough GPS points")
			}
		})
	})

	Convey("Given a matcher with a lowered threshold", t, func() {
		matcher := similarity.NewMatcher(similarity.WithThreshold(0.5))

		Convey("The threshold is reported and applied", func() {
			So(matcher.Threshold(), ShouldEqual, 0.5)
		})
	})
}

package geo_test

import (
	"testing"

	"github.com/pablo-ross/komornicka100/internal/domain/geo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDistance(t *testing.T) {
	Convey("Given two points one degree of latitude apart", t, func() {
		a := geo.Point{Lat: 52.0, Lon: 16.5}
		b := geo.Point{Lat: 53.0, Lon: 16.5}

		Convey("The great-circle distance is roughly 111 km", func() {
			d := geo.Distance(a, b)
			So(d, ShouldBeGreaterThan, 110_000)
			So(d, ShouldBeLessThan, 112_000)
		})

		Convey("Distance is symmetric", func() {
			So(geo.Distance(a, b), ShouldAlmostEqual, geo.Distance(b, a), 1e-9)
		})
	})
}

func TestDistanceToPolylineMeters(t *testing.T) {
	Convey("Given a straight north-south polyline", t, func() {
		line := geo.Track{
			{Lat: 52.0, Lon: 16.5},
			{Lat: 52.1, Lon: 16.5},
			{Lat: 52.2, Lon: 16.5},
		}.LineString()

		Convey("A point on the line has zero distance", func() {
			d := geo.DistanceToPolylineMeters(geo.Point{Lat: 52.05, Lon: 16.5}, line)
			So(d, ShouldAlmostEqual, 0, 1e-6)
		})

		Convey("A point offset east measures its planar offset in meters", func() {
			// 0.001 degrees of longitude offset in planar terms.
			d := geo.DistanceToPolylineMeters(geo.Point{Lat: 52.05, Lon: 16.501}, line)
			So(d, ShouldAlmostEqual, 0.001*geo.MetersPerDegree, 1e-6)
		})
	})
}

func TestTrackLength(t *testing.T) {
	Convey("Given tracks of varying size", t, func() {
		Convey("An empty track has zero length", func() {
			So(geo.Track{}.LengthMeters(), ShouldEqual, 0)
		})

		Convey("A single point has zero length", func() {
			So(geo.Track{{Lat: 52, Lon: 16}}.LengthMeters(), ShouldEqual, 0)
		})

		Convey("Length accumulates across segments", func() {
			track := geo.Track{
				{Lat: 52.0, Lon: 16.5},
				{Lat: 52.1, Lon: 16.5},
				{Lat: 52.2, Lon: 16.5},
			}
			So(track.LengthMeters(), ShouldBeGreaterThan, 22_000)
			So(track.LengthMeters(), ShouldBeLessThan, 23_000)
		})
	})
}

func TestLineStringRoundTrip(t *testing.T) {
	Convey("Given a track", t, func() {
		track := geo.Track{{Lat: 52.0, Lon: 16.5}, {Lat: 52.1, Lon: 16.6}}

		Convey("Converting to a line string and back preserves points", func() {
			So(geo.FromLineString(track.LineString()), ShouldResemble, track)
		})
	})
}

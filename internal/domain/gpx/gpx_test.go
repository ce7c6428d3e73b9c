package gpx_test

import (
	"errors"
	"testing"

	"github.com/pablo-ross/komornicka100/internal/domain/gpx"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <trk>
    <name>Komornicka loop</name>
    <trkseg>
      <trkpt lat="52.300000" lon="16.550000"><ele>80</ele></trkpt>
      <trkpt lat="52.301000" lon="16.551000"><ele>81</ele></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="52.302000" lon="16.552000"><ele>82</ele></trkpt>
    </trkseg>
  </trk>
  <trk>
    <trkseg>
      <trkpt lat="52.303000" lon="16.553000"/>
    </trkseg>
  </trk>
</gpx>`

func TestParse(t *testing.T) {
	Convey("Given a GPX file with multiple tracks and segments", t, func() {
		track, err := gpx.Parse([]byte(sampleGPX))

		Convey("All points are extracted in document order", func() {
			So(err, ShouldBeNil)
			So(track, ShouldHaveLength, 4)
			So(track[0].Lat, ShouldAlmostEqual, 52.3)
			So(track[0].Lon, ShouldAlmostEqual, 16.55)
			So(track[3].Lat, ShouldAlmostEqual, 52.303)
		})
	})

	Convey("Given a GPX file without track points", t, func() {
		_, err := gpx.Parse([]byte(`<gpx version="1.1"><trk><trkseg/></trk></gpx>`))

		Convey("ErrNoTrackPoints is returned", func() {
			So(errors.Is(err, gpx.ErrNoTrackPoints), ShouldBeTrue)
		})
	})

	Convey("Given malformed XML", t, func() {
		_, err := gpx.Parse([]byte(`<gpx><trk>`))

		Convey("A parse error is returned", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

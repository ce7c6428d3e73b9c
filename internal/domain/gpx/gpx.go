// Package gpx parses GPX track files into geo.Track values.
package gpx

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/pablo-ross/komornicka100/internal/domain/geo"
)

// Sentinel kinds for GPX errors.
var (
	ErrNoTrackPoints = errors.New("gpx contains no track points")
)

// document mirrors the subset of the GPX 1.1 schema the service reads.
// Waypoints and routes are ignored; only metadata and <trk>/<trkseg>/<trkpt>
// matter.
type document struct {
	XMLName  xml.Name `xml:"gpx"`
	Metadata metadata `xml:"metadata"`
	Tracks   []track  `xml:"trk"`
}

type metadata struct {
	Name        string `xml:"name"`
	Description string `xml:"desc"`
}

type track struct {
	Name        string    `xml:"name"`
	Description string    `xml:"desc"`
	Segments    []segment `xml:"trkseg"`
}

type segment struct {
	Points []trackPoint `xml:"trkpt"`
}

type trackPoint struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

// File is a parsed GPX file: its descriptive metadata plus the concatenated
// track points.
type File struct {
	Name        string
	Description string
	Track       geo.Track
}

// Parse extracts all track points from GPX content, in document order across
// every track and segment.
func Parse(content []byte) (geo.Track, error) {
	f, err := ParseFile(content)
	if err != nil {
		return nil, err
	}
	return f.Track, nil
}

// ParseFile parses GPX content including its name and description. The
// metadata block wins over per-track names when both are present.
func ParseFile(content []byte) (*File, error) {
	var doc document
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	f := &File{
		Name:        doc.Metadata.Name,
		Description: doc.Metadata.Description,
	}
	for _, trk := range doc.Tracks {
		if f.Name == "" {
			f.Name = trk.Name
		}
		if f.Description == "" {
			f.Description = trk.Description
		}
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				f.Track = append(f.Track, geo.Point{Lat: pt.Lat, Lon: pt.Lon})
			}
		}
	}

	if len(f.Track) == 0 {
		return nil, ErrNoTrackPoints
	}
	return f, nil
}

// Package geo contains the geographic value types and distance helpers shared
// by the similarity engine and the verification flow.
package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// MetersPerDegree converts planar distances in decimal degrees to meters.
// Equirectangular approximation: only valid for regionally compact routes
// (single country scale). Both comparison sites must use this constant so
// scores stay consistent.
const MetersPerDegree = 111319.9

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Track is an ordered GPS trace. Insertion order is temporal order along the
// ride; consecutive duplicates are allowed.
type Track []Point

// LineString converts the track to an orb polyline ((lon, lat) order).
func (t Track) LineString() orb.LineString {
	ls := make(orb.LineString, len(t))
	for i, p := range t {
		ls[i] = orb.Point{p.Lon, p.Lat}
	}
	return ls
}

// FromLineString converts an orb polyline back to a Track.
func FromLineString(ls orb.LineString) Track {
	t := make(Track, len(ls))
	for i, p := range ls {
		t[i] = Point{Lat: p[1], Lon: p[0]}
	}
	return t
}

// DistanceToPolylineMeters returns the approximate minimum distance in meters
// from p to the polyline, using the planar degree distance scaled by
// MetersPerDegree.
func DistanceToPolylineMeters(p Point, line orb.LineString) float64 {
	return planar.DistanceFrom(line, orb.Point{p.Lon, p.Lat}) * MetersPerDegree
}

// Distance returns the great-circle distance in meters between two points.
func Distance(a, b Point) float64 {
	return orbgeo.DistanceHaversine(orb.Point{a.Lon, a.Lat}, orb.Point{b.Lon, b.Lat})
}

// LengthMeters returns the total great-circle length of the track in meters.
func (t Track) LengthMeters() float64 {
	var total float64
	for i := 1; i < len(t); i++ {
		total += Distance(t[i-1], t[i])
	}
	return total
}

// Package geomath provides the pixel/geographic value types and the affine
// mapping between them used throughout the application.
package geomath

import (
	"math"
)

// PixelPoint is a position on the map raster, origin at the top-left corner.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPixelPoint creates a new PixelPoint.
func NewPixelPoint(x, y float64) PixelPoint {
	return PixelPoint{X: x, Y: y}
}

// Distance returns the Euclidean distance to another pixel position.
func (p PixelPoint) Distance(other PixelPoint) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// GeoPoint is a geographic coordinate in decimal degrees (WGS 84).
// Latitude is positive north, longitude positive east.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewGeoPoint creates a new GeoPoint.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Lat: lat, Lng: lng}
}

package geomath

import "math"

// earthRadiusMeters is the mean Earth radius used for great-circle distances.
const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance in meters between two geographic
// points, using the haversine formula. Inputs are decimal degrees.
func Distance(p1, p2 GeoPoint) float64 {
	dLat := degreesToRadians(p2.Lat - p1.Lat)
	dLng := degreesToRadians(p2.Lng - p1.Lng)

	rLat1 := degreesToRadians(p1.Lat)
	rLat2 := degreesToRadians(p2.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// README: Great-circle distance helpers (pure; no I/O).
package trip

import "math"

// earthRadiusMeters is the IUGG mean earth radius R1 in meters, the radius
// the common haversine packages use, so distances agree with them.
const earthRadiusMeters = 6371008.8

// haversineMeters returns the great-circle distance in meters between two
// points specified in decimal degrees, on a spherical earth.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

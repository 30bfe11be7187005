package dedupe

import "math"

const earthRadiusMeters = 6371000

// haversineMeters returns the great-circle distance between two points.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// proximityScore maps distance to [0,1]: full score inside innerRadius,
// linear falloff to zero at outerRadius.
func proximityScore(distanceMeters, innerRadius, outerRadius float64) float64 {
	switch {
	case distanceMeters <= innerRadius:
		return 1
	case distanceMeters >= outerRadius:
		return 0
	default:
		return 1 - (distanceMeters-innerRadius)/(outerRadius-innerRadius)
	}
}

package attendance

import "math"

const earthRadiusMeters = 6371000.0

// Geofence is a circle around the office. A disabled fence accepts any position.
type Geofence struct {
	Enabled      bool
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Check returns the distance to the office and whether it is inside the radius.
// When the fence is enabled a missing position is rejected.
func (g Geofence) Check(lat, lng *float64) (*float64, error) {
	if !g.Enabled {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, ErrLocationRequired
	}

	distance := HaversineMeters(g.Latitude, g.Longitude, *lat, *lng)
	if distance > g.RadiusMeters {
		return &distance, ErrOutsideGeofence
	}
	return &distance, nil
}

// HaversineMeters is the great-circle distance between two WGS84 points.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

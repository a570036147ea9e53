package tracking

import "github.com/opl224/fitgo/internal/shared/geo"

const (
	// Consumer GPS jitters by a few meters while standing still; anything
	// at or under this displacement is treated as stationary noise.
	minDisplacementKm = 0.002
	// Fixes at or above this reported accuracy are too imprecise to trust.
	maxAccuracyM = 35
)

// ShouldAccept reports whether a raw fix may extend the path and the
// distance/elevation totals. The first fix of a session seeds the path
// unconditionally and contributes no distance.
func ShouldAccept(candidate GeoFix, last *TrackPoint) bool {
	if last == nil {
		return true
	}
	d := geo.HaversineKm(last.Latitude, last.Longitude, candidate.Latitude, candidate.Longitude)
	return d > minDisplacementKm && candidate.AccuracyM < maxAccuracyM
}

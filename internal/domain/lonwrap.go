// Package domain holds the pure grid and series math used by the
// nearest-water resolver.
package domain

import "math"

// WrapLon360 maps a degree longitude into the 360 convention. Positive
// multiples of 360 stay at 360 rather than collapsing to zero.
func WrapLon360(lon float64) float64 {
	positive := lon > 0
	lon = math.Mod(lon, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	if lon == 0 && positive {
		return 360.0
	}
	return lon
}

// WrapLon180 maps a degree longitude into the [-180, 180] convention.
// Values already inside the range are returned unchanged, so wrapping is
// idempotent.
func WrapLon180(lon float64) float64 {
	if lon < -180.0 || lon > 180.0 {
		return WrapLon360(lon+180.0) - 180.0
	}
	return lon
}

// WrapLon180Slice returns a copy of lons with every value wrapped into the
// 180 convention.
func WrapLon180Slice(lons []float64) []float64 {
	out := make([]float64, len(lons))
	for i, lon := range lons {
		out[i] = WrapLon180(lon)
	}
	return out
}

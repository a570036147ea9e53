// Package display converts metric snapshot values into user-facing strings.
// The tracking engine always works in kilometers and seconds; unit handling
// lives here so converting never touches session state.
package display

import (
	"fmt"
	"math"
)

type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
	Custom   UnitSystem = "custom"
)

const (
	kmPerMile    = 1.60934
	milesPerKm   = 0.621371
	feetPerMeter = 3.28084
)

// FormatTime renders elapsed seconds as M:SS, or H:MM:SS past one hour.
func FormatTime(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatPaceSeconds renders a pace in seconds-per-unit as M'SS".
func FormatPaceSeconds(seconds float64) string {
	pMin := int(seconds) / 60
	pSec := int(seconds) % 60
	return fmt.Sprintf("%d'%02d\"", pMin, pSec)
}

// Pace renders seconds-per-km for the given unit system. Zero, infinite and
// slower-than-an-hour paces all display as no pace.
func Pace(secondsPerKm float64, system UnitSystem) string {
	if secondsPerKm == 0 || math.IsInf(secondsPerKm, 0) || math.IsNaN(secondsPerKm) || secondsPerKm > 3600 {
		return "--'--\""
	}
	if system == Imperial {
		return FormatPaceSeconds(secondsPerKm * kmPerMile)
	}
	return FormatPaceSeconds(secondsPerKm)
}

// Distance converts kilometers into a display value and unit label.
func Distance(km float64, system UnitSystem, customUnit string) (string, string) {
	if system == Custom && customUnit != "" {
		return fmt.Sprintf("%.2f", km), customUnit
	}
	if system == Imperial {
		return fmt.Sprintf("%.2f", km*milesPerKm), "mi"
	}
	return fmt.Sprintf("%.2f", km), "km"
}

// Speed converts a pace in seconds-per-km into km/h or mph.
func Speed(secondsPerKm float64, system UnitSystem) (string, string) {
	unit := "km/h"
	if system == Imperial {
		unit = "mph"
	}
	if secondsPerKm <= 0 || math.IsInf(secondsPerKm, 0) || math.IsNaN(secondsPerKm) {
		return "0.0", unit
	}
	kmh := 3600 / secondsPerKm
	if system == Imperial {
		return fmt.Sprintf("%.1f", kmh*milesPerKm), unit
	}
	return fmt.Sprintf("%.1f", kmh), unit
}

// Altitude converts meters into a display value and unit label. A nil
// altitude renders as a placeholder since the sensor may not report one.
func Altitude(meters *float64, system UnitSystem, customUnit string) (string, string) {
	unit := "m"
	if system == Imperial {
		unit = "ft"
	}
	if system == Custom && customUnit != "" {
		unit = customUnit
	}
	if meters == nil {
		return "--", unit
	}
	if system == Imperial {
		return fmt.Sprintf("%d", int(math.Round(*meters*feetPerMeter))), unit
	}
	return fmt.Sprintf("%d", int(math.Round(*meters))), unit
}

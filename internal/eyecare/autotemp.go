package eyecare

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Sun altitude thresholds for the automatic temperature curve, in
// degrees. Below nightAltitude the night temperature applies in full;
// above dayAltitude the day temperature; in between the target blends
// linearly so twilight produces a gradual warm-up instead of a jump.
const (
	nightAltitudeDeg = -6.0 // civil twilight
	dayAltitudeDeg   = 10.0
)

// TargetTemperature derives the color temperature for the given instant
// and location from the sun's altitude. Deterministic for a fixed
// time, which keeps it testable.
func TargetTemperature(t time.Time, lat, lon float64, dayK, nightK int) int {
	position := suncalc.GetPosition(t, lat, lon)
	altitude := position.Altitude * (180.0 / math.Pi)

	switch {
	case altitude <= nightAltitudeDeg:
		return nightK
	case altitude >= dayAltitudeDeg:
		return dayK
	default:
		// Linear blend through twilight
		fraction := (altitude - nightAltitudeDeg) / (dayAltitudeDeg - nightAltitudeDeg)
		return nightK + int(fraction*float64(dayK-nightK)+0.5)
	}
}

package gamma

import (
	"math"

	"github.com/mkivikoski/eyeguard/internal/colortemp"
)

// RampSize is the number of lookup entries per channel, fixed by the
// display pipeline.
const RampSize = 256

// Ramp is a per-channel lookup table mapping input intensity (the index)
// to output intensity. Each channel is monotonically non-decreasing and
// entry 0 is always 0.
type Ramp struct {
	Red   [RampSize]uint16
	Green [RampSize]uint16
	Blue  [RampSize]uint16
}

// Identity returns the no-op ramp where output equals input.
//
// Rounding rule: entry[i] = min(65535, i*256). This deliberately tops out
// at 65280 instead of the true linear 65535 at i=255; the same rule is
// used by Build so that Build(White, 100, PolicyNone) and Identity are
// bit-for-bit identical, which keeps "restore" and "apply neutral"
// observably the same operation.
func Identity() Ramp {
	var ramp Ramp
	for i := 0; i < RampSize; i++ {
		v := entryValue(float64(i), 1.0)
		ramp.Red[i] = v
		ramp.Green[i] = v
		ramp.Blue[i] = v
	}
	return ramp
}

// Build combines a temperature ratio, a brightness percentage and a
// compensation policy into a gamma ramp.
//
// Brightness outside [0, 100] is clamped, never rejected; the clamped
// value is the effective setting. Each channel is linear in the index
// with a non-negative coefficient, so the monotonicity invariant holds
// by construction.
func Build(ratio colortemp.Ratio, brightnessPct int, policy Policy) Ramp {
	adjusted := policy.Apply(ratio)

	if brightnessPct < 0 {
		brightnessPct = 0
	}
	if brightnessPct > 100 {
		brightnessPct = 100
	}
	brightness := float64(brightnessPct) / 100.0

	var ramp Ramp
	for i := 0; i < RampSize; i++ {
		idx := float64(i)
		ramp.Red[i] = entryValue(idx, adjusted.R*brightness)
		ramp.Green[i] = entryValue(idx, adjusted.G*brightness)
		ramp.Blue[i] = entryValue(idx, adjusted.B*brightness)
	}
	return ramp
}

// entryValue computes clamp(round(i * 256 * coefficient), 0, 65535).
func entryValue(index, coefficient float64) uint16 {
	v := math.Round(index * 256.0 * coefficient)
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}

package colortemp

import "math"

// Model domain for color temperatures. Values outside are clamped, never
// rejected, so callers can pass raw user input.
const (
	MinKelvin = 1000.0
	MaxKelvin = 40000.0

	// NeutralKelvin is the whitepoint: the temperature that maps to a
	// unity ratio on all three channels.
	NeutralKelvin = 6500.0
)

// Ratio is a normalized per-channel RGB intensity, each in [0.0, 1.0]
type Ratio struct {
	R float64
	G float64
	B float64
}

// White is the unity ratio produced at the neutral whitepoint
var White = Ratio{R: 1.0, G: 1.0, B: 1.0}

// KelvinToRGB converts a color temperature in Kelvin to a normalized RGB
// intensity ratio using the blackbody curve approximation. Lower
// temperatures attenuate green and blue (warm), higher temperatures
// attenuate red (cool).
//
// The input is clamped to [MinKelvin, MaxKelvin]. NeutralKelvin returns
// White exactly so that a ramp built from it is the identity ramp.
// Pure function, no side effects.
func KelvinToRGB(kelvin float64) Ratio {
	k := clamp(kelvin, MinKelvin, MaxKelvin)

	// The raw approximation crosses unity slightly above 6500K. Pin the
	// whitepoint so enabling eye care at the neutral temperature is
	// observably a no-op.
	if k == NeutralKelvin {
		return White
	}

	t := k / 100.0

	var r, g, b float64

	// Red channel
	if t <= 66 {
		r = 255
	} else {
		r = 329.698727446 * math.Pow(t-60, -0.1332047592)
	}

	// Green channel
	switch {
	case t <= 1:
		g = 0
	case t <= 66:
		g = 99.4708025861*math.Log(t) - 161.1195681661
	default:
		g = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}

	// Blue channel
	switch {
	case t >= 66:
		b = 255
	case t <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(t-10) - 305.0447927307
	}

	return Ratio{
		R: clamp(r, 0, 255) / 255.0,
		G: clamp(g, 0, 255) / 255.0,
		B: clamp(b, 0, 255) / 255.0,
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

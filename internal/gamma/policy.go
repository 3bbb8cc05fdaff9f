package gamma

import (
	"fmt"

	"github.com/mkivikoski/eyeguard/internal/colortemp"
)

// PolicyKind selects how color-temperature-induced darkening is offset
// before the ramp is built.
type PolicyKind int

const (
	// PolicyNone applies the raw temperature ratio unchanged.
	PolicyNone PolicyKind = iota

	// PolicyLuminanceNormalize scales all channels so the perceptual
	// luminance returns toward 1.0, limited by Cap.
	PolicyLuminanceNormalize

	// PolicyMaxChannelNormalize scales all channels so the brightest
	// channel reaches exactly 1.0.
	PolicyMaxChannelNormalize

	// PolicyStrengthBlend blends each channel toward 1.0 by the
	// configured strength, optionally followed by max-channel
	// normalization.
	PolicyStrengthBlend
)

// Channels below this are treated as black to avoid amplifying noise
// with a huge normalization factor.
const normalizeFloor = 0.01

// Policy is a tagged compensation variant. Kind selects the behavior;
// the remaining fields only apply to the kinds that name them.
type Policy struct {
	Kind PolicyKind

	// Cap bounds the luminance normalization factor
	// (PolicyLuminanceNormalize only). Zero or negative means uncapped.
	Cap float64

	// Strength in [0, 1] is how much of the temperature tint is kept
	// (PolicyStrengthBlend only). 1.0 keeps the full tint.
	Strength float64

	// MaxChannelNormalize runs a max-channel pass after the blend
	// (PolicyStrengthBlend only).
	MaxChannelNormalize bool
}

// DefaultPolicy returns the compensation applied when nothing else is
// configured: a strength blend with max-channel normalization, which
// keeps perceived brightness closest to the pre-tint level.
func DefaultPolicy() Policy {
	return Policy{
		Kind:                PolicyStrengthBlend,
		Strength:            0.85,
		MaxChannelNormalize: true,
	}
}

// Apply transforms a temperature ratio into the adjusted ratio the ramp
// is built from. The result stays within [0, 1] per channel.
func (p Policy) Apply(ratio colortemp.Ratio) colortemp.Ratio {
	switch p.Kind {
	case PolicyNone:
		return ratio

	case PolicyLuminanceNormalize:
		return luminanceNormalize(ratio, p.Cap)

	case PolicyMaxChannelNormalize:
		return maxChannelNormalize(ratio)

	case PolicyStrengthBlend:
		adjusted := strengthBlend(ratio, p.Strength)
		if p.MaxChannelNormalize {
			adjusted = maxChannelNormalize(adjusted)
		}
		return adjusted

	default:
		return ratio
	}
}

// luminanceNormalize scales the ratio by min(cap, 1/L) where L is the
// Rec. 709 perceptual luminance, clamping each channel back to 1.0.
func luminanceNormalize(ratio colortemp.Ratio, cap float64) colortemp.Ratio {
	luminance := 0.2126*ratio.R + 0.7152*ratio.G + 0.0722*ratio.B
	if luminance <= normalizeFloor {
		return ratio
	}

	factor := 1.0 / luminance
	if cap > 0 && factor > cap {
		factor = cap
	}

	return colortemp.Ratio{
		R: clampUnit(ratio.R * factor),
		G: clampUnit(ratio.G * factor),
		B: clampUnit(ratio.B * factor),
	}
}

// maxChannelNormalize scales the ratio so the brightest channel reaches
// 1.0. The other channels cannot exceed 1.0 by construction.
func maxChannelNormalize(ratio colortemp.Ratio) colortemp.Ratio {
	max := ratio.R
	if ratio.G > max {
		max = ratio.G
	}
	if ratio.B > max {
		max = ratio.B
	}

	if max <= normalizeFloor {
		return ratio
	}

	return colortemp.Ratio{
		R: ratio.R / max,
		G: ratio.G / max,
		B: ratio.B / max,
	}
}

// strengthBlend moves each channel toward 1.0 by (1 - strength):
// adjusted = 1 - (1 - channel) * strength. Strength is clamped to [0, 1].
func strengthBlend(ratio colortemp.Ratio, strength float64) colortemp.Ratio {
	s := strength
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}

	return colortemp.Ratio{
		R: 1 - (1-ratio.R)*s,
		G: 1 - (1-ratio.G)*s,
		B: 1 - (1-ratio.B)*s,
	}
}

func clampUnit(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

// Policy labels used in persisted settings and MQTT commands
const (
	PolicyLabelNone          = "none"
	PolicyLabelLuminance     = "luminance"
	PolicyLabelMaxChannel    = "max_channel"
	PolicyLabelStrengthBlend = "strength_blend"
)

// Label returns the wire name of the policy kind.
func (p Policy) Label() string {
	switch p.Kind {
	case PolicyLuminanceNormalize:
		return PolicyLabelLuminance
	case PolicyMaxChannelNormalize:
		return PolicyLabelMaxChannel
	case PolicyStrengthBlend:
		return PolicyLabelStrengthBlend
	default:
		return PolicyLabelNone
	}
}

// ParsePolicy builds a Policy from its wire representation: the label
// plus a strength percentage (strength blend) and a luminance cap.
// Unknown labels fall back to the default policy rather than failing,
// so a stale settings document never takes the engine down.
func ParsePolicy(label string, strengthPct int, cap float64) (Policy, error) {
	switch label {
	case PolicyLabelNone:
		return Policy{Kind: PolicyNone}, nil
	case PolicyLabelLuminance:
		return Policy{Kind: PolicyLuminanceNormalize, Cap: cap}, nil
	case PolicyLabelMaxChannel:
		return Policy{Kind: PolicyMaxChannelNormalize}, nil
	case PolicyLabelStrengthBlend, "":
		if strengthPct < 0 {
			strengthPct = 0
		}
		if strengthPct > 100 {
			strengthPct = 100
		}
		return Policy{
			Kind:                PolicyStrengthBlend,
			Strength:            float64(strengthPct) / 100.0,
			MaxChannelNormalize: true,
		}, nil
	default:
		return DefaultPolicy(), fmt.Errorf("unknown compensation policy %q", label)
	}
}

// StrengthPct returns the blend strength as a percentage for persistence.
func (p Policy) StrengthPct() int {
	return int(p.Strength*100 + 0.5)
}

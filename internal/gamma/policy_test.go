package gamma

import (
	"math"
	"testing"

	"github.com/mkivikoski/eyeguard/internal/colortemp"
)

func TestPolicyNone_Unchanged(t *testing.T) {
	ratio := colortemp.Ratio{R: 1.0, G: 0.7, B: 0.4}

	adjusted := Policy{Kind: PolicyNone}.Apply(ratio)

	if adjusted != ratio {
		t.Errorf("expected unchanged ratio, got %+v", adjusted)
	}
}

func TestPolicyLuminanceNormalize(t *testing.T) {
	ratio := colortemp.Ratio{R: 1.0, G: 0.65, B: 0.34}
	luminance := 0.2126*ratio.R + 0.7152*ratio.G + 0.0722*ratio.B

	// Uncapped: green scales by exactly 1/L, red clamps at 1.0
	adjusted := Policy{Kind: PolicyLuminanceNormalize}.Apply(ratio)

	expectedG := ratio.G / luminance
	if math.Abs(adjusted.G-expectedG) > 1e-9 {
		t.Errorf("expected green %v, got %v", expectedG, adjusted.G)
	}
	if adjusted.R != 1.0 {
		t.Errorf("expected red clamped to 1.0, got %v", adjusted.R)
	}

	// Capped: factor limited to the cap
	capped := Policy{Kind: PolicyLuminanceNormalize, Cap: 1.1}.Apply(ratio)
	if math.Abs(capped.G-ratio.G*1.1) > 1e-9 {
		t.Errorf("expected green scaled by cap 1.1, got %v", capped.G)
	}
}

func TestPolicyLuminanceNormalize_NearBlackUntouched(t *testing.T) {
	ratio := colortemp.Ratio{R: 0.005, G: 0.003, B: 0.0}

	adjusted := Policy{Kind: PolicyLuminanceNormalize}.Apply(ratio)

	if adjusted != ratio {
		t.Error("expected near-black ratio to pass through without amplification")
	}
}

func TestPolicyMaxChannelNormalize(t *testing.T) {
	ratio := colortemp.Ratio{R: 0.8, G: 0.6, B: 0.4}

	adjusted := Policy{Kind: PolicyMaxChannelNormalize}.Apply(ratio)

	if adjusted.R != 1.0 {
		t.Errorf("expected brightest channel at 1.0, got %v", adjusted.R)
	}
	if math.Abs(adjusted.G-0.75) > 1e-9 || math.Abs(adjusted.B-0.5) > 1e-9 {
		t.Errorf("expected channel proportions preserved, got %+v", adjusted)
	}
}

func TestPolicyStrengthBlend(t *testing.T) {
	ratio := colortemp.Ratio{R: 1.0, G: 0.6, B: 0.2}

	// Full strength keeps the tint
	full := Policy{Kind: PolicyStrengthBlend, Strength: 1.0}.Apply(ratio)
	if full != ratio {
		t.Errorf("expected full strength to keep the ratio, got %+v", full)
	}

	// Zero strength removes the tint entirely
	none := Policy{Kind: PolicyStrengthBlend, Strength: 0.0}.Apply(ratio)
	if none != colortemp.White {
		t.Errorf("expected zero strength to produce white, got %+v", none)
	}

	// Half strength lands halfway toward white
	half := Policy{Kind: PolicyStrengthBlend, Strength: 0.5}.Apply(ratio)
	if math.Abs(half.G-0.8) > 1e-9 || math.Abs(half.B-0.6) > 1e-9 {
		t.Errorf("expected half blend (1.0, 0.8, 0.6), got %+v", half)
	}

	// Out-of-range strength clamps instead of overshooting
	over := Policy{Kind: PolicyStrengthBlend, Strength: 1.5}.Apply(ratio)
	if over != ratio {
		t.Errorf("expected strength above 1 to clamp to 1, got %+v", over)
	}
}

func TestPolicyStrengthBlend_WithMaxChannel(t *testing.T) {
	ratio := colortemp.Ratio{R: 0.9, G: 0.6, B: 0.3}

	policy := Policy{Kind: PolicyStrengthBlend, Strength: 0.5, MaxChannelNormalize: true}
	adjusted := policy.Apply(ratio)

	// Blend gives (0.95, 0.8, 0.65); normalization lifts red to 1.0
	if adjusted.R != 1.0 {
		t.Errorf("expected normalized red at 1.0, got %v", adjusted.R)
	}
	if math.Abs(adjusted.G-0.8/0.95) > 1e-9 {
		t.Errorf("expected green %v, got %v", 0.8/0.95, adjusted.G)
	}
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	if policy.Kind != PolicyStrengthBlend {
		t.Errorf("expected strength blend default, got kind %d", policy.Kind)
	}
	if !policy.MaxChannelNormalize {
		t.Error("expected max-channel normalization enabled by default")
	}

	// The default must never darken the brightest channel
	adjusted := policy.Apply(colortemp.KelvinToRGB(2700))
	if adjusted.R != 1.0 {
		t.Errorf("expected brightest channel at 1.0 under default policy, got %v", adjusted.R)
	}
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		label       string
		strengthPct int
		cap         float64
		expectKind  PolicyKind
		expectErr   bool
	}{
		{"none", 0, 0, PolicyNone, false},
		{"luminance", 0, 1.5, PolicyLuminanceNormalize, false},
		{"max_channel", 0, 0, PolicyMaxChannelNormalize, false},
		{"strength_blend", 85, 0, PolicyStrengthBlend, false},
		{"", 85, 0, PolicyStrengthBlend, false},
		{"bogus", 0, 0, PolicyStrengthBlend, true},
	}

	for _, tc := range testCases {
		policy, err := ParsePolicy(tc.label, tc.strengthPct, tc.cap)

		if tc.expectErr && err == nil {
			t.Errorf("label %q: expected error", tc.label)
		}
		if !tc.expectErr && err != nil {
			t.Errorf("label %q: unexpected error %v", tc.label, err)
		}
		if policy.Kind != tc.expectKind {
			t.Errorf("label %q: expected kind %d, got %d", tc.label, tc.expectKind, policy.Kind)
		}
	}

	// Round trip strength through the percentage representation
	policy, _ := ParsePolicy("strength_blend", 85, 0)
	if policy.StrengthPct() != 85 {
		t.Errorf("expected strength 85%%, got %d", policy.StrengthPct())
	}
	if policy.Label() != "strength_blend" {
		t.Errorf("unexpected label %q", policy.Label())
	}
}

package eyecare

import (
	"github.com/mkivikoski/eyeguard/internal/gamma"
	"github.com/mkivikoski/eyeguard/pkg/config"
)

// Settings is the complete user-facing state of the daemon. Owned by
// the Controller; mutated only through its setters and persisted on
// every mutation.
type Settings struct {
	Enabled                 bool
	TemperatureK            int
	BrightnessPct           int
	Policy                  gamma.Policy
	ReminderEnabled         bool
	ReminderIntervalMinutes int

	// MinimizeToTray belongs to the external tray UI; the daemon only
	// persists it so UI restarts keep the preference.
	MinimizeToTray bool
}

// DefaultSettings builds the in-memory fallback used when no persisted
// settings exist or the store is unavailable.
func DefaultSettings(cfg *config.Config) Settings {
	policy, err := gamma.ParsePolicy(cfg.CompensationPolicy, cfg.CompensationStrengthPct, cfg.LuminanceCap)
	if err != nil {
		policy = gamma.DefaultPolicy()
	}

	return Settings{
		Enabled:                 true,
		TemperatureK:            cfg.DefaultTemperatureK,
		BrightnessPct:           cfg.DefaultBrightnessPct,
		Policy:                  policy,
		ReminderEnabled:         cfg.DefaultReminderEnabled,
		ReminderIntervalMinutes: cfg.DefaultReminderMinutes,
		MinimizeToTray:          true,
	}
}

// settingsDoc is the persisted key-value document. Pointer fields
// distinguish missing keys from zero values so partial documents merge
// over defaults; unknown keys in the stored document are ignored by
// the JSON decoder.
type settingsDoc struct {
	Enabled          *bool    `json:"enabled,omitempty"`
	Temperature      *int     `json:"temperature,omitempty"`
	Brightness       *int     `json:"brightness,omitempty"`
	Compensation     *string  `json:"compensation,omitempty"`
	Strength         *int     `json:"strength,omitempty"`
	LuminanceCap     *float64 `json:"luminance_cap,omitempty"`
	ReminderEnabled  *bool    `json:"reminder_enabled,omitempty"`
	ReminderInterval *int     `json:"reminder_interval,omitempty"`
	MinimizeToTray   *bool    `json:"minimize_to_tray,omitempty"`
}

// toDoc converts settings to their persisted representation.
func toDoc(s Settings) settingsDoc {
	label := s.Policy.Label()
	strength := s.Policy.StrengthPct()
	cap := s.Policy.Cap

	return settingsDoc{
		Enabled:          &s.Enabled,
		Temperature:      &s.TemperatureK,
		Brightness:       &s.BrightnessPct,
		Compensation:     &label,
		Strength:         &strength,
		LuminanceCap:     &cap,
		ReminderEnabled:  &s.ReminderEnabled,
		ReminderInterval: &s.ReminderIntervalMinutes,
		MinimizeToTray:   &s.MinimizeToTray,
	}
}

// mergeDoc overlays the present keys of a persisted document onto the
// defaults. Absent keys keep their default; a bad compensation label
// keeps the default policy.
func mergeDoc(defaults Settings, doc settingsDoc) Settings {
	s := defaults

	if doc.Enabled != nil {
		s.Enabled = *doc.Enabled
	}
	if doc.Temperature != nil {
		s.TemperatureK = *doc.Temperature
	}
	if doc.Brightness != nil {
		s.BrightnessPct = *doc.Brightness
	}
	if doc.Compensation != nil {
		strength := s.Policy.StrengthPct()
		if doc.Strength != nil {
			strength = *doc.Strength
		}
		cap := s.Policy.Cap
		if doc.LuminanceCap != nil {
			cap = *doc.LuminanceCap
		}
		if policy, err := gamma.ParsePolicy(*doc.Compensation, strength, cap); err == nil {
			s.Policy = policy
		}
	}
	if doc.ReminderEnabled != nil {
		s.ReminderEnabled = *doc.ReminderEnabled
	}
	if doc.ReminderInterval != nil {
		s.ReminderIntervalMinutes = *doc.ReminderInterval
	}
	if doc.MinimizeToTray != nil {
		s.MinimizeToTray = *doc.MinimizeToTray
	}

	return s
}

package eyecare

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mkivikoski/eyeguard/internal/colortemp"
	"github.com/mkivikoski/eyeguard/internal/gamma"
	"github.com/mkivikoski/eyeguard/pkg/config"
)

// Controller ties user intent to ramp computation and application. It
// owns the Settings exclusively: every mutation goes through a setter,
// recomputes and applies the ramp when eye care is enabled, and
// persists the new state.
//
// Setters run on the MQTT handler goroutine while the scheduler and
// publishers read snapshots; the mutex guarantees no torn reads.
type Controller struct {
	mu       sync.Mutex
	settings Settings

	sink   gamma.Sink
	store  Store
	logger *slog.Logger

	minTempK int
	maxTempK int

	shutdownOnce sync.Once
	stopped      bool
}

// NewController creates a controller with the given initial settings.
// Loaded values are clamped to the same ranges the setters enforce, so
// a hand-edited settings document never surfaces an out-of-range value
// in snapshots or published state. The initial state is not applied to
// the display until Startup.
func NewController(initial Settings, sink gamma.Sink, store Store, cfg *config.Config, logger *slog.Logger) *Controller {
	initial.TemperatureK = clampInt(initial.TemperatureK, cfg.MinTemperatureK, cfg.MaxTemperatureK)
	initial.BrightnessPct = clampInt(initial.BrightnessPct, 0, 100)
	if initial.ReminderIntervalMinutes < 1 {
		initial.ReminderIntervalMinutes = 1
	}

	return &Controller{
		settings: initial,
		sink:     sink,
		store:    store,
		logger:   logger,
		minTempK: cfg.MinTemperatureK,
		maxTempK: cfg.MaxTemperatureK,
	}
}

// Startup applies the loaded settings to the display if eye care is
// enabled. Called once after construction.
func (c *Controller) Startup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settings.Enabled {
		c.applyLocked()
	}
}

// Snapshot returns a consistent copy of the current settings.
func (c *Controller) Snapshot() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SetEnabled turns eye care on or off. Disabling always restores the
// identity ramp synchronously before returning, regardless of sink
// failures along the way.
func (c *Controller) SetEnabled(ctx context.Context, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.Enabled = enabled
	if enabled {
		c.applyLocked()
	} else {
		c.restoreLocked()
	}
	c.persistLocked(ctx)
}

// SetTemperature sets the color temperature in Kelvin. Out-of-range
// values clamp to the deployment range; the clamped value is the
// effective setting and the one persisted.
func (c *Controller) SetTemperature(ctx context.Context, kelvin int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	clamped := clampInt(kelvin, c.minTempK, c.maxTempK)
	if clamped != kelvin {
		c.logger.Debug("Temperature outside deployment range, clamped",
			"requested", kelvin, "effective", clamped)
	}

	c.settings.TemperatureK = clamped
	if c.settings.Enabled {
		c.applyLocked()
	}
	c.persistLocked(ctx)
}

// SetBrightness sets the brightness percentage, clamped to [0, 100].
func (c *Controller) SetBrightness(ctx context.Context, pct int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	clamped := clampInt(pct, 0, 100)
	if clamped != pct {
		c.logger.Debug("Brightness outside [0, 100], clamped",
			"requested", pct, "effective", clamped)
	}

	c.settings.BrightnessPct = clamped
	if c.settings.Enabled {
		c.applyLocked()
	}
	c.persistLocked(ctx)
}

// SetPolicy selects the brightness compensation policy.
func (c *Controller) SetPolicy(ctx context.Context, policy gamma.Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.Policy = policy
	if c.settings.Enabled {
		c.applyLocked()
	}
	c.persistLocked(ctx)
}

// ApplyPreset sets the temperature and forces eye care on, the "click a
// preset and see it" path.
func (c *Controller) ApplyPreset(ctx context.Context, kelvin int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.TemperatureK = clampInt(kelvin, c.minTempK, c.maxTempK)
	c.settings.Enabled = true
	c.applyLocked()
	c.persistLocked(ctx)
}

// SetReminderEnabled toggles the rest reminder.
func (c *Controller) SetReminderEnabled(ctx context.Context, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.ReminderEnabled = enabled
	c.persistLocked(ctx)
}

// SetReminderInterval sets the rest reminder interval in minutes.
func (c *Controller) SetReminderInterval(ctx context.Context, minutes int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if minutes < 1 {
		minutes = 1
	}
	c.settings.ReminderIntervalMinutes = minutes
	c.persistLocked(ctx)
}

// SetMinimizeToTray persists the tray preference for the external UI.
func (c *Controller) SetMinimizeToTray(ctx context.Context, minimize bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.MinimizeToTray = minimize
	c.persistLocked(ctx)
}

// Reset restores the neutral defaults: 6500K, full brightness, default
// policy, eye care off, display back to identity.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.TemperatureK = int(colortemp.NeutralKelvin)
	c.settings.BrightnessPct = 100
	c.settings.Policy = gamma.DefaultPolicy()
	c.settings.Enabled = false
	c.restoreLocked()
	c.persistLocked(ctx)
}

// Shutdown restores the identity ramp and releases the sink, exactly
// once. Safe to call from multiple paths; later calls are no-ops.
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.restoreLocked()
		c.stopped = true
		c.sink.Close()
		c.logger.Info("Display restored and gamma sink released")
	})
}

// GammaSupported reports whether the platform offers ramp control.
func (c *Controller) GammaSupported() bool {
	return c.sink.Supported()
}

// applyLocked recomputes the ramp from the current settings and
// installs it. A failed apply leaves the previous visual state in
// place; it is logged and swallowed, never retried in a loop. Once
// Shutdown has restored the display nothing may touch it again, so a
// setter racing shutdown keeps its settings change but skips the sink.
func (c *Controller) applyLocked() {
	if c.stopped {
		return
	}

	ratio := colortemp.KelvinToRGB(float64(c.settings.TemperatureK))
	ramp := gamma.Build(ratio, c.settings.BrightnessPct, c.settings.Policy)

	if !c.sink.Apply(ramp) {
		if c.sink.Supported() {
			c.logger.Warn("Failed to apply gamma ramp, keeping previous display state",
				"temperature_k", c.settings.TemperatureK,
				"brightness_pct", c.settings.BrightnessPct)
		}
		return
	}

	c.logger.Info("Applied gamma ramp",
		"temperature_k", c.settings.TemperatureK,
		"brightness_pct", c.settings.BrightnessPct,
		"policy", c.settings.Policy.Label())
}

// restoreLocked resets the display to identity.
func (c *Controller) restoreLocked() {
	if c.stopped {
		return
	}
	if !c.sink.RestoreIdentity() && c.sink.Supported() {
		c.logger.Warn("Failed to restore identity ramp")
	}
}

// persistLocked saves the settings after a mutation. Store trouble is
// logged and swallowed: persistence failures never block the visual
// change that already happened.
func (c *Controller) persistLocked(ctx context.Context) {
	if err := c.store.Save(ctx, c.settings); err != nil {
		c.logger.Warn("Failed to persist settings, continuing with in-memory state", "error", err)
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

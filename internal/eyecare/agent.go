package eyecare

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mkivikoski/eyeguard/internal/gamma"
	"github.com/mkivikoski/eyeguard/internal/history"
	"github.com/mkivikoski/eyeguard/internal/reminder"
	"github.com/mkivikoski/eyeguard/pkg/config"
	"github.com/mkivikoski/eyeguard/pkg/mqtt"
	"github.com/mkivikoski/eyeguard/pkg/redis"
)

// Presets are the named temperature shortcuts the UI exposes. Applying
// one forces eye care on.
var Presets = map[string]int{
	"daylight": 6500,
	"sunset":   4000,
	"warm":     3500,
	"candle":   2700,
}

// Agent is the MQTT-facing shell around the controller and the reminder
// scheduler: commands in, state context and reminder events out.
type Agent struct {
	mqtt       mqtt.Client
	redis      redis.Client // optional countdown mirror, may be nil
	controller *Controller
	scheduler  *reminder.Scheduler
	history    history.Recorder
	cfg        *config.Config
	logger     *slog.Logger

	autoTicker *time.Ticker
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

// NewAgent wires the agent. redisClient may be nil when no mirror is
// configured; recorder may be the noop recorder.
func NewAgent(
	mqttClient mqtt.Client,
	redisClient redis.Client,
	controller *Controller,
	scheduler *reminder.Scheduler,
	recorder history.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *Agent {
	return &Agent{
		mqtt:       mqttClient,
		redis:      redisClient,
		controller: controller,
		scheduler:  scheduler,
		history:    recorder,
		cfg:        cfg,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start connects to the broker, applies the loaded settings, and runs
// until the context is cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting eyecare agent",
		"service_name", a.cfg.ServiceName,
		"gamma_supported", a.controller.GammaSupported(),
		"auto_temp", a.cfg.AutoTempEnabled)

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicSettingsCommand, 0, a.handleSettingsCommand); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicSettingsCommand, err)
	}
	if err := a.mqtt.Subscribe(mqtt.TopicPresetCommands, 0, a.handlePresetCommand); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicPresetCommands, err)
	}

	// Put the loaded settings on the display, then advertise them
	a.controller.Startup()
	a.syncScheduler()
	a.publishState()

	a.scheduler.Start()

	a.wg.Add(1)
	go a.pumpSchedulerEvents()

	if a.cfg.AutoTempEnabled {
		a.startAutoTemperatureLoop()
	}

	a.logger.Info("Eyecare agent started and ready")

	<-ctx.Done()
	a.logger.Info("Eyecare agent stopping")
	return nil
}

// Stop shuts the agent down in dependency order: loops first, then the
// display restore, then the broker connection so the final events still
// go out.
func (a *Agent) Stop() {
	if a.autoTicker != nil {
		a.autoTicker.Stop()
	}
	close(a.stopChan)

	// Closes the event channel, which ends the pump goroutine
	a.scheduler.Stop()
	a.wg.Wait()

	a.controller.Shutdown()

	if err := a.history.Close(); err != nil {
		a.logger.Warn("Error closing usage history", "error", err)
	}

	a.mqtt.Disconnect()
	a.logger.Info("Eyecare agent stopped")
}

// settingsCommand is the incoming mutation message. Only the fields the
// named action needs are read.
type settingsCommand struct {
	Action          string   `json:"action"`
	Value           *int     `json:"value,omitempty"`
	Enabled         *bool    `json:"enabled,omitempty"`
	Policy          *string  `json:"policy,omitempty"`
	Strength        *int     `json:"strength,omitempty"`
	LuminanceCap    *float64 `json:"luminance_cap,omitempty"`
	IntervalMinutes *int     `json:"interval_minutes,omitempty"`
	Preset          *string  `json:"preset,omitempty"`
}

// handleSettingsCommand dispatches one UI command to the controller.
func (a *Agent) handleSettingsCommand(msg mqtt.Message) {
	ctx := context.Background()

	var cmd settingsCommand
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		a.logger.Error("Failed to parse settings command", "error", err)
		return
	}

	rampChanged := true
	switch cmd.Action {
	case "set_enabled":
		if cmd.Enabled == nil {
			a.logger.Warn("set_enabled command missing enabled field")
			return
		}
		a.controller.SetEnabled(ctx, *cmd.Enabled)

	case "set_temperature":
		if cmd.Value == nil {
			a.logger.Warn("set_temperature command missing value field")
			return
		}
		a.controller.SetTemperature(ctx, *cmd.Value)

	case "set_brightness":
		if cmd.Value == nil {
			a.logger.Warn("set_brightness command missing value field")
			return
		}
		a.controller.SetBrightness(ctx, *cmd.Value)

	case "set_policy":
		label := ""
		if cmd.Policy != nil {
			label = *cmd.Policy
		}
		strength := a.cfg.CompensationStrengthPct
		if cmd.Strength != nil {
			strength = *cmd.Strength
		}
		luminanceCap := a.cfg.LuminanceCap
		if cmd.LuminanceCap != nil {
			luminanceCap = *cmd.LuminanceCap
		}
		policy, err := gamma.ParsePolicy(label, strength, luminanceCap)
		if err != nil {
			a.logger.Warn("Ignoring unknown compensation policy", "policy", label)
			return
		}
		a.controller.SetPolicy(ctx, policy)

	case "apply_preset":
		if cmd.Preset == nil {
			a.logger.Warn("apply_preset command missing preset field")
			return
		}
		kelvin, ok := Presets[*cmd.Preset]
		if !ok {
			a.logger.Warn("Unknown preset", "preset", *cmd.Preset)
			return
		}
		a.controller.ApplyPreset(ctx, kelvin)

	case "set_reminder":
		rampChanged = false
		if cmd.Enabled != nil {
			a.controller.SetReminderEnabled(ctx, *cmd.Enabled)
		}
		if cmd.IntervalMinutes != nil {
			a.controller.SetReminderInterval(ctx, *cmd.IntervalMinutes)
		}
		a.syncScheduler()

	case "set_minimize_to_tray":
		rampChanged = false
		if cmd.Enabled == nil {
			a.logger.Warn("set_minimize_to_tray command missing enabled field")
			return
		}
		a.controller.SetMinimizeToTray(ctx, *cmd.Enabled)

	case "reset":
		a.controller.Reset(ctx)

	default:
		a.logger.Warn("Unknown settings command", "action", cmd.Action)
		return
	}

	a.publishState()
	if rampChanged {
		a.recordRampChange(ctx)
	}
}

// handlePresetCommand applies a preset named in the topic, so simple
// clients can trigger presets with an empty payload.
func (a *Agent) handlePresetCommand(msg mqtt.Message) {
	parts := strings.Split(msg.Topic(), "/")
	name := parts[len(parts)-1]

	kelvin, ok := Presets[name]
	if !ok {
		a.logger.Warn("Unknown preset topic", "topic", msg.Topic())
		return
	}

	ctx := context.Background()
	a.controller.ApplyPreset(ctx, kelvin)
	a.publishState()
	a.recordRampChange(ctx)
}

// syncScheduler pushes the reminder settings into the scheduler. Takes
// effect on the scheduler's next tick.
func (a *Agent) syncScheduler() {
	settings := a.controller.Snapshot()
	a.scheduler.SetIntervalMinutes(settings.ReminderIntervalMinutes)
	a.scheduler.SetEnabled(settings.ReminderEnabled)
}

// pumpSchedulerEvents forwards scheduler events to the broker and the
// optional mirrors. Runs until the scheduler closes its channel.
func (a *Agent) pumpSchedulerEvents() {
	defer a.wg.Done()

	for event := range a.scheduler.Events() {
		switch event.Type {
		case reminder.EventReminder:
			a.publishReminder(event)
		case reminder.EventRemainingTime:
			a.publishCountdown(event)
		}
	}
}

func (a *Agent) publishReminder(event reminder.Event) {
	ctx := context.Background()

	payload, err := json.Marshal(map[string]interface{}{
		"id":        event.ID,
		"timestamp": event.FiredAt.Format(time.RFC3339),
	})
	if err != nil {
		a.logger.Error("Failed to marshal reminder event", "error", err)
		return
	}

	if err := a.mqtt.Publish(mqtt.TopicReminderEvent, 0, false, payload); err != nil {
		a.logger.Error("Failed to publish reminder event", "error", err)
	} else {
		a.logger.Info("Rest reminder fired", "id", event.ID)
	}

	if err := a.history.RecordReminder(ctx, event.ID, event.FiredAt); err != nil {
		a.logger.Warn("Failed to record reminder in history", "error", err)
	}

	if a.redis != nil {
		if err := a.redis.Set(ctx, redis.LastReminderKey(), event.FiredAt.Format(time.RFC3339), 0); err != nil {
			a.logger.Debug("Failed to mirror reminder timestamp", "error", err)
		}
	}
}

func (a *Agent) publishCountdown(event reminder.Event) {
	remaining := event.RemainingSeconds

	payload, err := json.Marshal(map[string]interface{}{
		"remaining_seconds": remaining,
		"display":           fmt.Sprintf("%02d:%02d", remaining/60, remaining%60),
		"timestamp":         event.FiredAt.Format(time.RFC3339),
	})
	if err != nil {
		a.logger.Error("Failed to marshal countdown", "error", err)
		return
	}

	if err := a.mqtt.Publish(mqtt.TopicCountdownContext, 0, false, payload); err != nil {
		a.logger.Debug("Failed to publish countdown", "error", err)
	}

	if a.redis != nil {
		ctx := context.Background()
		if err := a.redis.Set(ctx, redis.CountdownKey(), remaining, 5*time.Second); err != nil {
			a.logger.Debug("Failed to mirror countdown", "error", err)
		}
	}
}

// publishState publishes the full settings snapshot, retained, so a UI
// connecting later immediately sees the current state.
func (a *Agent) publishState() {
	settings := a.controller.Snapshot()

	payload, err := json.Marshal(map[string]interface{}{
		"enabled":           settings.Enabled,
		"temperature":       settings.TemperatureK,
		"brightness":        settings.BrightnessPct,
		"policy":            settings.Policy.Label(),
		"strength":          settings.Policy.StrengthPct(),
		"reminder_enabled":  settings.ReminderEnabled,
		"reminder_interval": settings.ReminderIntervalMinutes,
		"minimize_to_tray":  settings.MinimizeToTray,
		"gamma_supported":   a.controller.GammaSupported(),
		"timestamp":         time.Now().Format(time.RFC3339),
	})
	if err != nil {
		a.logger.Error("Failed to marshal state context", "error", err)
		return
	}

	if err := a.mqtt.Publish(mqtt.TopicStateContext, 0, true, payload); err != nil {
		a.logger.Error("Failed to publish state context", "error", err)
	}
}

func (a *Agent) recordRampChange(ctx context.Context) {
	settings := a.controller.Snapshot()
	err := a.history.RecordRampChange(ctx,
		settings.TemperatureK, settings.BrightnessPct,
		settings.Policy.Label(), settings.Enabled)
	if err != nil {
		a.logger.Warn("Failed to record ramp change in history", "error", err)
	}
}

// startAutoTemperatureLoop periodically re-derives the target
// temperature from the sun position and applies it while eye care is
// enabled.
func (a *Agent) startAutoTemperatureLoop() {
	interval := time.Duration(a.cfg.AutoTempIntervalSec) * time.Second
	a.autoTicker = time.NewTicker(interval)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("Automatic color temperature enabled",
			"latitude", a.cfg.Latitude,
			"longitude", a.cfg.Longitude,
			"day_k", a.cfg.AutoTempDayK,
			"night_k", a.cfg.AutoTempNightK)

		for {
			select {
			case <-a.autoTicker.C:
				a.applyAutoTemperature()
			case <-a.stopChan:
				return
			}
		}
	}()
}

func (a *Agent) applyAutoTemperature() {
	settings := a.controller.Snapshot()
	if !settings.Enabled {
		return
	}

	target := TargetTemperature(time.Now(), a.cfg.Latitude, a.cfg.Longitude,
		a.cfg.AutoTempDayK, a.cfg.AutoTempNightK)
	if target == settings.TemperatureK {
		return
	}

	ctx := context.Background()
	a.controller.SetTemperature(ctx, target)
	a.publishState()
	a.recordRampChange(ctx)

	a.logger.Info("Adjusted color temperature from sun position",
		"temperature_k", target)
}

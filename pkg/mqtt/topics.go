package mqtt

import "fmt"

// Topic layout of the eyecare agent. Commands flow in from the UI/tray
// client, context and events flow out.
const (
	// TopicSettingsCommand carries setter commands from the UI
	// (set_enabled, set_temperature, set_brightness, set_policy,
	// apply_preset, set_reminder, reset).
	TopicSettingsCommand = "eyecare/command/settings"

	// TopicStateContext carries the full settings snapshot after every
	// mutation. Published retained so a UI connecting late sees the
	// current state immediately.
	TopicStateContext = "eyecare/context/state"

	// TopicCountdownContext carries the once-per-second rest countdown.
	TopicCountdownContext = "eyecare/context/countdown"

	// TopicReminderEvent carries fire-and-forget rest reminders. The UI
	// shows a dismissible prompt that auto-dismisses after 60 seconds.
	TopicReminderEvent = "eyecare/event/reminder"
)

// PresetTopic constructs the command topic for a named temperature
// preset. Pattern: eyecare/command/preset/{name}
func PresetTopic(name string) string {
	return fmt.Sprintf("eyecare/command/preset/%s", name)
}

// TopicPresetCommands subscribes to all preset commands.
const TopicPresetCommands = "eyecare/command/preset/+"

package redis

// Key construction helpers for the eyecare namespace

// SettingsKey returns the key holding the persisted settings document
// (JSON string, same shape as the file backend).
func SettingsKey() string {
	return "eyecare:settings"
}

// CountdownKey returns the key mirroring the rest-reminder countdown in
// seconds, refreshed every tick for UIs that poll instead of
// subscribing.
func CountdownKey() string {
	return "eyecare:countdown"
}

// LastReminderKey returns the key holding the timestamp of the most
// recent reminder fire.
func LastReminderKey() string {
	return "eyecare:reminder:last"
}

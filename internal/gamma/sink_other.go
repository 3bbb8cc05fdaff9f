//go:build !windows

package gamma

import "log/slog"

// unsupportedSink is the fallback for platforms without gamma ramp
// control. Every operation is a no-op reporting failure; the rest of the
// system keeps running.
type unsupportedSink struct{}

// NewSink returns a sink for the current platform. Only Windows exposes
// device gamma ramps through this build; elsewhere the caller gets a
// sink that degrades every operation to a failed no-op. Logged once
// here, not on every call.
func NewSink(logger *slog.Logger) Sink {
	logger.Warn("Gamma ramp control is not supported on this platform, eye-care ramp operations will be no-ops")
	return unsupportedSink{}
}

func (unsupportedSink) Apply(Ramp) bool       { return false }
func (unsupportedSink) RestoreIdentity() bool { return false }
func (unsupportedSink) Supported() bool       { return false }
func (unsupportedSink) Close()                {}

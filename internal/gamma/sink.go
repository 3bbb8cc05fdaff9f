package gamma

// Sink installs gamma ramps on the active display.
//
// Both mutating calls report success as a plain bool: false means the
// ramp was not changed, either because the platform has no gamma control
// or because the underlying call failed. Callers treat false as "visual
// state unchanged" and carry on; a failed apply is never fatal and never
// retried in a loop.
type Sink interface {
	// Apply installs the given ramp on the active display.
	Apply(ramp Ramp) bool

	// RestoreIdentity resets the display to the identity ramp.
	RestoreIdentity() bool

	// Supported reports whether the platform offers gamma control at
	// all. When false, Apply and RestoreIdentity are no-ops returning
	// false.
	Supported() bool

	// Close releases any platform resources held by the sink.
	Close()
}

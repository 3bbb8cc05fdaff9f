//go:build windows

package gamma

import (
	"log/slog"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetDeviceGammaRamp = gdi32.NewProc("SetDeviceGammaRamp")
	procGetDeviceGammaRamp = gdi32.NewProc("GetDeviceGammaRamp")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
)

// rampWords is the WORD[3][256] layout SetDeviceGammaRamp expects.
type rampWords [3][RampSize]uint16

// deviceSink drives the primary display's gamma table through GDI.
type deviceSink struct {
	hdc       uintptr
	supported bool
	logger    *slog.Logger
}

// NewSink opens the screen device context and probes for gamma support.
// Some drivers expose the entry points but reject every call, so support
// is detected with a read rather than assumed from DLL presence. Lack of
// support is logged once here and never again.
func NewSink(logger *slog.Logger) Sink {
	hdc, _, _ := procGetDC.Call(0)
	if hdc == 0 {
		logger.Warn("Gamma ramp control unavailable: could not acquire screen device context")
		return &deviceSink{logger: logger}
	}

	var probe rampWords
	ret, _, _ := procGetDeviceGammaRamp.Call(hdc, uintptr(unsafe.Pointer(&probe)))
	if ret == 0 {
		logger.Warn("Gamma ramp control unavailable: display driver does not support gamma ramps")
		procReleaseDC.Call(0, hdc)
		return &deviceSink{logger: logger}
	}

	logger.Info("Display gamma ramp control available")
	return &deviceSink{hdc: hdc, supported: true, logger: logger}
}

// Apply installs the ramp on the primary display.
func (s *deviceSink) Apply(ramp Ramp) bool {
	if !s.supported {
		return false
	}

	var words rampWords
	words[0] = ramp.Red
	words[1] = ramp.Green
	words[2] = ramp.Blue

	ret, _, _ := procSetDeviceGammaRamp.Call(s.hdc, uintptr(unsafe.Pointer(&words)))
	if ret == 0 {
		// Transient driver failure: previous visual state persists
		s.logger.Debug("SetDeviceGammaRamp rejected ramp")
		return false
	}
	return true
}

// RestoreIdentity resets the display to the identity ramp.
func (s *deviceSink) RestoreIdentity() bool {
	return s.Apply(Identity())
}

// Supported reports whether the driver accepted the probe at startup.
func (s *deviceSink) Supported() bool {
	return s.supported
}

// Close releases the screen device context.
func (s *deviceSink) Close() {
	if s.hdc != 0 {
		procReleaseDC.Call(0, s.hdc)
		s.hdc = 0
	}
}

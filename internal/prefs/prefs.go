package prefs

// Preferences groups every configurable knob a front end exposes over the
// core. Field names intentionally mirror the spec's CLI surface.
type Preferences struct {
	BIOSPath   String
	SkipBIOS   Bool
	Scale      Int
	Fullscreen Bool
	Mute       Bool
}

// NewDefault returns Preferences populated with the emulator's defaults.
func NewDefault() *Preferences {
	p := &Preferences{}
	p.Scale.Set(2)
	return p
}

package audio

import "time"

const (
	// DefaultSilenceThreshold is the RMS below which a sample counts as silent.
	DefaultSilenceThreshold = 0.01
	// DefaultMinSilence is how long silence must last before the alert fires.
	DefaultMinSilence = 3 * time.Second
)

// Transition is what a single observation asks of the pause alarm.
type Transition int

const (
	// Steady leaves the alarm as it is.
	Steady Transition = iota
	// RaiseAlert asks for the alarm to be raised.
	RaiseAlert
	// ClearAlert asks for the alarm to be cleared.
	ClearAlert
)

func (t Transition) String() string {
	switch t {
	case RaiseAlert:
		return "raise"
	case ClearAlert:
		return "clear"
	default:
		return "steady"
	}
}

// SilenceDetector debounces RMS samples into speaking/silent with a minimum
// silence duration. A single quiet sample never raises the alert; a single
// loud sample always clears it.
type SilenceDetector struct {
	Threshold  float64
	MinSilence time.Duration

	silentSince time.Time
	silent      bool
}

// NewSilenceDetector returns a detector with the default threshold and duration.
func NewSilenceDetector() *SilenceDetector {
	return &SilenceDetector{Threshold: DefaultSilenceThreshold, MinSilence: DefaultMinSilence}
}

// Observe folds one RMS measurement taken at the given instant.
func (d *SilenceDetector) Observe(rms float64, at time.Time) Transition {
	if rms >= d.Threshold {
		d.silent = false
		d.silentSince = time.Time{}
		return ClearAlert
	}
	if !d.silent {
		d.silent = true
		d.silentSince = at
		return Steady
	}
	if at.Sub(d.silentSince) >= d.MinSilence {
		return RaiseAlert
	}
	return Steady
}

// SilentSince reports when the current silence began, if one is in progress.
func (d *SilenceDetector) SilentSince() (time.Time, bool) {
	return d.silentSince, d.silent
}

// Reset forgets any silence in progress.
func (d *SilenceDetector) Reset() {
	d.silent = false
	d.silentSince = time.Time{}
}

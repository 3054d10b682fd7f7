package audio

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Beeper produces the audible pause alert. Start and Stop are only ever
// called by Alarm on state edges.
type Beeper interface {
	Start() error
	Stop()
}

// Alarm is the single owner of the "pause is being signalled" flag. Any
// number of producers may call Raise and Clear; both are idempotent.
type Alarm struct {
	beeper Beeper
	log    logrus.FieldLogger

	mu     sync.Mutex
	active bool
	raised int
}

// NewAlarm returns a cleared alarm driving b. A nil beeper is silent.
func NewAlarm(b Beeper, log logrus.FieldLogger) *Alarm {
	if b == nil {
		b = NopBeeper{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Alarm{beeper: b, log: log}
}

// Raise activates the alarm. It reports whether the state changed; raising
// an active alarm does nothing.
func (a *Alarm) Raise() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active {
		return false
	}
	a.active = true
	a.raised++
	if err := a.beeper.Start(); err != nil {
		a.log.WithError(err).Warn("pause tone failed to start")
	}
	return true
}

// Clear deactivates the alarm. It reports whether the state changed.
func (a *Alarm) Clear() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return false
	}
	a.active = false
	a.beeper.Stop()
	return true
}

// Active reports whether the alarm is currently raised.
func (a *Alarm) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Raised counts the off→on transitions since the last ResetCount.
func (a *Alarm) Raised() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.raised
}

// ResetCount zeroes the transition counter.
func (a *Alarm) ResetCount() {
	a.mu.Lock()
	a.raised = 0
	a.mu.Unlock()
}

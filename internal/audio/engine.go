package audio

import (
	"errors"
	"sync"
)

// DefaultAnalyserSize is the number of time-domain samples an analyser keeps.
const DefaultAnalyserSize = 2048

// ErrEngineClosed is returned when the engine has been closed.
var ErrEngineClosed = errors.New("audio engine closed")

// State is the lifecycle state of an Engine.
type State int

const (
	Suspended State = iota
	Running
	Closed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Closed:
		return "closed"
	default:
		return "suspended"
	}
}

// Source delivers decoded mono audio samples. The returned cancel func
// detaches the subscriber and closes its channel; it must be safe to call
// more than once.
type Source interface {
	Subscribe() (<-chan []float32, func())
}

// Engine is the long-lived audio analysis context. It is created once per
// process, starts suspended, and analysers attached to it only consume audio
// while it is running.
type Engine struct {
	mu        sync.Mutex
	state     State
	analysers map[*Analyser]struct{}
}

// NewEngine returns a suspended engine.
func NewEngine() *Engine {
	return &Engine{analysers: make(map[*Analyser]struct{})}
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Resume moves a suspended engine to running. Resuming a running engine is a no-op.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Closed {
		return ErrEngineClosed
	}
	e.state = Running
	return nil
}

// Suspend pauses analysis without detaching analysers.
func (e *Engine) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Closed {
		return ErrEngineClosed
	}
	e.state = Suspended
	return nil
}

// Close detaches every analyser and makes the engine unusable.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == Closed {
		e.mu.Unlock()
		return nil
	}
	e.state = Closed
	attached := make([]*Analyser, 0, len(e.analysers))
	for a := range e.analysers {
		attached = append(attached, a)
	}
	e.mu.Unlock()

	for _, a := range attached {
		a.Close()
	}
	return nil
}

// Attach subscribes a new analyser to src. The analyser keeps the most recent
// size samples; a non-positive size uses DefaultAnalyserSize.
func (e *Engine) Attach(src Source, size int) (*Analyser, error) {
	if src == nil {
		return nil, errors.New("audio: nil source")
	}
	if size <= 0 {
		size = DefaultAnalyserSize
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Closed {
		return nil, ErrEngineClosed
	}

	ch, cancel := src.Subscribe()
	a := &Analyser{
		engine: e,
		ring:   make([]float32, size),
		cancel: cancel,
	}
	e.analysers[a] = struct{}{}
	go a.pump(ch)
	return a, nil
}

func (e *Engine) running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == Running
}

func (e *Engine) detach(a *Analyser) {
	e.mu.Lock()
	delete(e.analysers, a)
	e.mu.Unlock()
}

// Analyser exposes the most recent time-domain samples of its source.
type Analyser struct {
	engine *Engine
	cancel func()

	mu   sync.Mutex
	ring []float32
	next int

	closeOnce sync.Once
}

func (a *Analyser) pump(ch <-chan []float32) {
	for samples := range ch {
		if !a.engine.running() {
			continue
		}
		a.write(samples)
	}
}

func (a *Analyser) write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.ring)
	if len(samples) >= n {
		copy(a.ring, samples[len(samples)-n:])
		a.next = 0
		return
	}
	for _, s := range samples {
		a.ring[a.next] = s
		a.next = (a.next + 1) % n
	}
}

// Size is the number of samples TimeDomain fills.
func (a *Analyser) Size() int { return len(a.ring) }

// TimeDomain copies the most recent samples into dst, oldest first, and
// returns how many were written. Slots never written read as silence.
func (a *Analyser) TimeDomain(dst []float32) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.ring)
	if len(dst) < n {
		n = len(dst)
	}
	// Start n samples behind the write cursor so a short dst gets the latest audio.
	for i := 0; i < n; i++ {
		idx := (a.next - n + i + len(a.ring)) % len(a.ring)
		dst[i] = a.ring[idx]
	}
	return n
}

// Close detaches the analyser from its source. It is safe to call repeatedly.
func (a *Analyser) Close() {
	a.closeOnce.Do(func() {
		a.cancel()
		a.engine.detach(a)
	})
}

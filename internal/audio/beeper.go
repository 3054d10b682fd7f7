package audio

import (
	"io"
	"sync"
	"time"
)

// NopBeeper makes no sound.
type NopBeeper struct{}

func (NopBeeper) Start() error { return nil }
func (NopBeeper) Stop()        {}

// BellBeeper rings the terminal bell repeatedly while the alarm is active.
type BellBeeper struct {
	Out      io.Writer
	Interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewBellBeeper rings out every 500ms.
func NewBellBeeper(out io.Writer) *BellBeeper {
	return &BellBeeper{Out: out, Interval: 500 * time.Millisecond}
}

// Start begins ringing; it is a no-op if already ringing.
func (b *BellBeeper) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stop != nil {
		return nil
	}
	if _, err := b.Out.Write([]byte{'\a'}); err != nil {
		return err
	}
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.ring(b.stop, b.done)
	return nil
}

func (b *BellBeeper) ring(stop, done chan struct{}) {
	defer close(done)
	interval := b.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			_, _ = b.Out.Write([]byte{'\a'})
		}
	}
}

// Stop silences the bell and waits for the ringing goroutine to exit.
func (b *BellBeeper) Stop() {
	b.mu.Lock()
	stop, done := b.stop, b.done
	b.stop, b.done = nil, nil
	b.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

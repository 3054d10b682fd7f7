// Package session runs one live coaching session: it scores video frames,
// polls the transcript and pause signal, watches the microphone for long
// silences, keeps the recording clock and records the stream for upload.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/podium/internal/audio"
	"github.com/fakeyudi/podium/internal/backend"
	"github.com/fakeyudi/podium/internal/capture"
	"github.com/fakeyudi/podium/internal/filler"
	"github.com/fakeyudi/podium/internal/recorder"
	"github.com/fakeyudi/podium/internal/score"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("session already running")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("session controller closed")
	// ErrNoStream is returned by Start without a capture stream.
	ErrNoStream = errors.New("no capture stream")
)

// Backend is the analysis service a session talks to. *backend.Client
// implements it.
type Backend interface {
	Start(ctx context.Context, userID int) (int64, error)
	Stop(ctx context.Context) error
	Script(ctx context.Context, script string) error
	Frame(ctx context.Context, sessionID int64, jpegB64 string) (*backend.FrameScores, error)
	Transcripts(ctx context.Context) ([]filler.Entry, error)
	PauseEvents(ctx context.Context) (*backend.PauseSignal, error)
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// Intervals sets the cadence of each periodic activity.
type Intervals struct {
	Frame      time.Duration
	Transcript time.Duration
	Pause      time.Duration
	Silence    time.Duration
	Clock      time.Duration
}

// DefaultIntervals returns the production cadences.
func DefaultIntervals() Intervals {
	return Intervals{
		Frame:      500 * time.Millisecond,
		Transcript: 2 * time.Second,
		Pause:      time.Second,
		Silence:    500 * time.Millisecond,
		Clock:      time.Second,
	}
}

func (iv Intervals) withDefaults() Intervals {
	def := DefaultIntervals()
	if iv.Frame <= 0 {
		iv.Frame = def.Frame
	}
	if iv.Transcript <= 0 {
		iv.Transcript = def.Transcript
	}
	if iv.Pause <= 0 {
		iv.Pause = def.Pause
	}
	if iv.Silence <= 0 {
		iv.Silence = def.Silence
	}
	if iv.Clock <= 0 {
		iv.Clock = def.Clock
	}
	return iv
}

// DefaultJPEGQuality is the encoder quality for frames sent for scoring.
const DefaultJPEGQuality = 60

// Options configures a Controller. Backend is required.
type Options struct {
	Backend Backend
	UserID  int
	// Script, when set, is sent to the backend before each session starts.
	Script string
	Beeper audio.Beeper
	Log    logrus.FieldLogger

	Intervals        Intervals
	SilenceThreshold float64
	MinSilence       time.Duration
	JPEGQuality      int
	Now              func() time.Time
}

// Controller owns the lifecycle of coaching sessions. One Controller runs at
// most one session at a time and may run many in sequence.
type Controller struct {
	backend Backend
	opts    Options
	log     logrus.FieldLogger
	alarm   *audio.Alarm
	now     func() time.Time

	// lifecycle serialises Start, Stop and Close against each other.
	lifecycle sync.Mutex
	engine    *audio.Engine // created on first Start, reused afterwards
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	analyser  *audio.Analyser
	rec       *recorder.Recorder
	closed    bool

	mu          sync.Mutex
	gen         uint64
	running     bool
	sessionID   int64
	startedAt   time.Time
	elapsed     int
	agg         *score.Aggregator
	labels      [len(score.Metrics)]string
	history     *score.History[backend.FrameScores]
	transcripts []filler.Entry
	fillers     []filler.Occurrence
	tally       filler.Tally
	lastPause   int
	detector    *audio.SilenceDetector
	recording   bool
	locator     string
	final       Snapshot

	subMu      sync.Mutex
	subs       map[chan struct{}]struct{}
	subsClosed bool
}

// NoStatus is the label a metric carries until its first frame is scored.
const NoStatus = "N/A"

func initialLabels() [len(score.Metrics)]string {
	var l [len(score.Metrics)]string
	for i := range l {
		l[i] = NoStatus
	}
	return l
}

// New returns an idle controller.
func New(opts Options) *Controller {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.UserID <= 0 {
		opts.UserID = 1
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Intervals = opts.Intervals.withDefaults()

	det := audio.NewSilenceDetector()
	if opts.SilenceThreshold > 0 {
		det.Threshold = opts.SilenceThreshold
	}
	if opts.MinSilence > 0 {
		det.MinSilence = opts.MinSilence
	}

	return &Controller{
		backend:  opts.Backend,
		opts:     opts,
		log:      opts.Log,
		alarm:    audio.NewAlarm(opts.Beeper, opts.Log),
		now:      opts.Now,
		agg:      score.NewAggregator(score.DefaultWindowSize),
		history:  score.NewHistory[backend.FrameScores](score.DefaultHistorySize),
		tally:    filler.Tally{},
		fillers:  []filler.Occurrence{},
		labels:   initialLabels(),
		detector: det,
		subs:     make(map[chan struct{}]struct{}),
	}
}

// Start opens a backend session and arms every periodic activity against
// stream. If the backend does not hand out a session id nothing is armed
// and the error is returned.
func (c *Controller) Start(ctx context.Context, stream capture.Stream) (int64, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.closed {
		return 0, ErrClosed
	}
	if stream == nil {
		return 0, ErrNoStream
	}
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if running {
		return 0, ErrAlreadyRunning
	}

	if c.opts.Script != "" {
		if err := c.backend.Script(ctx, c.opts.Script); err != nil {
			c.log.WithError(err).Warn("sending script failed; continuing without it")
		}
	}

	id, err := c.backend.Start(ctx, c.opts.UserID)
	if err != nil {
		c.mu.Lock()
		c.sessionID = 0
		c.mu.Unlock()
		return 0, err
	}
	log := c.log.WithField("session_id", id)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.running = true
	c.sessionID = id
	c.startedAt = c.now()
	c.elapsed = 0
	c.agg.Reset()
	c.labels = initialLabels()
	c.history.Reset()
	c.transcripts = nil
	c.fillers = []filler.Occurrence{}
	c.tally = filler.Tally{}
	c.lastPause = 0
	c.detector.Reset()
	c.locator = ""
	c.final = Snapshot{}
	c.mu.Unlock()
	c.alarm.Clear()
	c.alarm.ResetCount()

	if c.engine == nil {
		c.engine = audio.NewEngine()
	}
	if err := c.engine.Resume(); err != nil {
		log.WithError(err).Warn("audio engine unavailable; local silence detection disabled")
	} else if a, err := c.engine.Attach(stream, audio.DefaultAnalyserSize); err != nil {
		log.WithError(err).Warn("attaching audio analyser failed; local silence detection disabled")
	} else {
		c.analyser = a
	}

	actx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	iv := c.opts.Intervals
	c.every(actx, iv.Frame, func(ctx context.Context) { c.sampleFrame(ctx, gen, id, stream, log) })
	c.every(actx, iv.Transcript, func(ctx context.Context) { c.pollTranscripts(ctx, gen, log) })
	c.every(actx, iv.Pause, func(ctx context.Context) { c.pollPause(ctx, gen, log) })
	if c.analyser != nil {
		a := c.analyser
		buf := make([]float32, a.Size())
		c.every(actx, iv.Silence, func(context.Context) { c.sampleSilence(gen, a, buf) })
	}
	c.every(actx, iv.Clock, func(context.Context) { c.tick(gen) })

	c.rec = recorder.Start(stream, log)
	c.mu.Lock()
	c.recording = c.rec.Enabled()
	c.mu.Unlock()

	log.Info("session started")
	c.notify()
	return id, nil
}

// every runs fn on its own goroutine once per interval until ctx is done.
func (c *Controller) every(ctx context.Context, d time.Duration, fn func(context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn(ctx)
			}
		}
	}()
}

// disarm stops every periodic activity and waits for them to exit. It
// reports whether a session was running.
func (c *Controller) disarm() bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	c.running = false
	c.gen++
	c.final = c.snapshotLocked()
	c.sessionID = 0
	c.elapsed = 0
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.cancel = nil

	if c.analyser != nil {
		c.analyser.Close()
		c.analyser = nil
	}
	c.mu.Lock()
	c.detector.Reset()
	c.mu.Unlock()
	c.alarm.Clear()
	if c.engine != nil {
		c.engine.Suspend()
	}
	return true
}

// Stop ends the running session and returns the uploaded recording's
// locator, or "" when nothing was recorded or the upload failed. Stopping
// an idle controller does nothing.
func (c *Controller) Stop(ctx context.Context) string {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.disarm() {
		return ""
	}
	log := c.log.WithField("session_id", c.final.SessionID)

	if err := c.backend.Stop(ctx); err != nil {
		log.WithError(err).Warn("backend stop failed")
	}

	rec := c.rec
	c.rec = nil
	loc := rec.Finalize(ctx, c.backend)

	c.mu.Lock()
	c.locator = loc
	c.final.RecordingURL = loc
	c.mu.Unlock()

	log.WithField("video_url", loc).Info("session stopped")
	c.notify()
	return loc
}

// Close tears down any running session without contacting the backend and
// releases the audio engine. The controller cannot be started again.
func (c *Controller) Close() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.disarm() && c.rec != nil {
		c.rec.Abort()
		c.rec = nil
	}
	if c.engine != nil {
		c.engine.Close()
	}

	c.subMu.Lock()
	c.subsClosed = true
	for ch := range c.subs {
		close(ch)
		delete(c.subs, ch)
	}
	c.subMu.Unlock()
}

// Engine returns the audio engine, or nil before the first Start.
func (c *Controller) Engine() *audio.Engine {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	return c.engine
}

// apply runs fn under the state lock only if gen is still the current,
// running session. Late results from a stopped session are dropped.
func (c *Controller) apply(gen uint64, fn func()) bool {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return false
	}
	fn()
	c.mu.Unlock()
	c.notify()
	return true
}

// Subscribe returns a channel that receives a value whenever the snapshot
// may have changed. Notifications coalesce; cancel releases the channel.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.subMu.Lock()
	if c.subsClosed {
		c.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) notify() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

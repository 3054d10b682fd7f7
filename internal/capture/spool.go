package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/podium/internal/audio"
)

// Spool file names. An external capturer (typically ffmpeg) keeps frame.jpg
// updated and writes numbered audio-*.pcm (s16le mono) and rec-*.webm
// segments. Recordings are the byte concatenation of their rec-* segments,
// so those must be consecutive pieces of one WebM stream (a single muxer
// output cut by size or time), not self-contained files such as ffmpeg's
// -f segment writes.
const (
	FrameFile    = "frame.jpg"
	audioPrefix  = "audio-"
	audioExt     = ".pcm"
	recordPrefix = "rec-"
	recordExt    = ".webm"
)

// DefaultFormats are the recording MIME types a spool accepts when none are
// configured.
var DefaultFormats = []string{"video/webm;codecs=vp9,opus", "video/webm"}

type segmentKind int

const (
	kindOther segmentKind = iota
	kindAudio
	kindRecord
)

func kindOf(path string) segmentKind {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, audioPrefix) && strings.HasSuffix(base, audioExt):
		return kindAudio
	case strings.HasPrefix(base, recordPrefix) && strings.HasSuffix(base, recordExt):
		return kindRecord
	}
	return kindOther
}

// SpoolOptions configures OpenSpool.
type SpoolOptions struct {
	// Formats lists the recording MIME types the capturer produces.
	Formats []string
	Log     logrus.FieldLogger
}

// Spool is a Stream backed by a capture directory. A segment is treated as
// complete once the next segment of the same kind is created, or when the
// recording that consumes it stops.
type Spool struct {
	dir     string
	formats []string
	log     logrus.FieldLogger
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}

	mu        sync.Mutex
	closed    bool
	subs      map[int]chan []float32
	nextSub   int
	recording *spoolRecording
	pending   map[segmentKind]string
}

// OpenSpool creates dir if needed and starts watching it until ctx is
// cancelled or Close is called.
func OpenSpool(ctx context.Context, dir string, opts SpoolOptions) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating spool directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating spool watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching spool directory: %w", err)
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Spool{
		dir:     dir,
		formats: formats,
		log:     log.WithField("spool", dir),
		watcher: watcher,
		cancel:  cancel,
		done:    make(chan struct{}),
		subs:    make(map[int]chan []float32),
		pending: make(map[segmentKind]string),
	}
	go s.watch(ctx)
	return s, nil
}

// Dir returns the watched directory.
func (s *Spool) Dir() string { return s.dir }

func (s *Spool) watch(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			kind := kindOf(event.Name)
			if kind == kindOther {
				continue
			}
			s.segmentCreated(kind, event.Name)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			// Watcher errors are non-fatal; keep watching.
			s.log.WithError(err).Warn("spool watcher error")
		}
	}
}

// segmentCreated completes the previous segment of kind and remembers path
// as the one now being written.
func (s *Spool) segmentCreated(kind segmentKind, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.pending[kind]
	s.pending[kind] = path
	if prev != "" && prev != path {
		s.consumeLocked(kind, prev)
	}
}

// consumeLocked reads a finished segment, hands it to its consumers and
// removes it from disk. Callers hold s.mu.
func (s *Spool) consumeLocked(kind segmentKind, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.WithError(err).WithField("segment", filepath.Base(path)).Warn("reading segment")
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.WithError(err).WithField("segment", filepath.Base(path)).Debug("removing segment")
	}

	switch kind {
	case kindAudio:
		samples := audio.PCM16ToFloat(data)
		for _, ch := range s.subs {
			// Slow analysers miss a segment rather than stall the spool.
			select {
			case ch <- samples:
			default:
			}
		}
	case kindRecord:
		// stale was already being written before the recording began.
		if s.recording != nil && path != s.recording.stale && len(data) > 0 {
			s.recording.chunks <- data
		}
	}
}

// Snapshot decodes the latest frame written by the capturer.
func (s *Spool) Snapshot(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, FrameFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoFrame
		}
		return nil, fmt.Errorf("opening frame: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return img, nil
}

// Subscribe implements audio.Source.
func (s *Spool) Subscribe() (<-chan []float32, func()) {
	ch := make(chan []float32, 16)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// StartRecording begins forwarding rec-*.webm segments. Only formats listed
// in SpoolOptions.Formats are accepted.
func (s *Spool) StartRecording(opts RecordOptions) (Recording, error) {
	if !slices.Contains(s.formats, opts.MimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.MimeType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.recording != nil {
		return nil, ErrRecordingActive
	}
	r := &spoolRecording{
		spool:  s,
		mime:   opts.MimeType,
		chunks: make(chan []byte, 64),
		stale:  s.pending[kindRecord],
	}
	s.recording = r
	return r, nil
}

func (s *Spool) stopRecording(r *spoolRecording) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording != r {
		return
	}
	if last := s.pending[kindRecord]; last != "" {
		delete(s.pending, kindRecord)
		s.consumeLocked(kindRecord, last)
	}
	s.recording = nil
	close(r.chunks)
}

// Close stops watching, ends any recording and detaches audio subscribers.
func (s *Spool) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	rec := s.recording
	s.mu.Unlock()

	if rec != nil {
		s.stopRecording(rec)
	}
	s.cancel()
	err := s.watcher.Close()
	<-s.done

	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
	return err
}

type spoolRecording struct {
	spool  *Spool
	mime   string
	chunks chan []byte
	stale  string // segment pending at start; never forwarded
	once   sync.Once
}

func (r *spoolRecording) MimeType() string      { return r.mime }
func (r *spoolRecording) Chunks() <-chan []byte { return r.chunks }

func (r *spoolRecording) Stop() error {
	r.once.Do(func() { r.spool.stopRecording(r) })
	return nil
}

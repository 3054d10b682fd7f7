// Package recorder captures a live stream into memory and uploads the
// assembled artifact when the session ends.
package recorder

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/podium/internal/capture"
)

const (
	// PrimaryFormat is the preferred container and codec set.
	PrimaryFormat = "video/webm;codecs=vp9,opus"
	// FallbackFormat is tried once when the primary format is rejected.
	FallbackFormat = "video/webm"
	// ChunkInterval is the requested chunk granularity.
	ChunkInterval = time.Second

	UploadName        = "recording.webm"
	UploadContentType = "video/webm"
)

// Uploader stores an assembled recording and returns its locator.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// Recorder buffers chunks from one capture.Recording. A Recorder whose
// stream rejected every format is disabled: it buffers nothing and
// Finalize returns no locator.
type Recorder struct {
	log     logrus.FieldLogger
	rec     capture.Recording
	drained chan struct{}

	mu     sync.Mutex
	chunks [][]byte
	size   int
	done   bool
}

// Start begins recording stream, falling back from PrimaryFormat to
// FallbackFormat once before giving up.
func Start(stream capture.Stream, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Recorder{log: log}
	if stream == nil {
		log.Warn("no capture stream; recording disabled")
		return r
	}

	for _, format := range []string{PrimaryFormat, FallbackFormat} {
		rec, err := stream.StartRecording(capture.RecordOptions{MimeType: format, Timeslice: ChunkInterval})
		if err != nil {
			log.WithError(err).WithField("format", format).Warn("recording format rejected")
			continue
		}
		r.rec = rec
		break
	}
	if r.rec == nil {
		log.Error("recording not supported by stream; session continues without a stored artifact")
		return r
	}

	log.WithField("format", r.rec.MimeType()).Info("recording started")
	r.drained = make(chan struct{})
	go r.collect()
	return r
}

func (r *Recorder) collect() {
	defer close(r.drained)
	for chunk := range r.rec.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		r.mu.Lock()
		r.chunks = append(r.chunks, chunk)
		r.size += len(chunk)
		r.mu.Unlock()
	}
}

// Enabled reports whether a recording is in progress or was captured.
func (r *Recorder) Enabled() bool { return r.rec != nil }

// Format returns the MIME type in use, or "" when disabled.
func (r *Recorder) Format() string {
	if r.rec == nil {
		return ""
	}
	return r.rec.MimeType()
}

// Buffered reports the number of chunks and bytes held so far.
func (r *Recorder) Buffered() (chunks, bytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks), r.size
}

// finish stops capture once and waits for the final chunk. It reports false
// if the recorder was already finished or never enabled.
func (r *Recorder) finish(ctx context.Context) bool {
	r.mu.Lock()
	if r.done || r.rec == nil {
		r.done = true
		r.mu.Unlock()
		return false
	}
	r.done = true
	r.mu.Unlock()

	if err := r.rec.Stop(); err != nil {
		r.log.WithError(err).Warn("stopping recording")
	}
	select {
	case <-r.drained:
	case <-ctx.Done():
		r.log.WithError(ctx.Err()).Warn("recording did not drain before deadline")
	}
	return true
}

// Finalize stops capture, assembles the buffered chunks and uploads them.
// It returns the backend locator, or "" when disabled, empty, already
// finalized, or the upload failed.
func (r *Recorder) Finalize(ctx context.Context, up Uploader) string {
	if !r.finish(ctx) {
		return ""
	}

	r.mu.Lock()
	data := bytes.Join(r.chunks, nil)
	r.chunks = nil
	r.mu.Unlock()

	if len(data) == 0 {
		r.log.Warn("recording captured no data; skipping upload")
		return ""
	}
	loc, err := up.Upload(ctx, UploadName, UploadContentType, data)
	if err != nil {
		r.log.WithError(err).Error("recording upload failed")
		return ""
	}
	r.log.WithFields(logrus.Fields{"bytes": len(data), "video_url": loc}).Info("recording uploaded")
	return loc
}

// Abort stops capture and discards the buffer without uploading.
func (r *Recorder) Abort() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if r.finish(ctx) {
		r.mu.Lock()
		r.chunks = nil
		r.size = 0
		r.mu.Unlock()
	}
}

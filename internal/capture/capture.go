// Package capture defines the live media stream a session analyses and
// records, and a directory-backed implementation fed by an external capturer.
package capture

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	// ErrUnsupportedFormat is returned by StartRecording when the stream
	// cannot produce the requested container/codec combination.
	ErrUnsupportedFormat = errors.New("capture: unsupported recording format")
	// ErrNoFrame is returned by Snapshot before any video frame has arrived.
	ErrNoFrame = errors.New("capture: no video frame available")
	// ErrRecordingActive is returned when a second recording is requested.
	ErrRecordingActive = errors.New("capture: recording already active")
	// ErrClosed is returned after the stream has been closed.
	ErrClosed = errors.New("capture: stream closed")
)

// RecordOptions selects the recording container and chunk cadence.
type RecordOptions struct {
	MimeType  string
	Timeslice time.Duration
}

// Recording is an in-progress capture of the combined audio/video stream.
type Recording interface {
	MimeType() string
	// Chunks delivers encoded data as it becomes available. It is closed
	// once Stop has flushed the final chunk.
	Chunks() <-chan []byte
	Stop() error
}

// Stream is a live camera and microphone handle. Consumers attach to it
// (snapshots, audio subscriptions, recordings) without owning its lifecycle.
type Stream interface {
	// Snapshot returns the most recent still image from the video track.
	Snapshot(ctx context.Context) (image.Image, error)
	// Subscribe delivers mono audio samples in [-1, 1]. The cancel func
	// detaches and closes the channel.
	Subscribe() (<-chan []float32, func())
	StartRecording(opts RecordOptions) (Recording, error)
}

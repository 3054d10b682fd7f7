package recorder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/podium/internal/capture"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	return l
}

type fakeRecording struct {
	mime   string
	chunks chan []byte
	once   sync.Once
}

func (r *fakeRecording) MimeType() string      { return r.mime }
func (r *fakeRecording) Chunks() <-chan []byte { return r.chunks }
func (r *fakeRecording) Stop() error {
	r.once.Do(func() { close(r.chunks) })
	return nil
}

type fakeStream struct {
	accept   map[string]bool
	tried    []string
	recorded *fakeRecording
}

func (s *fakeStream) Snapshot(context.Context) (image.Image, error) { return nil, capture.ErrNoFrame }
func (s *fakeStream) Subscribe() (<-chan []float32, func()) {
	ch := make(chan []float32)
	close(ch)
	return ch, func() {}
}

func (s *fakeStream) StartRecording(opts capture.RecordOptions) (capture.Recording, error) {
	s.tried = append(s.tried, opts.MimeType)
	if !s.accept[opts.MimeType] {
		return nil, capture.ErrUnsupportedFormat
	}
	s.recorded = &fakeRecording{mime: opts.MimeType, chunks: make(chan []byte, 8)}
	return s.recorded, nil
}

type fakeUploader struct {
	calls int
	name  string
	data  []byte
	loc   string
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, name, _ string, data []byte) (string, error) {
	u.calls++
	u.name = name
	u.data = data
	return u.loc, u.err
}

func TestStartPrefersPrimaryFormat(t *testing.T) {
	s := &fakeStream{accept: map[string]bool{PrimaryFormat: true, FallbackFormat: true}}
	r := Start(s, quietLogger())
	if r.Format() != PrimaryFormat || len(s.tried) != 1 {
		t.Fatalf("format %q after tries %v", r.Format(), s.tried)
	}
	r.Abort()
}

func TestStartFallsBackOnce(t *testing.T) {
	s := &fakeStream{accept: map[string]bool{FallbackFormat: true}}
	r := Start(s, quietLogger())
	if r.Format() != FallbackFormat {
		t.Fatalf("format: got %q, want %q", r.Format(), FallbackFormat)
	}
	if len(s.tried) != 2 {
		t.Fatalf("tries: got %v", s.tried)
	}
	r.Abort()
}

func TestStartDisabledWhenNoFormatSupported(t *testing.T) {
	s := &fakeStream{accept: map[string]bool{}}
	r := Start(s, quietLogger())
	if r.Enabled() {
		t.Fatal("recorder should be disabled")
	}
	if len(s.tried) != 2 {
		t.Fatalf("tries: got %v, want exactly 2", s.tried)
	}
	up := &fakeUploader{loc: "x"}
	if loc := r.Finalize(context.Background(), up); loc != "" || up.calls != 0 {
		t.Fatalf("Finalize: got %q with %d uploads", loc, up.calls)
	}
}

func TestFinalizeAssemblesAndUploadsOnce(t *testing.T) {
	s := &fakeStream{accept: map[string]bool{PrimaryFormat: true}}
	r := Start(s, quietLogger())
	s.recorded.chunks <- []byte("ab")
	s.recorded.chunks <- nil
	s.recorded.chunks <- []byte("cd")

	up := &fakeUploader{loc: "https://cdn.example/rec.webm"}
	if loc := r.Finalize(context.Background(), up); loc != up.loc {
		t.Fatalf("locator: got %q", loc)
	}
	if string(up.data) != "abcd" || up.name != UploadName {
		t.Fatalf("uploaded %q as %q", up.data, up.name)
	}
	if loc := r.Finalize(context.Background(), up); loc != "" || up.calls != 1 {
		t.Fatalf("second Finalize: got %q, uploads %d", loc, up.calls)
	}
}

func TestFinalizeUploadFailure(t *testing.T) {
	s := &fakeStream{accept: map[string]bool{PrimaryFormat: true}}
	r := Start(s, quietLogger())
	s.recorded.chunks <- []byte("data")

	up := &fakeUploader{err: errors.New("network down")}
	if loc := r.Finalize(context.Background(), up); loc != "" {
		t.Fatalf("locator: got %q, want empty", loc)
	}
}

func TestFinalizeEmptyRecordingSkipsUpload(t *testing.T) {
	s := &fakeStream{accept: map[string]bool{PrimaryFormat: true}}
	r := Start(s, quietLogger())
	up := &fakeUploader{loc: "x"}
	if loc := r.Finalize(context.Background(), up); loc != "" || up.calls != 0 {
		t.Fatalf("Finalize: got %q with %d uploads", loc, up.calls)
	}
}

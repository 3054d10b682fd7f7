package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/podium/internal/audio"
	"github.com/fakeyudi/podium/internal/backend"
	"github.com/fakeyudi/podium/internal/capture"
	"github.com/fakeyudi/podium/internal/filler"
	"github.com/fakeyudi/podium/internal/score"
)

// encodeFrame renders img as base64 JPEG without a data: prefix.
func encodeFrame(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encoding frame: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (c *Controller) sampleFrame(ctx context.Context, gen uint64, id int64, stream capture.Stream, log logrus.FieldLogger) {
	log = log.WithField("activity", "frame")
	img, err := stream.Snapshot(ctx)
	if err != nil {
		if !errors.Is(err, capture.ErrNoFrame) {
			log.WithError(err).Debug("snapshot failed")
		}
		return
	}
	frame, err := encodeFrame(img, c.opts.JPEGQuality)
	if err != nil {
		log.WithError(err).Warn("frame skipped")
		return
	}
	res, err := c.backend.Frame(ctx, id, frame)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Warn("frame scoring failed")
		}
		return
	}
	c.apply(gen, func() {
		c.agg.Push(score.Posture, res.PostureScore)
		c.agg.Push(score.Eye, res.EyeScore)
		c.agg.Push(score.Gesture, res.GestureScore)
		c.labels[score.Posture] = res.PostureStatus
		c.labels[score.Eye] = res.EyeStatus
		c.labels[score.Gesture] = res.GestureStatus
		c.history.Append(*res)
	})
}

func (c *Controller) pollTranscripts(ctx context.Context, gen uint64, log logrus.FieldLogger) {
	entries, err := c.backend.Transcripts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.WithField("activity", "transcript").WithError(err).Warn("transcript poll failed")
		}
		return
	}
	occ, tally := filler.Recompute(entries)
	c.apply(gen, func() {
		c.transcripts = entries
		c.fillers = occ
		c.tally = tally
	})
}

// pauseRaises reports whether sig is a new backend-confirmed pause given
// the last count already acted on.
func pauseRaises(last int, sig backend.PauseSignal) bool {
	return !sig.SpeakingActive && sig.Count > last
}

func (c *Controller) pollPause(ctx context.Context, gen uint64, log logrus.FieldLogger) {
	sig, err := c.backend.PauseEvents(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.WithField("activity", "pause").WithError(err).Debug("pause poll failed")
		}
		return
	}
	c.apply(gen, func() {
		if !pauseRaises(c.lastPause, *sig) {
			return
		}
		c.lastPause = sig.Count
		if c.alarm.Raise() {
			log.WithFields(logrus.Fields{"activity": "pause", "count": sig.Count}).Info("backend reported long pause")
		}
	})
}

// sampleSilence measures the analyser's current buffer. Only renewed speech
// clears the alarm; the pause poller never does.
func (c *Controller) sampleSilence(gen uint64, a *audio.Analyser, buf []float32) {
	n := a.TimeDomain(buf)
	rms := audio.RMS(buf[:n])
	at := c.now()
	c.apply(gen, func() {
		switch c.detector.Observe(rms, at) {
		case audio.RaiseAlert:
			if c.alarm.Raise() {
				c.log.WithField("activity", "silence").Info("long pause detected")
			}
		case audio.ClearAlert:
			c.alarm.Clear()
		}
	})
}

func (c *Controller) tick(gen uint64) {
	c.apply(gen, func() { c.elapsed++ })
}

package backend

import (
	"context"

	"github.com/fakeyudi/podium/internal/filler"
)

type transcriptsResp struct {
	Transcripts []filler.Entry `json:"transcripts"`
}

// Transcripts fetches the full transcript accumulated so far.
func (h *Client) Transcripts(ctx context.Context) ([]filler.Entry, error) {
	var out transcriptsResp
	if err := h.getJSON(ctx, "/api/transcripts", &out); err != nil {
		return nil, err
	}
	if out.Transcripts == nil {
		out.Transcripts = []filler.Entry{}
	}
	return out.Transcripts, nil
}

// PauseSignal is the backend's own long-pause detector state.
type PauseSignal struct {
	Count          int
	SpeakingActive bool
}

type pauseResp struct {
	Count          *int  `json:"count"`
	SpeakingActive *bool `json:"speaking_active"`
}

// PauseEvents fetches the long-pause counter. A missing count reads as 0 and
// a missing speaking flag as true.
func (h *Client) PauseEvents(ctx context.Context) (*PauseSignal, error) {
	var out pauseResp
	if err := h.getJSON(ctx, "/api/pause-events", &out); err != nil {
		return nil, err
	}
	sig := &PauseSignal{SpeakingActive: true}
	if out.Count != nil {
		sig.Count = *out.Count
	}
	if out.SpeakingActive != nil {
		sig.SpeakingActive = *out.SpeakingActive
	}
	return sig, nil
}

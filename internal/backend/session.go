package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

type startResp struct {
	SessionID int64  `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// Start opens a backend session for userID and returns its id.
func (h *Client) Start(ctx context.Context, userID int) (int64, error) {
	q := url.Values{"user_id": {strconv.Itoa(userID)}}
	var out startResp
	if err := h.postJSON(ctx, "/api/start?"+q.Encode(), nil, &out); err != nil {
		return 0, err
	}
	if out.SessionID == 0 {
		if out.Message != "" {
			return 0, fmt.Errorf("%w: %s", ErrNoSessionID, out.Message)
		}
		return 0, ErrNoSessionID
	}
	return out.SessionID, nil
}

// Stop tells the backend the current session ended.
func (h *Client) Stop(ctx context.Context) error {
	return h.postJSON(ctx, "/api/stop", nil, nil)
}

type scriptReq struct {
	Script string `json:"script"`
}

// Script sends the reference script the speaker intends to deliver.
func (h *Client) Script(ctx context.Context, script string) error {
	return h.postJSON(ctx, "/api/script", scriptReq{Script: script}, nil)
}

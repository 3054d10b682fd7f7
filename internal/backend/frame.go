package backend

import "context"

// FrameReq is the body of POST /api/frame.
type FrameReq struct {
	Frame     string `json:"frame"` // base64 JPEG, no data: prefix
	SessionID int64  `json:"session_id"`
}

// FrameScores is the per-frame analysis result.
type FrameScores struct {
	PostureStatus string  `json:"posture_status" yaml:"posture_status"`
	EyeStatus     string  `json:"eye_status" yaml:"eye_status"`
	GestureStatus string  `json:"gesture_status" yaml:"gesture_status"`
	PostureScore  float64 `json:"posture_score" yaml:"posture_score"`
	EyeScore      float64 `json:"eye_score" yaml:"eye_score"`
	GestureScore  float64 `json:"gesture_score" yaml:"gesture_score"`
}

// Frame submits one still image for scoring.
func (h *Client) Frame(ctx context.Context, sessionID int64, jpegB64 string) (*FrameScores, error) {
	var out FrameScores
	if err := h.postJSON(ctx, "/api/frame", FrameReq{Frame: jpegB64, SessionID: sessionID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

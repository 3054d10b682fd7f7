package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type uploadResp struct {
	VideoURL *string `json:"video_url"`
}

// Upload stores a finished recording and returns its locator. An empty
// locator with a nil error means the backend accepted the file but assigned
// no URL.
func (h *Client) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	hdr.Set("Content-Type", contentType)
	fw, err := w.CreatePart(hdr)
	if err != nil {
		return "", err
	}
	if _, err = fw.Write(data); err != nil {
		return "", err
	}
	if err = w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+"/api/upload", &b)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out uploadResp
	if err := h.do(req, "/api/upload", &out); err != nil {
		return "", err
	}
	if out.VideoURL == nil {
		return "", nil
	}
	return *out.VideoURL, nil
}

package assemble

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

// AttachmentFetchError reports a reference attachment that could not be
// downloaded for inclusion in an analysis call.
type AttachmentFetchError struct {
	URL string
	Err error
}

func (e *AttachmentFetchError) Error() string {
	return fmt.Sprintf("fetching attachment %s: %v", e.URL, e.Err)
}

func (e *AttachmentFetchError) Unwrap() error { return e.Err }

// maxAttachmentBytes bounds how much of a scanned document we pull into an
// oracle prompt.
const maxAttachmentBytes = 20 << 20

func (a *Assembler) fetchAttachment(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", &AttachmentFetchError{URL: url, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", &AttachmentFetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &AttachmentFetchError{URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return nil, "", &AttachmentFetchError{URL: url, Err: err}
	}
	if len(data) > maxAttachmentBytes {
		return nil, "", &AttachmentFetchError{URL: url, Err: fmt.Errorf("attachment exceeds %d bytes", maxAttachmentBytes)}
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = mimeFromExtension(url)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return data, mimeType, nil
}

func mimeFromExtension(url string) string {
	switch strings.ToLower(path.Ext(url)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".mp3":
		return "audio/mp3"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

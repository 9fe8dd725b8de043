// Package attachments hands file payloads to an external object-storage
// service and returns the URL the service assigns. File contents are never
// inspected or stored locally; the journal keeps only the returned URL.
package attachments

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Uploader stores a file payload and returns a publicly resolvable URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, content []byte) (string, error)
}

// HTTPUploader posts payloads to the configured object-storage endpoint as a
// multipart form and expects `{"url": "..."}` back.
type HTTPUploader struct {
	client *resty.Client
	logger *zap.Logger
}

var _ Uploader = (*HTTPUploader)(nil)

// NewHTTPUploader creates an uploader targeting uploadURL.
func NewHTTPUploader(uploadURL string, timeout time.Duration, logger *zap.Logger) *HTTPUploader {
	client := resty.New().
		SetBaseURL(uploadURL).
		SetTimeout(timeout)
	return &HTTPUploader{client: client, logger: logger}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload implements Uploader.
func (u *HTTPUploader) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	var result uploadResponse
	resp, err := u.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(content)).
		SetResult(&result).
		Post("")
	if err != nil {
		u.logger.Error("Attachment upload failed", zap.String("filename", filename), zap.Error(err))
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("object storage rejected upload: status %d", resp.StatusCode())
	}
	if result.URL == "" {
		return "", fmt.Errorf("object storage returned no url")
	}
	return result.URL, nil
}

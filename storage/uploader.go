package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var ErrUploaderDisabled = errors.New("image uploads are not configured")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ImageKey builds an object key like "games/12/1700000000.png".
func ImageKey(kind string, id int, ext string, now time.Time) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%d/%d%s", kind, id, now.Unix(), ext)
}

// ExtensionFromContentType maps an image content type to a file extension.
func ExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "image/svg+xml":
		return ".svg", nil
	}
	return "", fmt.Errorf("unsupported image content type: %q", contentType)
}

type disabledUploader struct{}

// NewDisabledUploader returns an uploader that refuses every upload. Used when
// R2 is not configured so the rest of the API keeps working.
func NewDisabledUploader() FileUploader {
	return disabledUploader{}
}

func (disabledUploader) Upload(context.Context, string, string, io.Reader) (*UploadResult, error) {
	return nil, ErrUploaderDisabled
}

func (disabledUploader) Delete(context.Context, string) error {
	return ErrUploaderDisabled
}

func (disabledUploader) GetPublicURL(string) string {
	return ""
}

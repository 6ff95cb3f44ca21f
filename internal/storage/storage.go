package storage

import (
	"context"
	"io"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

type Downloader interface {
	Download(ctx context.Context, objectName string) ([]byte, error)
}

// Bucket is one named object container, ex: resumes or voice-recordings.
type Bucket interface {
	Uploader
	Downloader
}

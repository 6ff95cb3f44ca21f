package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/yoockh/prepwise/internal/utils"
	"google.golang.org/api/option"
)

// NewGCSClient builds one client shared by every bucket. credentialsFile may
// be empty to use application default credentials.
func NewGCSClient(ctx context.Context, credentialsFile string) (*gcs.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return gcs.NewClient(ctx, opts...)
}

type GCSBucket struct {
	client *gcs.Client
	bucket string
}

func NewGCSBucket(client *gcs.Client, bucket string) *GCSBucket {
	return &GCSBucket{client: client, bucket: bucket}
}

func (b *GCSBucket) Name() string { return b.bucket }

// Upload writes the object privately and returns its key inside the bucket.
func (b *GCSBucket) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	w := b.client.Bucket(b.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", b.bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close gs://%s/%s: %w", b.bucket, objectName, err)
	}
	return objectName, nil
}

func (b *GCSBucket) Download(ctx context.Context, objectName string) ([]byte, error) {
	rd, err := b.client.Bucket(b.bucket).Object(objectName).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return io.ReadAll(rd)
}

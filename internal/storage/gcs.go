package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs"

type GCSStorage struct {
	client *storage.Client
}

func NewGCSStorage(ctx context.Context) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStorage{client: client}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) Download(ctx context.Context, rawURL, localPath string) error {
	bucket, object, err := ParseGCSURL(rawURL)
	if err != nil {
		return err
	}
	return s.downloadFile(ctx, bucket, object, localPath)
}

func (s *GCSStorage) downloadFile(ctx context.Context, bucket, object, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to download gs://%s/%s: %w", bucket, object, err)
	}

	return nil
}

// ParseGCSURL splits gs://bucket/path/to/object.
func ParseGCSURL(rawURL string) (bucket, object string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid GCS URL %q: %w", rawURL, err)
	}
	if u.Scheme != gcsScheme {
		return "", "", fmt.Errorf("invalid GCS URL %q: scheme must be gs", rawURL)
	}

	object = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || object == "" {
		return "", "", fmt.Errorf("invalid GCS URL %q: want gs://bucket/object", rawURL)
	}
	return u.Host, object, nil
}

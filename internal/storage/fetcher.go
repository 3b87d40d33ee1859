package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type gcsDownloader interface {
	Download(ctx context.Context, rawURL, localPath string) error
}

// Fetcher copies a remote file to local disk. http(s) URLs go through the
// HTTP client; gs:// URLs go through a GCS client created on first use.
type Fetcher struct {
	httpClient *http.Client
	newGCS     func(ctx context.Context) (gcsDownloader, error)
}

func NewFetcher(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		httpClient: httpClient,
		newGCS: func(ctx context.Context) (gcsDownloader, error) {
			return NewGCSStorage(ctx)
		},
	}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL, localPath string) error {
	if strings.HasPrefix(rawURL, gcsScheme+"://") {
		return f.fetchGCS(ctx, rawURL, localPath)
	}
	return f.fetchHTTP(ctx, rawURL, localPath)
}

func (f *Fetcher) fetchGCS(ctx context.Context, rawURL, localPath string) error {
	gcs, err := f.newGCS(ctx)
	if err != nil {
		return err
	}
	if closer, ok := gcs.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	return gcs.Download(ctx, rawURL, localPath)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer func() { _ = out.Close() }()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(localPath)
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}

	slog.Debug("Fetched remote file", "url", rawURL, "path", localPath, "bytes", n)
	return nil
}

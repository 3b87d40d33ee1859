package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"reelshorts/internal/storage"
)

var ErrMediaMissing = errors.New("downloaded media file not found")

// Backend is the extraction capability: resolve a URL into its metadata
// document or into a file on disk.
type Backend interface {
	DumpJSON(ctx context.Context, url string, opts RunOptions) ([]byte, error)
	Download(ctx context.Context, url, output string, opts RunOptions) error
}

type RunOptions struct {
	// FFmpegDir overrides the ffmpeg location. Empty means the system default.
	FFmpegDir string
	Format    string
}

type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

type mediaInfo struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type Extractor struct {
	backend Backend
	storage *storage.LocalStorage
	format  string
}

func NewExtractor(backend Backend, local *storage.LocalStorage, format string) *Extractor {
	return &Extractor{
		backend: backend,
		storage: local,
		format:  format,
	}
}

// Metadata queries the source without fetching media bytes.
func (e *Extractor) Metadata(ctx context.Context, url, ffmpegDir string) (*Metadata, error) {
	data, err := e.backend.DumpJSON(ctx, url, RunOptions{FFmpegDir: ffmpegDir})
	if err != nil {
		return nil, fmt.Errorf("extract metadata: %w", err)
	}

	var info mediaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	meta := &Metadata{
		Title:       deref(info.Title),
		Description: deref(info.Description),
	}
	meta.Tags = ParseHashtags(meta.Description)

	slog.Debug("Extracted metadata", "title", meta.Title, "tags", len(meta.Tags))
	return meta, nil
}

// Download fetches the media into a fresh scratch path and returns it.
// Partial files are left behind on failure.
func (e *Extractor) Download(ctx context.Context, url, ffmpegDir string) (string, error) {
	path, err := e.storage.NewMediaPath()
	if err != nil {
		return "", err
	}

	opts := RunOptions{FFmpegDir: ffmpegDir, Format: e.format}
	if err := e.backend.Download(ctx, url, path, opts); err != nil {
		return "", fmt.Errorf("download media: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrMediaMissing, path)
	}

	slog.Debug("Downloaded media", "path", path, "bytes", info.Size())
	return path, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

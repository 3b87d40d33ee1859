package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"reelshorts/internal/storage"
)

type Source string

const (
	SourceSystem     Source = "system"
	SourceCache      Source = "cache"
	SourceDownloaded Source = "downloaded"
	SourceMissing    Source = "missing"
)

// Resolution is the outcome of Resolve. Path is empty when the system
// default should be used or when the tool could not be found.
type Resolution struct {
	Path   string
	Source Source
}

// Dir is the directory holding the resolved binary, or "" when Path is empty.
func (r Resolution) Dir() string {
	if r.Path == "" {
		return ""
	}
	return filepath.Dir(r.Path)
}

type ArchiveFetcher interface {
	Fetch(ctx context.Context, rawURL, localPath string) error
}

type Options struct {
	Binary     string
	ArchiveURL string
	Storage    *storage.LocalStorage
	Fetcher    ArchiveFetcher
	// Notify receives user-facing status lines. Optional.
	Notify func(msg string)
}

type Bootstrapper struct {
	binary     string
	archiveURL string
	storage    *storage.LocalStorage
	fetcher    ArchiveFetcher
	notify     func(msg string)
	probe      func(ctx context.Context, binary string) bool
}

func NewBootstrapper(opts Options) *Bootstrapper {
	notify := opts.Notify
	if notify == nil {
		notify = func(string) {}
	}
	return &Bootstrapper{
		binary:     opts.Binary,
		archiveURL: opts.ArchiveURL,
		storage:    opts.Storage,
		fetcher:    opts.Fetcher,
		notify:     notify,
		probe:      probeBinary,
	}
}

// Resolve never returns an error: a failed download is reported and yields
// SourceMissing so later steps can fail on their own if ffmpeg is needed.
func (b *Bootstrapper) Resolve(ctx context.Context) Resolution {
	if b.probe(ctx, b.binary) {
		slog.Debug("ffmpeg found on PATH", "binary", b.binary)
		return Resolution{Source: SourceSystem}
	}

	cached := b.storage.ToolPath(b.binary)
	if storage.FileExists(cached) {
		slog.Debug("ffmpeg found in cache", "path", cached)
		return Resolution{Path: cached, Source: SourceCache}
	}

	if err := b.download(ctx, cached); err != nil {
		slog.Warn("ffmpeg bootstrap failed", "error", err)
		b.notify(fmt.Sprintf("Failed to download ffmpeg: %v", err))
		return Resolution{Source: SourceMissing}
	}

	return Resolution{Path: cached, Source: SourceDownloaded}
}

func (b *Bootstrapper) download(ctx context.Context, dest string) error {
	if b.archiveURL == "" {
		return fmt.Errorf("no ffmpeg archive configured for this platform")
	}
	if err := b.storage.EnsureToolDir(); err != nil {
		return err
	}

	b.notify("Downloading ffmpeg...")

	archivePath := filepath.Join(b.storage.ToolDir(), archiveName(b.archiveURL))
	defer func() { _ = os.Remove(archivePath) }()
	if err := b.fetcher.Fetch(ctx, b.archiveURL, archivePath); err != nil {
		return err
	}

	if err := extractBinary(archivePath, b.archiveURL, b.binary, dest); err != nil {
		return err
	}

	slog.Info("ffmpeg installed", "path", dest)
	return nil
}

func probeBinary(ctx context.Context, binary string) bool {
	cmd := exec.CommandContext(ctx, binary, "-version")
	return cmd.Run() == nil
}

// archiveName keeps the extension of the remote name so the format can be
// detected; URLs without one (evermeet) are zips.
func archiveName(rawURL string) string {
	switch detectFormat(rawURL) {
	case formatTarXZ:
		return "ffmpeg.tar.xz"
	case formatTarGZ:
		return "ffmpeg.tar.gz"
	default:
		return "ffmpeg.zip"
	}
}

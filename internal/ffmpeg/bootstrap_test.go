package ffmpeg

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	"reelshorts/internal/storage"
)

const fakeBinary = "#!/bin/sh\necho ffmpeg\n"

type fakeFetcher struct {
	data  []byte
	err   error
	calls int
	url   string
	// partial writes data before failing with err.
	partial bool
	path    string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL, localPath string) error {
	f.calls++
	f.url = rawURL
	f.path = localPath
	if f.partial {
		_ = os.WriteFile(localPath, f.data, 0644)
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(localPath, f.data, 0644)
}

func newTestBootstrapper(t *testing.T, fetcher *fakeFetcher, archiveURL string, onPath bool) (*Bootstrapper, *storage.LocalStorage) {
	t.Helper()
	tmpDir := t.TempDir()
	local := storage.NewLocalStorage(filepath.Join(tmpDir, "temp"), filepath.Join(tmpDir, "ffmpeg_bin"))

	b := NewBootstrapper(Options{
		Binary:     "ffmpeg",
		ArchiveURL: archiveURL,
		Storage:    local,
		Fetcher:    fetcher,
	})
	b.probe = func(context.Context, string) bool { return onPath }
	return b, local
}

func zipArchive(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		_, _ = w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func tarArchive(t *testing.T, wrap func(io.Writer) (io.WriteCloser, error), members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	cw, err := wrap(&buf)
	if err != nil {
		t.Fatalf("compressor: %v", err)
	}
	tw := tar.NewWriter(cw)
	for name, content := range members {
		hdr := &tar.Header{Name: name, Mode: 0755, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		_, _ = tw.Write([]byte(content))
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := cw.Close(); err != nil {
		t.Fatalf("compressor close: %v", err)
	}
	return buf.Bytes()
}

func TestResolveSystem(t *testing.T) {
	fetcher := &fakeFetcher{}
	b, _ := newTestBootstrapper(t, fetcher, "https://example.com/ffmpeg.zip", true)

	got := b.Resolve(context.Background())

	if got.Source != SourceSystem {
		t.Errorf("Source = %q, want %q", got.Source, SourceSystem)
	}
	if got.Path != "" || got.Dir() != "" {
		t.Errorf("Path = %q, want empty for system ffmpeg", got.Path)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher called %d times, want 0", fetcher.calls)
	}
}

func TestResolveCache(t *testing.T) {
	fetcher := &fakeFetcher{}
	b, local := newTestBootstrapper(t, fetcher, "https://example.com/ffmpeg.zip", false)

	if err := local.EnsureToolDir(); err != nil {
		t.Fatal(err)
	}
	cached := local.ToolPath("ffmpeg")
	_ = os.WriteFile(cached, []byte(fakeBinary), 0755)

	got := b.Resolve(context.Background())

	if got.Source != SourceCache {
		t.Errorf("Source = %q, want %q", got.Source, SourceCache)
	}
	if got.Path != cached {
		t.Errorf("Path = %q, want %q", got.Path, cached)
	}
	if got.Dir() != local.ToolDir() {
		t.Errorf("Dir() = %q, want %q", got.Dir(), local.ToolDir())
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher called %d times, want 0", fetcher.calls)
	}
}

func TestResolveDownload(t *testing.T) {
	xzWriter := func(w io.Writer) (io.WriteCloser, error) { return xz.NewWriter(w) }
	gzWriter := func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil }

	tests := []struct {
		name string
		url  string
		data func(t *testing.T) []byte
	}{
		{
			name: "zip",
			url:  "https://example.com/ffmpeg-release-essentials.zip",
			data: func(t *testing.T) []byte {
				return zipArchive(t, map[string]string{
					"ffmpeg-7.1-essentials_build/README.txt": "readme",
					"ffmpeg-7.1-essentials_build/bin/ffmpeg": fakeBinary,
				})
			},
		},
		{
			name: "zipWithoutExtension",
			url:  "https://evermeet.cx/ffmpeg/getrelease/zip",
			data: func(t *testing.T) []byte {
				return zipArchive(t, map[string]string{"ffmpeg": fakeBinary})
			},
		},
		{
			name: "tarXZ",
			url:  "https://example.com/ffmpeg-release-amd64-static.tar.xz",
			data: func(t *testing.T) []byte {
				return tarArchive(t, xzWriter, map[string]string{
					"ffmpeg-7.0.2-amd64-static/ffprobe": "probe",
					"ffmpeg-7.0.2-amd64-static/ffmpeg":  fakeBinary,
				})
			},
		},
		{
			name: "tarGZ",
			url:  "gs://tools/ffmpeg.tar.gz",
			data: func(t *testing.T) []byte {
				return tarArchive(t, gzWriter, map[string]string{"bin/ffmpeg": fakeBinary})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{data: tt.data(t)}
			b, local := newTestBootstrapper(t, fetcher, tt.url, false)

			var notes []string
			b.notify = func(msg string) { notes = append(notes, msg) }

			got := b.Resolve(context.Background())

			if got.Source != SourceDownloaded {
				t.Fatalf("Source = %q, want %q", got.Source, SourceDownloaded)
			}
			if got.Path != local.ToolPath("ffmpeg") {
				t.Errorf("Path = %q, want %q", got.Path, local.ToolPath("ffmpeg"))
			}
			if fetcher.url != tt.url {
				t.Errorf("fetched %q, want %q", fetcher.url, tt.url)
			}

			data, err := os.ReadFile(got.Path)
			if err != nil {
				t.Fatalf("read extracted binary: %v", err)
			}
			if string(data) != fakeBinary {
				t.Errorf("extracted content = %q", data)
			}
			info, _ := os.Stat(got.Path)
			if info.Mode().Perm()&0100 == 0 {
				t.Errorf("extracted binary mode = %v, want executable", info.Mode())
			}

			entries, _ := os.ReadDir(local.ToolDir())
			if len(entries) != 1 {
				t.Errorf("tool dir has %d entries, want only the binary", len(entries))
			}
			if len(notes) == 0 || !strings.Contains(notes[0], "Downloading ffmpeg") {
				t.Errorf("notes = %v, want a download notice", notes)
			}
		})
	}
}

func TestResolveDownloadFailureIsSwallowed(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	b, _ := newTestBootstrapper(t, fetcher, "https://example.com/ffmpeg.zip", false)

	var notes []string
	b.notify = func(msg string) { notes = append(notes, msg) }

	got := b.Resolve(context.Background())

	if got.Source != SourceMissing || got.Path != "" {
		t.Errorf("Resolve() = %+v, want missing with empty path", got)
	}
	if len(notes) < 2 || !strings.Contains(notes[len(notes)-1], "connection refused") {
		t.Errorf("notes = %v, want failure reported", notes)
	}
}

func TestResolveInterruptedDownloadLeavesNoArchive(t *testing.T) {
	fetcher := &fakeFetcher{
		data:    []byte("truncated"),
		err:     errors.New("unexpected EOF"),
		partial: true,
	}
	b, local := newTestBootstrapper(t, fetcher, "https://example.com/ffmpeg.tar.xz", false)

	got := b.Resolve(context.Background())

	if got.Source != SourceMissing {
		t.Errorf("Source = %q, want %q", got.Source, SourceMissing)
	}
	if fetcher.path == "" {
		t.Fatal("fetcher was not called")
	}
	if storage.FileExists(fetcher.path) {
		t.Errorf("partial archive left at %s", fetcher.path)
	}
	entries, err := os.ReadDir(local.ToolDir())
	if err != nil {
		t.Fatalf("read tool dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("tool dir entries = %d, want 0", len(entries))
	}
}

func TestResolveArchiveWithoutBinary(t *testing.T) {
	fetcher := &fakeFetcher{data: zipArchive(t, map[string]string{"docs/ffmpeg.html": "doc"})}
	b, local := newTestBootstrapper(t, fetcher, "https://example.com/ffmpeg.zip", false)

	got := b.Resolve(context.Background())

	if got.Source != SourceMissing {
		t.Errorf("Source = %q, want %q", got.Source, SourceMissing)
	}
	if storage.FileExists(local.ToolPath("ffmpeg")) {
		t.Error("no binary should be installed")
	}
}

func TestResolveNoArchiveURL(t *testing.T) {
	fetcher := &fakeFetcher{}
	b, _ := newTestBootstrapper(t, fetcher, "", false)

	got := b.Resolve(context.Background())

	if got.Source != SourceMissing {
		t.Errorf("Source = %q, want %q", got.Source, SourceMissing)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher called %d times, want 0", fetcher.calls)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		url  string
		want archiveFormat
	}{
		{"https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip", formatZip},
		{"https://evermeet.cx/ffmpeg/getrelease/zip", formatZip},
		{"https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-amd64-static.tar.xz", formatTarXZ},
		{"https://example.com/ffmpeg.TGZ?sig=abc", formatTarGZ},
		{"gs://bucket/ffmpeg.tar.gz", formatTarGZ},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := detectFormat(tt.url); got != tt.want {
				t.Errorf("detectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeBinaryMissing(t *testing.T) {
	if probeBinary(context.Background(), "reelshorts-definitely-not-installed") {
		t.Error("probeBinary() = true for a missing executable")
	}
}

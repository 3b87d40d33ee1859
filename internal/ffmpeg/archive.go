package ffmpeg

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

type archiveFormat int

const (
	formatZip archiveFormat = iota
	formatTarXZ
	formatTarGZ
)

var errBinaryNotInArchive = errors.New("binary not found in archive")

func detectFormat(rawURL string) archiveFormat {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	p = strings.ToLower(p)

	switch {
	case strings.HasSuffix(p, ".tar.xz"), strings.HasSuffix(p, ".txz"):
		return formatTarXZ
	case strings.HasSuffix(p, ".tar.gz"), strings.HasSuffix(p, ".tgz"):
		return formatTarGZ
	default:
		return formatZip
	}
}

// extractBinary copies the first archive member named binary to dest and
// marks it executable.
func extractBinary(archivePath, rawURL, binary, dest string) error {
	var err error
	switch detectFormat(rawURL) {
	case formatTarXZ:
		err = extractFromTar(archivePath, binary, dest, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case formatTarGZ:
		err = extractFromTar(archivePath, binary, dest, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	default:
		err = extractFromZip(archivePath, binary, dest)
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", binary, err)
	}
	return nil
}

func extractFromZip(archivePath, binary, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = zr.Close() }()

	for _, member := range zr.File {
		if member.FileInfo().IsDir() || path.Base(member.Name) != binary {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()
		return writeExecutable(rc, dest)
	}
	return errBinaryNotInArchive
}

func extractFromTar(archivePath, binary, dest string, decompress func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r, err := decompress(f)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return errBinaryNotInArchive
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg || path.Base(hdr.Name) != binary {
			continue
		}
		return writeExecutable(tr, dest)
	}
}

func writeExecutable(r io.Reader, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".ffmpeg-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0755); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

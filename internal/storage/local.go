package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const mediaExtension = ".mp4"

// LocalStorage owns the on-disk directories used by a run. Nothing it creates
// is removed automatically.
type LocalStorage struct {
	scratchDir string
	toolDir    string
}

func NewLocalStorage(scratchDir, toolDir string) *LocalStorage {
	return &LocalStorage{
		scratchDir: scratchDir,
		toolDir:    toolDir,
	}
}

func (s *LocalStorage) ScratchDir() string { return s.scratchDir }
func (s *LocalStorage) ToolDir() string    { return s.toolDir }

// NewMediaPath returns an absolute, not yet existing path in the scratch
// directory, creating the directory if needed.
func (s *LocalStorage) NewMediaPath() (string, error) {
	if err := os.MkdirAll(s.scratchDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + mediaExtension
	path, err := filepath.Abs(filepath.Join(s.scratchDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve media path: %w", err)
	}
	return path, nil
}

func (s *LocalStorage) ToolPath(name string) string {
	return filepath.Join(s.toolDir, name)
}

func (s *LocalStorage) EnsureToolDir() error {
	if err := os.MkdirAll(s.toolDir, 0755); err != nil {
		return fmt.Errorf("failed to create tool directory: %w", err)
	}
	return nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

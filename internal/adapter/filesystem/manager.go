package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
	"github.com/vertextoedge/hub-mirror/internal/port"
)

// Manager handles local filesystem operations
type Manager struct {
	rootDir string
}

// Ensure Manager implements port.FileSystem
var _ port.FileSystem = (*Manager)(nil)

// NewManager creates a new filesystem manager rooted at rootDir
func NewManager(rootDir string) (*Manager, error) {
	if rootDir == "" {
		rootDir = "."
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output dir: %w", err)
	}

	// Ensure root directory exists
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	return &Manager{
		rootDir: abs,
	}, nil
}

// RootDir returns the output root directory
func (m *Manager) RootDir() string {
	return m.rootDir
}

// LocalPath returns the local path for a remote file path
func (m *Manager) LocalPath(remote vo.RemotePath) string {
	return remote.ToLocalPath(m.rootDir)
}

// EnsureDir ensures the directory for a file path exists
func (m *Manager) EnsureDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return os.MkdirAll(dir, 0755)
}

// Resolve returns the local path for a remote file and creates its parent directories
func (m *Manager) Resolve(remote vo.RemotePath) (string, error) {
	if remote.IsEmpty() {
		return "", vo.ErrEmptyPath
	}
	localPath := m.LocalPath(remote)
	if err := m.EnsureDir(localPath); err != nil {
		return "", fmt.Errorf("failed to create parent dir: %w", err)
	}
	return localPath, nil
}

// Stat returns the size of a local file and whether it exists
func (m *Manager) Stat(localPath string) (int64, bool, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return 0, false, fmt.Errorf("failed to stat file: %s is a directory", localPath)
	}
	return info.Size(), true, nil
}

// OpenAppend opens a local file for writing at offset
func (m *Manager) OpenAppend(localPath string, offset int64) (io.WriteCloser, error) {
	if offset == 0 {
		f, err := os.OpenFile(localPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to create file: %w", err)
		}
		return f, nil
	}

	f, err := os.OpenFile(localPath, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for resume: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file for resume: %w", err)
	}
	if info.Size() != offset {
		f.Close()
		return nil, fmt.Errorf("resume offset %d does not match file size %d", offset, info.Size())
	}

	return f, nil
}

// Remove deletes a local file
func (m *Manager) Remove(localPath string) error {
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

package vo

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// RemotePath is a file path relative to the root of a remote repository.
// It always uses forward slashes and never escapes the repository root.
type RemotePath struct {
	value string
}

var (
	ErrEmptyPath    = errors.New("file path cannot be empty")
	ErrInvalidPath  = errors.New("invalid file path")
	ErrAbsolutePath = errors.New("remote path must be relative")
)

// NewRemotePath creates a new RemotePath value object.
func NewRemotePath(p string) (RemotePath, error) {
	if p == "" {
		return RemotePath{}, ErrEmptyPath
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") {
		return RemotePath{}, ErrAbsolutePath
	}

	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return RemotePath{}, ErrInvalidPath
	}
	return RemotePath{value: cleaned}, nil
}

// MustRemotePath creates a new RemotePath, panicking if invalid.
// Use only when path is known to be valid.
func MustRemotePath(p string) RemotePath {
	rp, err := NewRemotePath(p)
	if err != nil {
		panic(err)
	}
	return rp
}

// String returns the slash-separated path.
func (rp RemotePath) String() string {
	return rp.value
}

// IsEmpty returns true if the path is empty.
func (rp RemotePath) IsEmpty() bool {
	return rp.value == ""
}

// FileName returns the base name of the file.
func (rp RemotePath) FileName() string {
	return path.Base(rp.value)
}

// Dir returns the directory part of the path, "." for top-level files.
func (rp RemotePath) Dir() string {
	return path.Dir(rp.value)
}

// Segments returns the path elements.
func (rp RemotePath) Segments() []string {
	if rp.value == "" {
		return nil
	}
	return strings.Split(rp.value, "/")
}

// ToLocalPath maps the remote path under rootDir, preserving subdirectories.
func (rp RemotePath) ToLocalPath(rootDir string) string {
	if rp.value == "" {
		return ""
	}
	return filepath.Join(rootDir, filepath.FromSlash(rp.value))
}

// Equals checks if two paths are equal.
func (rp RemotePath) Equals(other RemotePath) bool {
	return rp.value == other.value
}

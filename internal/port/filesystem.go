package port

import (
	"io"

	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
)

// FileSystem defines the interface for local filesystem operations
type FileSystem interface {
	// RootDir returns the directory files are mirrored into
	RootDir() string

	// LocalPath returns the local path for a remote file path
	LocalPath(remote vo.RemotePath) string

	// Resolve returns the local path for a remote file path and
	// creates its parent directories
	Resolve(remote vo.RemotePath) (string, error)

	// Stat returns the size of a local file and whether it exists.
	// A missing file is not an error.
	Stat(localPath string) (size int64, exists bool, err error)

	// OpenAppend opens a local file for writing at offset.
	// offset 0 creates or truncates the file, otherwise the file is
	// opened in append mode and must already be offset bytes long.
	OpenAppend(localPath string, offset int64) (io.WriteCloser, error)

	// Remove deletes a local file; a missing file is not an error
	Remove(localPath string) error
}

package port

import (
	"context"
	"io"

	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
)

// RepoRef addresses a repository at a revision on the hub
type RepoRef struct {
	RepoID   string // e.g. "OwlMaster/LivePortrait"
	RepoType string // model, dataset or space
	Revision string // branch, tag or commit
}

// RemoteStat is the result of a metadata-only query for one file
type RemoteStat struct {
	// Size in bytes, -1 when the remote did not report one
	Size         int64
	ETag         string
	AcceptRanges bool
}

// RemoteStream is an open content response
type RemoteStream struct {
	Body io.ReadCloser

	// Offset is the byte position the body starts at. It is 0 when the
	// server ignored the requested range and sent the whole file.
	Offset int64

	// TotalSize is the full remote size if the response carried it, else -1
	TotalSize int64

	// Partial is true for a 206 Partial Content response
	Partial bool
}

// RepoLister enumerates the files published in a repository
type RepoLister interface {
	// ListRepoFiles returns every file path in the repository at the revision.
	// Any error is fatal to a run.
	ListRepoFiles(ctx context.Context, repo RepoRef) ([]vo.RemotePath, error)
}

// FileFetcher reads file metadata and content from the hub
type FileFetcher interface {
	// Stat performs a metadata-only query (no body transfer)
	Stat(ctx context.Context, repo RepoRef, path vo.RemotePath) (*RemoteStat, error)

	// Open requests the file content starting at offset.
	// offset 0 issues a plain request, otherwise a ranged one.
	Open(ctx context.Context, repo RepoRef, path vo.RemotePath, offset int64) (*RemoteStream, error)
}

// HubClient combines listing and content access
type HubClient interface {
	RepoLister
	FileFetcher
}

package hub

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vertextoedge/hub-mirror/internal/domain"
)

// Common errors
var (
	ErrNotFound            = errors.New("hub: resource not found")
	ErrUnauthorized        = errors.New("hub: unauthorized")
	ErrForbidden           = errors.New("hub: access forbidden")
	ErrRangeNotSatisfiable = errors.New("hub: requested range not satisfiable")
	ErrRateLimited         = errors.New("hub: rate limited")
	ErrServerError         = errors.New("hub: server error")
	ErrUnexpectedStatus    = errors.New("hub: unexpected status code")
	ErrBadContentRange     = errors.New("hub: invalid Content-Range")
)

// TreeEntry is one item of the repository tree listing
type TreeEntry struct {
	Type string   `json:"type"` // "file" or "directory"
	OID  string   `json:"oid"`
	Size int64    `json:"size"`
	Path string   `json:"path"`
	LFS  *LFSInfo `json:"lfs,omitempty"`
}

// LFSInfo is set for files stored in Git LFS
type LFSInfo struct {
	OID         string `json:"oid"`
	Size        int64  `json:"size"`
	PointerSize int64  `json:"pointerSize"`
}

// IsFile returns true if the entry is a file
func (e *TreeEntry) IsFile() bool {
	return e.Type == "file"
}

// apiPrefixes maps a repository type tag to its API path segment
var apiPrefixes = map[string]string{
	domain.RepoTypeModel:   "models",
	domain.RepoTypeDataset: "datasets",
	domain.RepoTypeSpace:   "spaces",
}

// resolvePrefixes maps a repository type tag to its content URL prefix
var resolvePrefixes = map[string]string{
	domain.RepoTypeModel:   "",
	domain.RepoTypeDataset: "datasets/",
	domain.RepoTypeSpace:   "spaces/",
}

// checkStatusCode returns an error for non-success status codes.
// Client errors that will not change on retry are wrapped as permanent.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return domain.NewPermanentError(ErrNotFound, "")
	case code == http.StatusUnauthorized:
		return domain.NewPermanentError(ErrUnauthorized, "")
	case code == http.StatusForbidden:
		return domain.NewPermanentError(ErrForbidden, "")
	case code == http.StatusRequestedRangeNotSatisfiable:
		return ErrRangeNotSatisfiable
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	case code >= 500:
		return fmt.Errorf("%w: %d", ErrServerError, code)
	case code >= 400:
		return domain.NewPermanentError(fmt.Errorf("%w: %d", ErrUnexpectedStatus, code), "")
	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
}

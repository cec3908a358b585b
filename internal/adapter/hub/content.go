package hub

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
	"github.com/vertextoedge/hub-mirror/internal/port"
)

// linkedSizeHeader carries the LFS object size on hub redirects
const linkedSizeHeader = "X-Linked-Size"

// Stat performs a HEAD request to get file metadata. Redirects are followed.
func (c *Client) Stat(ctx context.Context, repo port.RepoRef, path vo.RemotePath) (*port.RemoteStat, error) {
	urlStr, err := c.ResolveURL(repo, path)
	if err != nil {
		return nil, err
	}

	resp, err := c.doDownloadRequestWithRange(ctx, http.MethodHead, urlStr, 0)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	size := resp.ContentLength
	if size < 0 {
		size = parseSizeHeader(resp.Header.Get("Content-Length"))
	}
	if size < 0 {
		size = parseSizeHeader(resp.Header.Get(linkedSizeHeader))
	}

	return &port.RemoteStat{
		Size:         size,
		ETag:         cleanETag(resp.Header.Get("ETag")),
		AcceptRanges: resp.Header.Get("Accept-Ranges") == "bytes",
	}, nil
}

// Open requests file content from offset. A server that ignores the range
// answers 200 and the returned stream reports Offset 0.
func (c *Client) Open(ctx context.Context, repo port.RepoRef, path vo.RemotePath, offset int64) (*port.RemoteStream, error) {
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d", offset)
	}

	urlStr, err := c.ResolveURL(repo, path)
	if err != nil {
		return nil, err
	}

	resp, err := c.doDownloadRequestWithRange(ctx, http.MethodGet, urlStr, offset)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		start, _, total, err := ParseContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			drainAndClose(resp.Body)
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		if start != offset {
			drainAndClose(resp.Body)
			return nil, fmt.Errorf("open %s: %w: range starts at %d, requested %d", path, ErrBadContentRange, start, offset)
		}
		return &port.RemoteStream{
			Body:      resp.Body,
			Offset:    start,
			TotalSize: total,
			Partial:   true,
		}, nil

	case http.StatusOK:
		return &port.RemoteStream{
			Body:      resp.Body,
			Offset:    0,
			TotalSize: resp.ContentLength,
			Partial:   false,
		}, nil

	default:
		drainAndClose(resp.Body)
		if err := checkStatusCode(resp.StatusCode); err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return nil, fmt.Errorf("open %s: %w: %d", path, ErrUnexpectedStatus, resp.StatusCode)
	}
}

// ParseContentRange parses a Content-Range header value.
// Returns start, end, total bytes. Total is -1 if unknown.
func ParseContentRange(header string) (start, end, total int64, err error) {
	// Format: bytes start-end/total or bytes start-end/*
	if !strings.HasPrefix(header, "bytes ") {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadContentRange, header)
	}
	header = strings.TrimPrefix(header, "bytes ")

	parts := strings.Split(header, "/")
	if len(parts) != 2 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadContentRange, header)
	}

	rangeParts := strings.Split(parts[0], "-")
	if len(rangeParts) != 2 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadContentRange, header)
	}

	start, err = strconv.ParseInt(rangeParts[0], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: invalid start byte: %v", ErrBadContentRange, err)
	}

	end, err = strconv.ParseInt(rangeParts[1], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: invalid end byte: %v", ErrBadContentRange, err)
	}

	if parts[1] == "*" {
		total = -1
	} else {
		total, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: invalid total bytes: %v", ErrBadContentRange, err)
		}
	}

	return start, end, total, nil
}

// parseSizeHeader parses a byte count header, returning -1 if absent or invalid
func parseSizeHeader(v string) int64 {
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// cleanETag removes quotes from an ETag value
func cleanETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	return etag
}

package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vertextoedge/hub-mirror/internal/domain"
	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
	"github.com/vertextoedge/hub-mirror/internal/port"
)

// ListRepoFiles lists every file in a repository, following pagination
func (c *Client) ListRepoFiles(ctx context.Context, repo port.RepoRef) ([]vo.RemotePath, error) {
	if repo.RepoID == "" {
		return nil, fmt.Errorf("%w: repo id is required", domain.ErrInvalidInput)
	}

	next, err := c.treeURL(repo)
	if err != nil {
		return nil, err
	}

	var files []vo.RemotePath
	seen := make(map[string]bool)
	visited := make(map[string]bool)

	for next != "" {
		if visited[next] {
			return nil, fmt.Errorf("%w: pagination loop at %s", domain.ErrListingFailed, next)
		}
		visited[next] = true

		entries, nextURL, err := c.listTreePage(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrListingFailed, err)
		}

		for _, entry := range entries {
			if !entry.IsFile() {
				continue
			}
			rp, err := vo.NewRemotePath(entry.Path)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid path %q: %w", domain.ErrListingFailed, entry.Path, err)
			}
			if seen[rp.String()] {
				continue
			}
			seen[rp.String()] = true
			files = append(files, rp)
		}

		next = nextURL
	}

	return files, nil
}

// listTreePage fetches one page of the tree listing
// Returns: entries, URL of the next page (empty when done), error
func (c *Client) listTreePage(ctx context.Context, pageURL string) ([]TreeEntry, string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, pageURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode); err != nil {
		return nil, "", fmt.Errorf("list tree: %w", err)
	}

	var entries []TreeEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, "", fmt.Errorf("failed to decode tree response: %w", err)
	}

	nextURL, err := resolveNextLink(pageURL, resp.Header.Get("Link"))
	if err != nil {
		return nil, "", err
	}

	return entries, nextURL, nil
}

// resolveNextLink extracts the rel="next" target of a Link header and
// resolves it against the current page URL
func resolveNextLink(pageURL, header string) (string, error) {
	target := parseNextLink(header)
	if target == "" {
		return "", nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url: %w", err)
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid next link %q: %w", target, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// parseNextLink returns the URL tagged rel="next" in a Link header value
func parseNextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}

		target := strings.TrimSpace(sections[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}

		for _, param := range sections[1:] {
			param = strings.TrimSpace(param)
			if param == `rel="next"` || param == "rel=next" {
				return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
			}
		}
	}
	return ""
}

package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/vertextoedge/hub-mirror/internal/domain"
	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
	"github.com/vertextoedge/hub-mirror/internal/port"
)

var testRepo = port.RepoRef{RepoID: "owner/repo", RepoType: domain.RepoTypeModel, Revision: "main"}

func TestClient_ResolveURL(t *testing.T) {
	c := NewClient("https://hub.example/")

	tests := []struct {
		name string
		repo port.RepoRef
		path string
		want string
	}{
		{
			name: "model",
			repo: testRepo,
			path: "sub/b.bin",
			want: "https://hub.example/owner/repo/resolve/main/sub/b.bin",
		},
		{
			name: "dataset",
			repo: port.RepoRef{RepoID: "owner/data", RepoType: domain.RepoTypeDataset},
			path: "train.csv",
			want: "https://hub.example/datasets/owner/data/resolve/main/train.csv",
		},
		{
			name: "space with escaped segment",
			repo: port.RepoRef{RepoID: "owner/app", RepoType: domain.RepoTypeSpace, Revision: "v1"},
			path: "assets/my file#1.png",
			want: "https://hub.example/spaces/owner/app/resolve/v1/assets/my%20file%231.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ResolveURL(tt.repo, vo.MustRemotePath(tt.path))
			if err != nil {
				t.Fatalf("ResolveURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveURL() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := c.ResolveURL(port.RepoRef{RepoID: "x", RepoType: "bucket"}, vo.MustRemotePath("a")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown repo type: expected ErrInvalidInput, got %v", err)
	}
}

func TestClient_ListRepoFiles_Paginated(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/models/owner/repo/tree/main" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("recursive") != "true" {
			t.Errorf("recursive query = %q", r.URL.Query().Get("recursive"))
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/api/models/owner/repo/tree/main?recursive=true&cursor=p2>; rel="next"`, srv.URL))
			io.WriteString(w, `[
				{"type":"file","path":"a.bin","size":100},
				{"type":"directory","path":"sub"}
			]`)
		case "p2":
			io.WriteString(w, `[
				{"type":"file","path":"sub/b.bin","size":40,"lfs":{"oid":"abc","size":40,"pointerSize":130}},
				{"type":"file","path":"a.bin","size":100}
			]`)
		default:
			http.Error(w, "bad cursor", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	files, err := c.ListRepoFiles(context.Background(), testRepo)
	if err != nil {
		t.Fatalf("ListRepoFiles: %v", err)
	}

	var got []string
	for _, f := range files {
		got = append(got, f.String())
	}
	want := []string{"a.bin", "sub/b.bin"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestClient_ListRepoFiles_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		permanent bool
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"error":"Repository not found"}`, permanent: true},
		{name: "server error", status: http.StatusBadGateway, body: "", permanent: false},
		{name: "malformed json", status: http.StatusOK, body: `{"not":"a list"`, permanent: false},
		{name: "unsafe path", status: http.StatusOK, body: `[{"type":"file","path":"../escape"}]`, permanent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).ListRepoFiles(context.Background(), testRepo)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrListingFailed) {
				t.Errorf("expected ErrListingFailed, got %v", err)
			}
			if got := domain.IsPermanent(err); got != tt.permanent {
				t.Errorf("IsPermanent() = %v, want %v (err: %v)", got, tt.permanent, err)
			}
		})
	}
}

func TestClient_ListRepoFiles_PaginationLoop(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s%s>; rel="next"`, srv.URL, r.URL.RequestURI()))
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).ListRepoFiles(context.Background(), testRepo); err == nil {
		t.Fatal("expected error for self-referencing next link")
	}
}

func TestClient_Stat(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantSize int64
		wantErr  bool
	}{
		{
			name: "content length",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodHead {
					t.Errorf("method = %s, want HEAD", r.Method)
				}
				w.Header().Set("Content-Length", "100")
				w.Header().Set("ETag", `"abc"`)
				w.Header().Set("Accept-Ranges", "bytes")
			},
			wantSize: 100,
		},
		{
			name: "zero length",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "0")
			},
			wantSize: 0,
		},
		{
			name: "linked size fallback",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Linked-Size", "2048")
				w.WriteHeader(http.StatusOK)
			},
			wantSize: 2048,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			stat, err := NewClient(srv.URL).Stat(context.Background(), testRepo, vo.MustRemotePath("a.bin"))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Stat: %v", err)
			}
			if stat.Size != tt.wantSize {
				t.Errorf("Size = %d, want %d", stat.Size, tt.wantSize)
			}
		})
	}
}

func TestClient_Stat_FollowsRedirect(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "77")
	}))
	defer cdn.Close()

	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, cdn.URL+"/blob", http.StatusFound)
	}))
	defer hub.Close()

	stat, err := NewClient(hub.URL).Stat(context.Background(), testRepo, vo.MustRemotePath("a.bin"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if stat.Size != 77 {
		t.Errorf("Size = %d, want 77", stat.Size)
	}
}

// rangeServer serves content honoring "bytes=N-" requests
func rangeServer(t *testing.T, content []byte, honorRange bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng := r.Header.Get("Range")
		if rng == "" || !honorRange {
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			w.Write(content)
			return
		}

		start, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(rng, "bytes="), "-"))
		if err != nil || start >= len(content) {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(content)-1, len(content)))
		w.Header().Set("Content-Length", strconv.Itoa(len(content)-start))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(content[start:])
	}))
}

func TestClient_Open(t *testing.T) {
	content := []byte("0123456789")

	tests := []struct {
		name        string
		honorRange  bool
		offset      int64
		wantOffset  int64
		wantPartial bool
		wantBody    string
		wantErr     error
	}{
		{name: "full", honorRange: true, offset: 0, wantOffset: 0, wantBody: "0123456789"},
		{name: "ranged", honorRange: true, offset: 4, wantOffset: 4, wantPartial: true, wantBody: "456789"},
		{name: "range ignored", honorRange: false, offset: 4, wantOffset: 0, wantBody: "0123456789"},
		{name: "range past end", honorRange: true, offset: 20, wantErr: ErrRangeNotSatisfiable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := rangeServer(t, content, tt.honorRange)
			defer srv.Close()

			stream, err := NewClient(srv.URL).Open(context.Background(), testRepo, vo.MustRemotePath("a.bin"), tt.offset)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer stream.Body.Close()

			if stream.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", stream.Offset, tt.wantOffset)
			}
			if stream.Partial != tt.wantPartial {
				t.Errorf("Partial = %v, want %v", stream.Partial, tt.wantPartial)
			}
			if stream.TotalSize != int64(len(content)) && tt.wantPartial {
				t.Errorf("TotalSize = %d, want %d", stream.TotalSize, len(content))
			}
			body, _ := io.ReadAll(stream.Body)
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestClient_Open_MismatchedRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "bytes 2-9/10")
		w.WriteHeader(http.StatusPartialContent)
		io.WriteString(w, "23456789")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Open(context.Background(), testRepo, vo.MustRemotePath("a.bin"), 4)
	if !errors.Is(err, ErrBadContentRange) {
		t.Errorf("expected ErrBadContentRange, got %v", err)
	}
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		header    string
		start     int64
		end       int64
		total     int64
		expectErr bool
	}{
		{header: "bytes 0-99/100", start: 0, end: 99, total: 100},
		{header: "bytes 40-99/100", start: 40, end: 99, total: 100},
		{header: "bytes 40-99/*", start: 40, end: 99, total: -1},
		{header: "", expectErr: true},
		{header: "items 0-1/2", expectErr: true},
		{header: "bytes 0-99", expectErr: true},
		{header: "bytes x-99/100", expectErr: true},
		{header: "bytes 0-99/abc", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			start, end, total, err := ParseContentRange(tt.header)
			if tt.expectErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if start != tt.start || end != tt.end || total != tt.total {
				t.Errorf("got (%d, %d, %d), want (%d, %d, %d)", start, end, total, tt.start, tt.end, tt.total)
			}
		})
	}
}

func TestParseNextLink(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: `<https://hub.example/p2>; rel="next"`, want: "https://hub.example/p2"},
		{header: `<https://hub.example/p1>; rel="prev", <https://hub.example/p3>; rel="next"`, want: "https://hub.example/p3"},
		{header: `<https://hub.example/p1>; rel="prev"`, want: ""},
		{header: `https://hub.example/p2; rel="next"`, want: ""},
	}

	for _, tt := range tests {
		if got := parseNextLink(tt.header); got != tt.want {
			t.Errorf("parseNextLink(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestCheckStatusCode(t *testing.T) {
	tests := []struct {
		code      int
		wantErr   bool
		permanent bool
	}{
		{code: 200},
		{code: 206},
		{code: 401, wantErr: true, permanent: true},
		{code: 403, wantErr: true, permanent: true},
		{code: 404, wantErr: true, permanent: true},
		{code: 400, wantErr: true, permanent: true},
		{code: 408, wantErr: true},
		{code: 416, wantErr: true},
		{code: 429, wantErr: true},
		{code: 500, wantErr: true},
		{code: 503, wantErr: true},
	}

	for _, tt := range tests {
		err := checkStatusCode(tt.code)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkStatusCode(%d) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			continue
		}
		if err != nil && domain.IsPermanent(err) != tt.permanent {
			t.Errorf("checkStatusCode(%d) permanent = %v, want %v", tt.code, domain.IsPermanent(err), tt.permanent)
		}
	}
}

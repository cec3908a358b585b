package vo

import (
	"path/filepath"
	"testing"
)

func TestNewRemotePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "top-level file", input: "config.json", want: "config.json"},
		{name: "nested file", input: "sub/b.bin", want: "sub/b.bin"},
		{name: "redundant segments", input: "sub/./x/../b.bin", want: "sub/b.bin"},
		{name: "backslashes", input: `sub\b.bin`, want: "sub/b.bin"},
		{name: "empty", input: "", wantErr: ErrEmptyPath},
		{name: "absolute", input: "/etc/passwd", wantErr: ErrAbsolutePath},
		{name: "escapes root", input: "../outside.bin", wantErr: ErrInvalidPath},
		{name: "escapes root after clean", input: "sub/../../outside.bin", wantErr: ErrInvalidPath},
		{name: "dot", input: ".", wantErr: ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp, err := NewRemotePath(tt.input)
			if err != tt.wantErr {
				t.Fatalf("NewRemotePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if err == nil && rp.String() != tt.want {
				t.Errorf("NewRemotePath(%q) = %q, want %q", tt.input, rp.String(), tt.want)
			}
		})
	}
}

func TestRemotePath_ToLocalPath(t *testing.T) {
	root := t.TempDir()

	rp := MustRemotePath("sub/dir/b.bin")
	want := filepath.Join(root, "sub", "dir", "b.bin")
	if got := rp.ToLocalPath(root); got != want {
		t.Errorf("ToLocalPath() = %q, want %q", got, want)
	}

	if got := (RemotePath{}).ToLocalPath(root); got != "" {
		t.Errorf("empty ToLocalPath() = %q, want empty", got)
	}
}

func TestRemotePath_Accessors(t *testing.T) {
	rp := MustRemotePath("sub/dir/b.bin")

	if rp.FileName() != "b.bin" {
		t.Errorf("FileName() = %q", rp.FileName())
	}
	if rp.Dir() != "sub/dir" {
		t.Errorf("Dir() = %q", rp.Dir())
	}
	if got := rp.Segments(); len(got) != 3 || got[0] != "sub" || got[2] != "b.bin" {
		t.Errorf("Segments() = %v", got)
	}
	if MustRemotePath("a.bin").Dir() != "." {
		t.Errorf("top-level Dir() = %q", MustRemotePath("a.bin").Dir())
	}
	if !rp.Equals(MustRemotePath("sub/dir/./b.bin")) {
		t.Error("Equals should compare cleaned paths")
	}
}

package vo

import (
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0.00 B"},
		{1, "1.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * MB, "5.00 MB"},
		{1073741824, "1.00 GB"},
		{TB, "1.00 TB"},
		{2048 * TB, "2048.00 TB"},
		{-1, "unknown"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.input); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewFileSize(t *testing.T) {
	if _, err := NewFileSize(-5); err != ErrNegativeSize {
		t.Errorf("expected ErrNegativeSize, got %v", err)
	}

	fs, err := NewFileSize(100)
	if err != nil {
		t.Fatalf("NewFileSize: %v", err)
	}
	if fs.Bytes() != 100 {
		t.Errorf("Bytes() = %d, want 100", fs.Bytes())
	}
	if fs.IsZero() {
		t.Error("IsZero() = true, want false")
	}
}

func TestFileSize_PercentOf(t *testing.T) {
	tests := []struct {
		done, total int64
		want        float64
	}{
		{0, 100, 0},
		{25, 100, 25},
		{100, 100, 100},
		{10, 0, 0},
	}

	for _, tt := range tests {
		done, _ := NewFileSize(tt.done)
		total, _ := NewFileSize(tt.total)
		if got := done.PercentOf(total); got != tt.want {
			t.Errorf("PercentOf(%d, %d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		bytes   int64
		elapsed time.Duration
		want    string
	}{
		{2 * MB, time.Second, "2.00 MB/s"},
		{3 * KB, 2 * time.Second, "1.50 KB/s"},
		{0, time.Second, "0.00 B/s"},
		{100, 0, "unknown"},
	}

	for _, tt := range tests {
		if got := FormatRate(tt.bytes, tt.elapsed); got != tt.want {
			t.Errorf("FormatRate(%d, %v) = %q, want %q", tt.bytes, tt.elapsed, got, tt.want)
		}
	}
}

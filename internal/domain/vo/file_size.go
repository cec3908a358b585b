package vo

import (
	"errors"
	"fmt"
	"time"
)

// FileSize is a non-negative byte count
type FileSize struct {
	bytes int64
}

// Binary units
const (
	KB int64 = 1024
	MB int64 = 1024 * KB
	GB int64 = 1024 * MB
	TB int64 = 1024 * GB
)

var ErrNegativeSize = errors.New("file size cannot be negative")

// sizeUnits are tried in order until the value drops below 1024;
// anything past the last unit is printed in TB.
var sizeUnits = []string{"B", "KB", "MB", "GB"}

// NewFileSize creates a new FileSize value object.
func NewFileSize(bytes int64) (FileSize, error) {
	if bytes < 0 {
		return FileSize{}, ErrNegativeSize
	}
	return FileSize{bytes: bytes}, nil
}

// Bytes returns the size in bytes.
func (fs FileSize) Bytes() int64 {
	return fs.bytes
}

// IsZero returns true if the size is zero.
func (fs FileSize) IsZero() bool {
	return fs.bytes == 0
}

// PercentOf returns fs as a percentage of total, or 0 for an empty total.
func (fs FileSize) PercentOf(total FileSize) float64 {
	if total.bytes == 0 {
		return 0
	}
	return float64(fs.bytes) * 100 / float64(total.bytes)
}

// String returns a human-readable string with two decimals, e.g. "1.50 KB".
func (fs FileSize) String() string {
	size := float64(fs.bytes)
	for _, unit := range sizeUnits {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f TB", size)
}

// FormatSize formats a byte count for logs and reports.
// Negative counts (unknown sizes) are printed as "unknown".
func FormatSize(bytes int64) string {
	fs, err := NewFileSize(bytes)
	if err != nil {
		return "unknown"
	}
	return fs.String()
}

// FormatRate formats the throughput of bytes moved in elapsed, e.g. "2.00 MB/s".
func FormatRate(bytes int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "unknown"
	}
	return FormatSize(int64(float64(bytes)/elapsed.Seconds())) + "/s"
}

package domain

// FetchResult is the outcome of downloading one remote file
type FetchResult struct {
	RemotePath string
	LocalPath  string

	// Verified is true only when the local length matched the expected
	// remote length within the attempt budget
	Verified bool

	// AlreadyComplete is true when no transfer was needed
	AlreadyComplete bool

	// Attempts is the number of attempts made (1-based)
	Attempts int

	// BytesTransferred counts body bytes written to disk across all attempts
	BytesTransferred int64

	ExpectedSize int64
	SizeKnown    bool
	FinalSize    int64

	// Resumed is true if any transfer started past offset 0.
	// ResumedFrom is the first such offset.
	Resumed     bool
	ResumedFrom int64

	// Err is the last attempt error, nil on success
	Err error
}

// Status returns the ledger status for the result
func (r *FetchResult) Status() FileStatus {
	if r.Verified {
		return FileStatusVerified
	}
	return FileStatusFailed
}

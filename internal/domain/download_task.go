package domain

import (
	"fmt"
)

// TaskState is the state of a single file download
type TaskState string

// Task states
const (
	TaskStateInitial   TaskState = "initial"
	TaskStateResuming  TaskState = "resuming"
	TaskStateVerifying TaskState = "verifying"
	TaskStateSucceeded TaskState = "succeeded"
	TaskStateFailed    TaskState = "failed"
)

// allowedTransitions lists, per state, the states it may move to.
// Resuming and Verifying go back to Initial when an attempt fails and
// attempts remain.
var allowedTransitions = map[TaskState][]TaskState{
	TaskStateInitial:   {TaskStateResuming, TaskStateSucceeded, TaskStateFailed},
	TaskStateResuming:  {TaskStateVerifying, TaskStateInitial, TaskStateFailed},
	TaskStateVerifying: {TaskStateSucceeded, TaskStateInitial, TaskStateFailed},
}

// IsTerminal reports whether no further transitions are possible
func (s TaskState) IsTerminal() bool {
	return s == TaskStateSucceeded || s == TaskStateFailed
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s TaskState) CanTransitionTo(next TaskState) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Decision is the outcome of comparing local and remote sizes before a transfer
type Decision int

const (
	// DecisionTransfer resumes (or starts) a transfer at the current local size
	DecisionTransfer Decision = iota
	// DecisionComplete means the local file already has the expected size
	DecisionComplete
	// DecisionRestart means the local file is larger than the remote one and
	// has to be discarded before transferring from offset 0
	DecisionRestart
)

func (d Decision) String() string {
	switch d {
	case DecisionTransfer:
		return "transfer"
	case DecisionComplete:
		return "complete"
	case DecisionRestart:
		return "restart"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// DownloadTask tracks one remote file through a single run.
// It is never persisted; the local file length is the only checkpoint.
type DownloadTask struct {
	RemotePath string
	LocalPath  string

	// Remote size, valid only when SizeKnown is true
	ExpectedSize int64
	SizeKnown    bool

	// Local state as of the last decision
	LocalSize   int64
	LocalExists bool

	// Retry handling
	Attempt     int
	MaxAttempts int
	LastError   string

	State TaskState
}

// NewDownloadTask creates a task in the Initial state
func NewDownloadTask(remotePath, localPath string, maxAttempts int) *DownloadTask {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &DownloadTask{
		RemotePath:  remotePath,
		LocalPath:   localPath,
		MaxAttempts: maxAttempts,
		State:       TaskStateInitial,
	}
}

// TransitionTo moves the task to the next state
func (t *DownloadTask) TransitionTo(next TaskState) error {
	if !t.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, t.State, next)
	}
	t.State = next
	return nil
}

// BeginAttempt starts a new attempt. It must be called in the Initial state.
func (t *DownloadTask) BeginAttempt() error {
	if t.State != TaskStateInitial {
		return fmt.Errorf("%w: cannot begin attempt in state %s", ErrInvalidStateTransition, t.State)
	}
	if t.Attempt >= t.MaxAttempts {
		return ErrRetriesExhausted
	}
	t.Attempt++
	return nil
}

// CanRetry returns true if another attempt is allowed
func (t *DownloadTask) CanRetry() bool {
	return t.Attempt < t.MaxAttempts
}

// SetRemoteSize records the remote size returned by a metadata query.
// A negative size means the remote did not report one.
func (t *DownloadTask) SetRemoteSize(size int64) {
	if size < 0 {
		t.ExpectedSize = 0
		t.SizeKnown = false
		return
	}
	t.ExpectedSize = size
	t.SizeKnown = true
}

// SetLocal records the local file state
func (t *DownloadTask) SetLocal(size int64, exists bool) {
	t.LocalSize = size
	t.LocalExists = exists
}

// Decide compares local and remote sizes. With an unknown remote size it
// always asks for a transfer.
func (t *DownloadTask) Decide() Decision {
	if !t.SizeKnown {
		return DecisionTransfer
	}
	switch {
	case t.LocalExists && t.LocalSize == t.ExpectedSize:
		return DecisionComplete
	case t.LocalSize > t.ExpectedSize:
		return DecisionRestart
	default:
		return DecisionTransfer
	}
}

// ResumeOffset returns the byte offset the next transfer starts at
func (t *DownloadTask) ResumeOffset() int64 {
	return t.LocalSize
}

// MarkFailed records an attempt failure. It moves the task back to Initial
// when attempts remain and err is not permanent, otherwise to Failed.
// Returns true if the caller should retry.
func (t *DownloadTask) MarkFailed(err error) bool {
	if err != nil {
		t.LastError = err.Error()
	}

	next := TaskStateFailed
	if t.CanRetry() && !IsPermanent(err) {
		next = TaskStateInitial
	}
	if t.State == TaskStateInitial && next == TaskStateInitial {
		// metadata failures happen before leaving Initial
		return true
	}
	if transErr := t.TransitionTo(next); transErr != nil {
		t.State = TaskStateFailed
		return false
	}
	return next == TaskStateInitial
}

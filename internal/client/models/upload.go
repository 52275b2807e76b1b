package models

import "github.com/dmitrijs2005/learnassist/internal/filex"

// ProgressFailed is the progress value of an upload that ended in failure.
const ProgressFailed = -1

type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// UploadTask tracks one file of a batch from start to terminal state.
type UploadTask struct {
	ID           string
	Name         string
	Path         string
	CollectionID string
	Size         int64
	Kind         filex.Kind
	Pages        int
	Progress     int
	State        TaskState
	Err          string
}

func (t UploadTask) Terminal() bool {
	return t.State == TaskSucceeded || t.State == TaskFailed
}

// BatchResult is computed once every task of a batch is terminal.
type BatchResult struct {
	Succeeded int
	Failed    int
	Tasks     []UploadTask
}

func (r BatchResult) Total() int {
	return r.Succeeded + r.Failed
}

package models

import "time"

// FileResult describes one output written by a task.
type FileResult struct {
	Source    string `json:"source"`
	Output    string `json:"output"`
	SourceMap string `json:"source_map,omitempty"`
	BytesIn   int64  `json:"bytes_in"`
	BytesOut  int64  `json:"bytes_out"`
}

// TaskFailure records why a task stopped.
type TaskFailure struct {
	Type    ErrorType `json:"type"`
	Path    string    `json:"path,omitempty"`
	Message string    `json:"message"`
}

// TaskResult contains the outcome of one task invocation.
type TaskResult struct {
	Name        string        `json:"name"`
	RunID       string        `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     time.Time     `json:"ended_at"`
	DurationSec float64       `json:"duration_sec"`
	Files       []FileResult  `json:"files,omitempty"`
	Skipped     int           `json:"skipped"`
	Subtasks    []*TaskResult `json:"subtasks,omitempty"`
	Error       *TaskFailure  `json:"error"`
}

// BytesIn sums the input size over this task and its subtasks.
func (r *TaskResult) BytesIn() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.BytesIn
	}
	for _, s := range r.Subtasks {
		n += s.BytesIn()
	}
	return n
}

// BytesOut sums the output size over this task and its subtasks.
func (r *TaskResult) BytesOut() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.BytesOut
	}
	for _, s := range r.Subtasks {
		n += s.BytesOut()
	}
	return n
}

// FileCount counts outputs over this task and its subtasks.
func (r *TaskResult) FileCount() int {
	n := len(r.Files)
	for _, s := range r.Subtasks {
		n += s.FileCount()
	}
	return n
}

// RunReport aggregates every task executed by one CLI invocation.
type RunReport struct {
	Root             string        `json:"root"`
	Tasks            []*TaskResult `json:"tasks"`
	Succeeded        bool          `json:"succeeded"`
	StartedAt        time.Time     `json:"started_at"`
	EndedAt          time.Time     `json:"ended_at"`
	TotalDurationSec float64       `json:"total_duration_sec"`
}

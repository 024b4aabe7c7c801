package pipeline

import (
	"errors"
	"fmt"

	"github.com/spachava753/assetflow/internal/models"
)

var (
	// ErrSkip is returned by a step to drop the current file from the task.
	ErrSkip = errors.New("skip file")

	// ErrUnknownTask is wrapped by errors for names missing from the registry.
	ErrUnknownTask = errors.New("task not defined")
)

// TaskError is returned when a task aborts.
type TaskError struct {
	Task string
	Step string // empty outside the step chain
	Path string // file or directory involved, relative to the project root
	Type models.ErrorType
	Err  error
}

func (e *TaskError) Error() string {
	msg := fmt.Sprintf("task %s", e.Task)
	if e.Step != "" {
		msg += fmt.Sprintf(": step %s", e.Step)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(": %s", e.Path)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Failure converts the error for a result report.
func (e *TaskError) Failure() *models.TaskFailure {
	return &models.TaskFailure{
		Type:    e.Type,
		Path:    e.Path,
		Message: e.Error(),
	}
}

func unknownTask(name string) error {
	return &TaskError{
		Task: name,
		Type: models.ErrUnknownTask,
		Err:  ErrUnknownTask,
	}
}

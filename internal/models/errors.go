package models

// ErrorType identifies the category of error that occurred.
type ErrorType string

const (
	// A step rejected its input (invalid CSS/JS syntax, undecodable image).
	ErrTransformFailed ErrorType = "transform_failed"

	// Permission or I/O error while reading sources, writing outputs or cleaning.
	ErrFilesystemFailed ErrorType = "filesystem_failed"

	// Pre-execution
	ErrUnknownTask    ErrorType = "unknown_task"
	ErrInvalidPattern ErrorType = "invalid_pattern"

	// Catch-all
	ErrTaskFailed ErrorType = "task_failed"
)

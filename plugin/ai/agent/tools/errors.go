package tools

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound matches every *NotFoundError.
	ErrToolNotFound = errors.New("tool not found")
	// ErrInvalidArguments reports missing or malformed tool arguments.
	ErrInvalidArguments = errors.New("invalid tool arguments")
	// ErrEmptyOutput reports a tool that succeeded without output.
	ErrEmptyOutput = errors.New("tool returned empty output")
)

// NotFoundError is returned for a tool name the registry does not know.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrToolNotFound
}

// ToolExecutionError reports any failed invocation, including timeouts.
// Fallback holds a user-facing message when the tool has a fallback rule.
type ToolExecutionError struct {
	Tool     string
	Attempts int
	Fallback string
	Err      error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed after %d attempt(s): %v", e.Tool, e.Attempts, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

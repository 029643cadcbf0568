package engine

import (
	"errors"
	"fmt"

	"github.com/trendy-design/deep.new/types"
)

// Engine-specific error codes, layered onto the framework-wide taxonomy in
// types.Error so engine failures participate in the same retryable/HTTP
// classification as LLM and agent errors.
const (
	ErrCodeTaskNotFound     types.ErrorCode = "TASK_NOT_FOUND"
	ErrCodeTimeoutExceeded  types.ErrorCode = "TASK_TIMEOUT_EXCEEDED"
	ErrCodeExecutionFailed  types.ErrorCode = "TASK_EXECUTION_FAILED"
	ErrCodeDependencyFailed types.ErrorCode = "TASK_DEPENDENCY_FAILED"
	ErrCodeAborted          types.ErrorCode = "WORKFLOW_ABORTED"
	ErrCodeMaxIterations    types.ErrorCode = "MAX_ITERATIONS_EXCEEDED"
)

// ErrBreakpoint is returned by a task to pause the workflow at the current
// point. It is never wrapped in types.Error: wrapping it would make it
// participate in retryable/HTTP-status classification, and a breakpoint is
// not a failure.
var ErrBreakpoint = errors.New("engine: breakpoint reached")

// ErrAborted is returned from Start/Resume when the workflow's context was
// cancelled (hard abort) before or during task execution.
var ErrAborted = errors.New("engine: workflow aborted")

// NewTaskNotFoundError mirrors types.NewError's fluent construction style.
func NewTaskNotFoundError(name string) *types.Error {
	return types.NewError(ErrCodeTaskNotFound, fmt.Sprintf("task %q is not registered", name)).
		WithRetryable(false)
}

// NewTimeoutError builds a retryable timeout error for a task attempt.
func NewTimeoutError(taskName string) *types.Error {
	return types.NewError(ErrCodeTimeoutExceeded, fmt.Sprintf("task %q exceeded its timeout", taskName)).
		WithRetryable(true)
}

// NewExecutionError wraps an arbitrary task failure, preserving retryability
// hints supplied by the caller (e.g. a task may return a types.Error of its
// own with WithRetryable already set; in that case it is returned as-is).
func NewExecutionError(taskName string, cause error) error {
	if cause == nil {
		return nil
	}
	if existing, ok := cause.(*types.Error); ok {
		return existing
	}
	return types.NewError(ErrCodeExecutionFailed, fmt.Sprintf("task %q failed", taskName)).
		WithCause(cause).
		WithRetryable(true)
}

// NewDependencyError is returned when a task is dispatched whose
// dependencies are not all complete.
func NewDependencyError(taskName string, pending []string) *types.Error {
	return types.NewError(ErrCodeDependencyFailed, fmt.Sprintf("task %q has unmet dependencies: %v", taskName, pending)).
		WithRetryable(false)
}

// NewMaxIterationsError is returned by loop/revision pattern handlers when a
// from<->to cycle exceeds its configured iteration budget.
func NewMaxIterationsError(edgeID string, max int) *types.Error {
	return types.NewError(ErrCodeMaxIterations, fmt.Sprintf("edge %q exceeded max iterations (%d)", edgeID, max)).
		WithRetryable(false)
}

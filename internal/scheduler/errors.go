package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error kinds. Every concrete error below matches exactly one of these with errors.Is.
var (
	ErrCycleDetected        = errors.New("cycle detected")
	ErrResourceExceeded     = errors.New("resource exceeded")
	ErrUnknownTaskReference = errors.New("unknown task reference")
	ErrMalformedInput       = errors.New("malformed input")
	ErrNotScheduled         = errors.New("earliest schedule not computed")
)

// CycleError reports a dependency graph that is not a DAG.
// Path is empty when the cycle was inferred from an incomplete traversal.
type CycleError struct {
	Path []int
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "cycle detected"
	}
	return "cycle detected: " + joinIDs(e.Path)
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// ResourceExceededError reports the first instant at which running tasks demand more staff than allowed.
type ResourceExceededError struct {
	Time     int
	Demanded int
	Ceiling  int
}

func (e *ResourceExceededError) Error() string {
	return fmt.Sprintf("manpower demanded (%d) exceeds limit of %d at time %d", e.Demanded, e.Ceiling, e.Time)
}

func (e *ResourceExceededError) Unwrap() error { return ErrResourceExceeded }

// UnknownTaskReferenceError reports a predecessor id with no matching task.
type UnknownTaskReferenceError struct {
	TaskID    int
	MissingID int
}

func (e *UnknownTaskReferenceError) Error() string {
	return fmt.Sprintf("task %d depends on non-existent task %d", e.TaskID, e.MissingID)
}

func (e *UnknownTaskReferenceError) Unwrap() error { return ErrUnknownTaskReference }

// DuplicateTaskError reports two descriptors sharing one id.
type DuplicateTaskError struct {
	TaskID int
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task with ID %d already exists", e.TaskID)
}

func (e *DuplicateTaskError) Unwrap() error { return ErrMalformedInput }

// InvalidTaskError reports a descriptor with an out-of-range field.
type InvalidTaskError struct {
	TaskID int
	Field  string
	Value  int
}

func (e *InvalidTaskError) Error() string {
	return fmt.Sprintf("task %d: invalid %s %d", e.TaskID, e.Field, e.Value)
}

func (e *InvalidTaskError) Unwrap() error { return ErrMalformedInput }

// InvalidCeilingError reports a negative staffing ceiling.
type InvalidCeilingError struct {
	Ceiling int
}

func (e *InvalidCeilingError) Error() string {
	return fmt.Sprintf("staff ceiling must not be negative, got %d", e.Ceiling)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

package priority

import (
	"errors"
	"fmt"
)

var ErrUnsupported = errors.New("process priority is not supported on this platform")

// ProcessOpenError means no handle could be acquired, usually because the
// process exited or the caller lacks privileges.
type ProcessOpenError struct {
	Pid int32
	Err error
}

func (e *ProcessOpenError) Error() string {
	return fmt.Sprintf("failed to open process %d: %v", e.Pid, e.Err)
}

func (e *ProcessOpenError) Unwrap() error {
	return e.Err
}

// PrioritySetError means the handle was acquired but the class could not be
// read, changed or verified.
type PrioritySetError struct {
	Pid int32
	Err error
}

func (e *PrioritySetError) Error() string {
	return fmt.Sprintf("failed to set process priority for PID %d: %v", e.Pid, e.Err)
}

func (e *PrioritySetError) Unwrap() error {
	return e.Err
}

package safety

import (
	"errors"
	"fmt"
)

type Reason int

const (
	Eligible Reason = iota
	ProcessGone
	TooNew
	NameRejected
	PathNotWhitelisted
)

func (r Reason) String() string {
	switch r {
	case Eligible:
		return "eligible"
	case ProcessGone:
		return "process gone"
	case TooNew:
		return "too new"
	case NameRejected:
		return "name rejected"
	case PathNotWhitelisted:
		return "path not whitelisted"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Verdict is the outcome of evaluating one process.
type Verdict struct {
	Pid    int32
	Name   string
	Exe    string
	Reason Reason
	Detail string
}

func (v Verdict) Eligible() bool {
	return v.Reason == Eligible
}

// Err returns nil for an eligible verdict, a *PathError for a path rejection and a
// *CheckError otherwise.
func (v Verdict) Err() error {
	switch v.Reason {
	case Eligible:
		return nil
	case PathNotWhitelisted:
		return &PathError{Pid: v.Pid, Path: v.Exe, Detail: v.Detail}
	default:
		return &CheckError{Pid: v.Pid, Reason: v.Reason, Detail: v.Detail}
	}
}

var ErrCheckFailed = errors.New("safety check failed")

// ReasonOf extracts the rejection reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var checkErr *CheckError
	if errors.As(err, &checkErr) {
		return checkErr.Reason, true
	}
	var pathErr *PathError
	if errors.As(err, &pathErr) {
		return PathNotWhitelisted, true
	}
	return Eligible, false
}

type CheckError struct {
	Pid    int32
	Reason Reason
	Detail string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("Safety check failed: %s", e.Detail)
}

func (e *CheckError) Unwrap() error {
	return ErrCheckFailed
}

// PathError is the path whitelist rejection. It is also an ErrCheckFailed.
type PathError struct {
	Pid    int32
	Path   string
	Detail string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("Process path validation failed: %s", e.Detail)
}

func (e *PathError) Unwrap() error {
	return ErrCheckFailed
}

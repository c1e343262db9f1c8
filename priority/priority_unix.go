//go:build linux || darwin

package priority

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Nice values standing in for the Windows classes.
const (
	niceHigh        = -10
	niceAboveNormal = -5
	niceNormal      = 0
	niceBelowNormal = 5
	niceIdle        = 19
)

var classToNice = map[Class]int{
	ClassIdle:        niceIdle,
	ClassBelowNormal: niceBelowNormal,
	ClassNormal:      niceNormal,
	ClassAboveNormal: niceAboveNormal,
	ClassHigh:        niceHigh,
}

func niceToClass(nice int) Class {
	switch {
	case nice <= niceHigh:
		return ClassHigh
	case nice < niceNormal:
		return ClassAboveNormal
	case nice == niceNormal:
		return ClassNormal
	case nice < niceIdle:
		return ClassBelowNormal
	default:
		return ClassIdle
	}
}

// unixHandle holds only the pid; there is no kernel object to release.
type unixHandle struct {
	pid int
}

func (unixHandle) Close() error {
	return nil
}

type unixAPI struct{}

// System returns the setpriority(2) backed API.
func System() API {
	return unixAPI{}
}

func (unixAPI) Open(pid int32, _ Access) (Handle, error) {
	if err := unix.Kill(int(pid), 0); err != nil && err != unix.EPERM {
		return nil, err
	}
	return unixHandle{pid: int(pid)}, nil
}

func (unixAPI) Class(h Handle) (Class, error) {
	uh, ok := h.(unixHandle)
	if !ok {
		return ClassUnknown, fmt.Errorf("foreign handle %T", h)
	}
	nice, err := getNice(uh.pid)
	if err != nil {
		return ClassUnknown, err
	}
	return niceToClass(nice), nil
}

func (unixAPI) SetClass(h Handle, c Class) error {
	uh, ok := h.(unixHandle)
	if !ok {
		return fmt.Errorf("foreign handle %T", h)
	}
	nice, ok := classToNice[c]
	if !ok {
		return fmt.Errorf("no nice value for class %s", c)
	}
	return unix.Setpriority(unix.PRIO_PROCESS, uh.pid, nice)
}

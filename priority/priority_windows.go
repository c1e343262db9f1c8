//go:build windows

package priority

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var toNative = map[Class]uint32{
	ClassIdle:        windows.IDLE_PRIORITY_CLASS,
	ClassBelowNormal: windows.BELOW_NORMAL_PRIORITY_CLASS,
	ClassNormal:      windows.NORMAL_PRIORITY_CLASS,
	ClassAboveNormal: windows.ABOVE_NORMAL_PRIORITY_CLASS,
	ClassHigh:        windows.HIGH_PRIORITY_CLASS,
	ClassRealtime:    windows.REALTIME_PRIORITY_CLASS,
}

type windowsHandle struct {
	h windows.Handle
}

func (w *windowsHandle) Close() error {
	return windows.CloseHandle(w.h)
}

type windowsAPI struct{}

// System returns the kernel32 backed API.
func System() API {
	return windowsAPI{}
}

func (windowsAPI) Open(pid int32, access Access) (Handle, error) {
	var rights uint32
	if access&QueryAccess != 0 {
		rights |= windows.PROCESS_QUERY_INFORMATION
	}
	if access&SetAccess != 0 {
		rights |= windows.PROCESS_SET_INFORMATION
	}
	h, err := windows.OpenProcess(rights, false, uint32(pid))
	if err != nil {
		return nil, err
	}
	return &windowsHandle{h: h}, nil
}

func (windowsAPI) Class(h Handle) (Class, error) {
	wh, ok := h.(*windowsHandle)
	if !ok {
		return ClassUnknown, fmt.Errorf("foreign handle %T", h)
	}
	native, err := windows.GetPriorityClass(wh.h)
	if err != nil {
		return ClassUnknown, err
	}
	for class, value := range toNative {
		if value == native {
			return class, nil
		}
	}
	return ClassUnknown, fmt.Errorf("unrecognised priority class 0x%x", native)
}

func (windowsAPI) SetClass(h Handle, c Class) error {
	wh, ok := h.(*windowsHandle)
	if !ok {
		return fmt.Errorf("foreign handle %T", h)
	}
	native, ok := toNative[c]
	if !ok {
		return fmt.Errorf("no native value for class %s", c)
	}
	return windows.SetPriorityClass(wh.h, native)
}

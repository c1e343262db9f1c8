//go:build linux

package priority

import "golang.org/x/sys/unix"

// The raw getpriority syscall on Linux returns 20 - nice.
func getNice(pid int) (int, error) {
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, pid)
	if err != nil {
		return 0, err
	}
	return 20 - prio, nil
}

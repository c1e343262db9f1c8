//go:build darwin

package priority

import "golang.org/x/sys/unix"

func getNice(pid int) (int, error) {
	return unix.Getpriority(unix.PRIO_PROCESS, pid)
}

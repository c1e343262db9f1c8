package priority

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Controller performs single priority mutations and their inverse.
type Controller struct {
	api API
}

func NewController(api API) *Controller {
	return &Controller{api: api}
}

// withProcess opens pid with the given rights, runs fn and closes the handle on every path.
func (c *Controller) withProcess(pid int32, access Access, fn func(h Handle) error) error {
	handle, err := c.api.Open(pid, access)
	if err != nil {
		return &ProcessOpenError{Pid: pid, Err: err}
	}
	defer func(handle Handle) {
		err := handle.Close()
		if err != nil {
			log.Errorf("error closing handle of PID %d: %v", pid, err)
		}
	}(handle)
	return fn(handle)
}

// Boost raises pid to level. A process already at or above the level is left untouched.
func (c *Controller) Boost(pid int32, level Level) error {
	target := level.Class()
	return c.withProcess(pid, QueryAccess|SetAccess, func(h Handle) error {
		current, err := c.api.Class(h)
		if err != nil {
			return &PrioritySetError{Pid: pid, Err: fmt.Errorf("query priority: %w", err)}
		}
		if current >= target {
			log.Debugf("PID %d already at %s, requested %s", pid, current, target)
			return nil
		}
		if err := c.api.SetClass(h, target); err != nil {
			return &PrioritySetError{Pid: pid, Err: err}
		}
		after, err := c.api.Class(h)
		if err != nil {
			return &PrioritySetError{Pid: pid, Err: fmt.Errorf("verify priority: %w", err)}
		}
		if after != target {
			return &PrioritySetError{Pid: pid, Err: fmt.Errorf("priority verification failed: got %s, want %s", after, target)}
		}
		log.WithFields(log.Fields{"pid": pid, "from": current, "to": target}).Info("priority raised")
		return nil
	})
}

// Restore lowers pid back to normal, only if it currently sits at above normal or higher.
func (c *Controller) Restore(pid int32) error {
	return c.withProcess(pid, QueryAccess|SetAccess, func(h Handle) error {
		current, err := c.api.Class(h)
		if err != nil {
			return &PrioritySetError{Pid: pid, Err: fmt.Errorf("query priority: %w", err)}
		}
		if current < ClassAboveNormal {
			return nil
		}
		if err := c.api.SetClass(h, ClassNormal); err != nil {
			return &PrioritySetError{Pid: pid, Err: err}
		}
		log.WithFields(log.Fields{"pid": pid, "from": current, "to": ClassNormal}).Info("priority restored")
		return nil
	})
}

// GpuFriendly reports whether pid runs at a class the OS favours for GPU scheduling.
// Nothing is mutated; the process is opened with query rights only.
func (c *Controller) GpuFriendly(pid int32) (bool, error) {
	var friendly bool
	err := c.withProcess(pid, QueryAccess, func(h Handle) error {
		current, err := c.api.Class(h)
		if err != nil {
			return &PrioritySetError{Pid: pid, Err: fmt.Errorf("query priority: %w", err)}
		}
		friendly = current == ClassAboveNormal || current == ClassHigh
		return nil
	})
	return friendly, err
}
